package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/senyabanana/auction-service/internal/metrics"
	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/notify"
	"github.com/senyabanana/auction-service/internal/repository"
	"github.com/senyabanana/auction-service/internal/utils"

	"github.com/google/uuid"
)

type AuctionService struct {
	Store    repository.Store
	Segments *SegmentService
	Queue    IntentQueue
	Metrics  *metrics.Metrics
	cfg      Config
}

// NewAuctionService создаёт новый экземпляр AuctionService.
func NewAuctionService(store repository.Store, segments *SegmentService, queue IntentQueue, m *metrics.Metrics, cfg Config) *AuctionService {
	return &AuctionService{Store: store, Segments: segments, Queue: queue, Metrics: m, cfg: cfg.withDefaults()}
}

// Create создаёт аукцион и уведомляет поставщиков из его сегментов.
func (s *AuctionService) Create(ctx context.Context, actor models.Actor, req models.AuctionRequest) (*models.AuctionView, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.NewValidationError("title is required")
	}
	if len(utils.NormalizeNames(req.Segments)) == 0 {
		return nil, models.NewValidationError("at least one segment is required")
	}
	closingDate, err := utils.ParseDate(req.ClosingDate, s.cfg.Location)
	if err != nil {
		return nil, err
	}
	minDate := s.cfg.today().AddDate(0, 0, s.cfg.MinClosingDays)
	if closingDate.Before(minDate) {
		return nil, models.NewValidationError(fmt.Sprintf("closing date must be at least %d days from today", s.cfg.MinClosingDays))
	}

	var (
		view    *models.AuctionView
		intents []notify.Intent
	)
	err = s.Store.RunInTx(ctx, func(tx repository.Repositories) error {
		buyer, err := tx.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return storeError(err, "user not found", "")
		}
		if buyer.Type != models.Buyer {
			return models.NewRuleViolation("only buyers can create auctions")
		}

		segments, err := s.Segments.Resolve(ctx, tx, req.Segments)
		if err != nil {
			return err
		}

		auction := &models.Auction{
			ID:          uuid.New(),
			BuyerID:     buyer.ID,
			Title:       title,
			Description: strings.TrimSpace(req.Description),
			ClosingDate: closingDate,
			SegmentIDs:  models.SegmentIDs(segments),
			Phase:       models.PhaseOpen,
			CreatedAt:   s.cfg.now(),
		}
		if err := tx.Auctions().Create(ctx, auction); err != nil {
			return storeError(err, "auction not found", "auction already exists")
		}

		suppliers, err := tx.Users().ListActiveSuppliersBySegmentNames(ctx, models.SegmentNames(segments))
		if err != nil {
			return err
		}
		intents = intents[:0]
		for _, supplier := range suppliers {
			if supplier.ID == buyer.ID {
				continue
			}
			intents = append(intents, notify.Intent{
				Kind:         notify.KindAuctionOpened,
				RecipientID:  supplier.ID,
				AuctionID:    auction.ID,
				AuctionTitle: auction.Title,
				Description:  auction.Description,
				BuyerName:    buyer.Name,
				BuyerAddress: buyer.Address,
				ClosingDate:  auction.ClosingDate,
			})
		}

		view = &models.AuctionView{
			Auction:   *auction,
			BuyerName: buyer.Name,
			Segments:  models.SegmentNames(segments),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncAuctionCreated()
	s.Queue.Enqueue(ctx, intents...)
	return view, nil
}

// GetAuction возвращает аукцион владельцу или поставщику из его сегментов.
// Остальным отвечает "не найдено", не раскрывая существование аукциона.
func (s *AuctionService) GetAuction(ctx context.Context, actor models.Actor, auctionID uuid.UUID) (*models.AuctionView, error) {
	auction, err := s.Store.Auctions().GetByID(ctx, auctionID)
	if err != nil {
		return nil, storeError(err, "auction not found", "")
	}
	if auction.BuyerID != actor.UserID {
		if actor.Type != models.Supplier {
			return nil, models.NewNotFoundError("auction not found")
		}
		supplier, err := s.Store.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return nil, storeError(err, "auction not found", "")
		}
		if supplier.Type != models.Supplier || !auction.HasSegment(supplier.SegmentIDs) {
			return nil, models.NewNotFoundError("auction not found")
		}
	}
	return s.view(ctx, s.Store, auction)
}

// ListBuyerAuctions возвращает аукционы заказчика, начиная с последних.
func (s *AuctionService) ListBuyerAuctions(ctx context.Context, actor models.Actor, limit, offset int) ([]models.AuctionView, error) {
	if actor.Type != models.Buyer {
		return nil, models.NewRuleViolation("only buyers have their own auctions")
	}
	auctions, err := s.Store.Auctions().ListByBuyer(ctx, actor.UserID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, auctions)
}

// ListSupplierAuctions возвращает аукционы из сегментов поставщика, начиная с последних.
func (s *AuctionService) ListSupplierAuctions(ctx context.Context, actor models.Actor, limit, offset int) ([]models.AuctionView, error) {
	if actor.Type != models.Supplier {
		return nil, models.NewRuleViolation("only suppliers can list available auctions")
	}
	supplier, err := s.Store.Users().GetByID(ctx, actor.UserID)
	if err != nil {
		return nil, storeError(err, "user not found", "")
	}
	if len(supplier.SegmentIDs) == 0 {
		return []models.AuctionView{}, nil
	}
	auctions, err := s.Store.Auctions().ListBySegments(ctx, supplier.SegmentIDs, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, auctions)
}

// ListCurrentPhaseProposals возвращает предложения текущей фазы аукциона. Только для владельца.
func (s *AuctionService) ListCurrentPhaseProposals(ctx context.Context, actor models.Actor, auctionID uuid.UUID) ([]models.ProposalView, error) {
	auction, err := ownedAuction(ctx, s.Store, actor, auctionID, "view proposals")
	if err != nil {
		return nil, err
	}
	proposals, err := s.Store.Proposals().ListByAuctionAndPhase(ctx, auction.ID, auction.Phase.ProposalPhase())
	if err != nil {
		return nil, err
	}
	return proposalViews(ctx, s.Store, proposals)
}

// ListAuctionProposals возвращает все предложения аукциона, начиная с последних. Только для владельца.
func (s *AuctionService) ListAuctionProposals(ctx context.Context, actor models.Actor, auctionID uuid.UUID) ([]models.ProposalView, error) {
	auction, err := ownedAuction(ctx, s.Store, actor, auctionID, "list proposals")
	if err != nil {
		return nil, err
	}
	proposals, err := s.Store.Proposals().ListByAuction(ctx, auction.ID)
	if err != nil {
		return nil, err
	}
	return proposalViews(ctx, s.Store, proposals)
}

// AdvanceToPhase2 отбирает предложения первой фазы и переводит аукцион во вторую фазу.
// Неизвестные, чужие и не относящиеся к первой фазе идентификаторы пропускаются без ошибки
// и возвращаются в Skipped.
func (s *AuctionService) AdvanceToPhase2(ctx context.Context, actor models.Actor, auctionID uuid.UUID, proposalIDs []uuid.UUID) (*models.AdvanceResult, error) {
	var (
		result  *models.AdvanceResult
		intents []notify.Intent
	)
	err := s.Store.RunInTx(ctx, func(tx repository.Repositories) error {
		auction, err := lockOwnedAuction(ctx, tx, actor, auctionID, "start the second phase")
		if err != nil {
			return err
		}
		if auction.Phase != models.PhaseOpen {
			return models.NewRuleViolation("the second phase can only start from an open auction")
		}

		result = &models.AdvanceResult{Selected: []uuid.UUID{}, Skipped: []uuid.UUID{}}
		intents = intents[:0]
		seen := make(map[uuid.UUID]struct{}, len(proposalIDs))
		for _, id := range proposalIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}

			proposal, err := tx.Proposals().GetByID(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			if err != nil {
				return err
			}
			if proposal.AuctionID != auction.ID || proposal.Phase != models.ProposalPhase1 {
				result.Skipped = append(result.Skipped, id)
				continue
			}
			if err := tx.Proposals().UpdateStatus(ctx, proposal.ID, models.ProposalSelected); err != nil {
				return storeError(err, "proposal not found", "")
			}
			result.Selected = append(result.Selected, id)
			intents = append(intents, notify.Intent{
				Kind:         notify.KindSelected,
				RecipientID:  proposal.SupplierID,
				AuctionID:    auction.ID,
				AuctionTitle: auction.Title,
			})
		}

		auction.Phase = models.PhaseSecond
		return storeError(tx.Auctions().Update(ctx, auction, models.PhaseOpen), "auction not found", concurrentChange)
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncPhaseAdvance()
	s.Queue.Enqueue(ctx, intents...)
	return result, nil
}

// SelectWinner закрывает аукцион с победителем. Переход необратим.
func (s *AuctionService) SelectWinner(ctx context.Context, actor models.Actor, auctionID, proposalID uuid.UUID) (*models.AuctionView, error) {
	var (
		view   *models.AuctionView
		intent notify.Intent
	)
	err := s.Store.RunInTx(ctx, func(tx repository.Repositories) error {
		auction, err := lockOwnedAuction(ctx, tx, actor, auctionID, "select the winner")
		if err != nil {
			return err
		}
		if auction.Phase == models.PhaseClosed {
			return models.NewRuleViolation("auction already closed")
		}

		proposal, err := tx.Proposals().GetByID(ctx, proposalID)
		if err != nil {
			return storeError(err, "proposal not found", "")
		}
		if proposal.AuctionID != auction.ID {
			return models.NewNotFoundError("proposal not found")
		}
		if proposal.Phase != auction.Phase.ProposalPhase() {
			return models.NewRuleViolation("proposal is not from the current phase")
		}

		closedAt := s.cfg.now()
		winnerID := proposal.SupplierID
		from := auction.Phase
		auction.Phase = models.PhaseClosed
		auction.WinnerID = &winnerID
		auction.ClosedAt = &closedAt
		if err := tx.Auctions().Update(ctx, auction, from); err != nil {
			return storeError(err, "auction not found", concurrentChange)
		}
		if err := tx.Proposals().UpdateStatus(ctx, proposal.ID, models.ProposalWinner); err != nil {
			return storeError(err, "proposal not found", concurrentChange)
		}

		buyer, err := tx.Users().GetByID(ctx, auction.BuyerID)
		if err != nil {
			return storeError(err, "user not found", "")
		}
		intent = notify.Intent{
			Kind:         notify.KindWinner,
			RecipientID:  winnerID,
			AuctionID:    auction.ID,
			AuctionTitle: auction.Title,
			BuyerName:    buyer.Name,
			Amount:       proposal.AmountWithFee,
		}

		view, err = s.view(ctx, tx, auction)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncWinnerSelected()
	s.Queue.Enqueue(ctx, intent)
	return view, nil
}

func ownedAuction(ctx context.Context, repos repository.Repositories, actor models.Actor, auctionID uuid.UUID, action string) (*models.Auction, error) {
	auction, err := repos.Auctions().GetByID(ctx, auctionID)
	return checkOwner(auction, err, actor, action)
}

// lockOwnedAuction читает аукцион под блокировкой строки: смена фазы проверяется и пишется атомарно.
func lockOwnedAuction(ctx context.Context, tx repository.Repositories, actor models.Actor, auctionID uuid.UUID, action string) (*models.Auction, error) {
	auction, err := tx.Auctions().GetByIDForUpdate(ctx, auctionID)
	return checkOwner(auction, err, actor, action)
}

func checkOwner(auction *models.Auction, err error, actor models.Actor, action string) (*models.Auction, error) {
	if err != nil {
		return nil, storeError(err, "auction not found", "")
	}
	if auction.BuyerID != actor.UserID {
		return nil, models.NewForbiddenError(fmt.Sprintf("only the auction owner can %s", action))
	}
	return auction, nil
}

func (s *AuctionService) views(ctx context.Context, auctions []models.Auction) ([]models.AuctionView, error) {
	views := make([]models.AuctionView, 0, len(auctions))
	for i := range auctions {
		v, err := s.view(ctx, s.Store, &auctions[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// view собирает представление аукциона явными запросами по идентификаторам.
func (s *AuctionService) view(ctx context.Context, repos repository.Repositories, auction *models.Auction) (*models.AuctionView, error) {
	v := &models.AuctionView{Auction: *auction, Segments: []string{}}

	buyer, err := repos.Users().GetByID(ctx, auction.BuyerID)
	if err != nil {
		return nil, storeError(err, "user not found", "")
	}
	v.BuyerName = buyer.Name

	if auction.WinnerID != nil {
		winner, err := repos.Users().GetByID(ctx, *auction.WinnerID)
		if err != nil {
			return nil, storeError(err, "user not found", "")
		}
		v.WinnerName = winner.Name
	}

	segments, err := repos.Segments().ListByIDs(ctx, auction.SegmentIDs)
	if err != nil {
		return nil, err
	}
	v.Segments = models.SegmentNames(segments)

	v.ProposalCount, err = repos.Proposals().CountByAuctionAndPhase(ctx, auction.ID, auction.Phase.ProposalPhase())
	if err != nil {
		return nil, err
	}
	return v, nil
}

func proposalViews(ctx context.Context, repos repository.Repositories, proposals []models.Proposal) ([]models.ProposalView, error) {
	suppliers := make(map[uuid.UUID]*models.User)
	views := make([]models.ProposalView, 0, len(proposals))
	for _, p := range proposals {
		supplier, ok := suppliers[p.SupplierID]
		if !ok {
			var err error
			supplier, err = repos.Users().GetByID(ctx, p.SupplierID)
			if err != nil {
				return nil, storeError(err, "supplier not found", "")
			}
			suppliers[p.SupplierID] = supplier
		}
		views = append(views, models.ProposalView{
			Proposal:      p,
			SupplierName:  supplier.Name,
			SupplierEmail: supplier.Email,
		})
	}
	return views, nil
}
