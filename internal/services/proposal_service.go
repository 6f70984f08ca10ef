package services

import (
	"context"
	"errors"
	"strings"

	"github.com/senyabanana/auction-service/internal/metrics"
	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/notify"
	"github.com/senyabanana/auction-service/internal/repository"

	"github.com/google/uuid"
)

type ProposalService struct {
	Store   repository.Store
	Queue   IntentQueue
	Metrics *metrics.Metrics
	cfg     Config
}

// NewProposalService создаёт новый экземпляр ProposalService.
func NewProposalService(store repository.Store, queue IntentQueue, m *metrics.Metrics, cfg Config) *ProposalService {
	return &ProposalService{Store: store, Queue: queue, Metrics: m, cfg: cfg.withDefaults()}
}

// SubmitProposal сохраняет предложение поставщика для текущей фазы аукциона.
// Повторная подача в ту же фазу запрещена, редактирования нет.
func (s *ProposalService) SubmitProposal(ctx context.Context, actor models.Actor, auctionID uuid.UUID, req models.ProposalRequest) (*models.ProposalView, error) {
	budget, amountWithFee := ApplyFee(req.Budget, s.cfg.FeeRate)
	if !budget.IsPositive() {
		return nil, models.NewValidationError("budget must be positive")
	}
	if amountWithFee.GreaterThanOrEqual(amountLimit) {
		return nil, models.NewValidationError("budget is too large")
	}
	phase := models.ProposalPhase1
	if req.SecondPhase {
		phase = models.ProposalPhase2
	}

	var (
		view   *models.ProposalView
		intent notify.Intent
	)
	err := s.Store.RunInTx(ctx, func(tx repository.Repositories) error {
		auction, err := tx.Auctions().GetByIDForUpdate(ctx, auctionID)
		if err != nil {
			return storeError(err, "auction not found", "")
		}
		if auction.Phase == models.PhaseClosed {
			return models.NewRuleViolation("auction already closed")
		}
		if req.SecondPhase && auction.Phase != models.PhaseSecond {
			return models.NewRuleViolation("auction is not in the second phase")
		}
		if !req.SecondPhase && auction.Phase != models.PhaseOpen {
			return models.NewRuleViolation("auction is not open for new proposals")
		}

		supplier, err := tx.Users().GetByID(ctx, actor.UserID)
		if err != nil {
			return storeError(err, "supplier not found", "")
		}
		if supplier.Type != models.Supplier {
			return models.NewRuleViolation("only suppliers can submit proposals")
		}
		if !auction.HasSegment(supplier.SegmentIDs) {
			return models.NewRuleViolation("your profile does not match the auction segments")
		}

		if req.SecondPhase {
			first, err := tx.Proposals().GetByAuctionSupplierPhase(ctx, auction.ID, supplier.ID, models.ProposalPhase1)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if first == nil || first.Status != models.ProposalSelected {
				return models.NewRuleViolation("you were not selected for the second phase")
			}
		}

		exists, err := tx.Proposals().ExistsByAuctionSupplierPhase(ctx, auction.ID, supplier.ID, phase)
		if err != nil {
			return err
		}
		if exists {
			return models.NewRuleViolation("a proposal for this phase was already submitted, editing is not allowed")
		}

		proposal := &models.Proposal{
			ID:            uuid.New(),
			AuctionID:     auction.ID,
			SupplierID:    supplier.ID,
			Phase:         phase,
			Description:   strings.TrimSpace(req.Description),
			Budget:        budget,
			AmountWithFee: amountWithFee,
			Status:        models.ProposalSubmitted,
			CreatedAt:     s.cfg.now(),
		}
		if err := tx.Proposals().Create(ctx, proposal); err != nil {
			return storeError(err, "auction not found", "a proposal for this phase was already submitted")
		}

		intent = notify.Intent{
			Kind:         notify.KindNewProposal,
			RecipientID:  auction.BuyerID,
			AuctionID:    auction.ID,
			AuctionTitle: auction.Title,
			Description:  proposal.Description,
			SupplierName: supplier.Name,
			Amount:       proposal.AmountWithFee,
		}
		view = &models.ProposalView{
			Proposal:      *proposal,
			SupplierName:  supplier.Name,
			SupplierEmail: supplier.Email,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Metrics.IncProposalSubmitted(string(phase))
	s.Queue.Enqueue(ctx, intent)
	return view, nil
}
