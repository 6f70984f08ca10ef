package repository

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// memoryState - снимок данных. Опубликованный снимок не изменяется:
// запись идёт в копию, которая затем подменяет текущий снимок.
type memoryState struct {
	users         map[uuid.UUID]models.User
	segments      map[uuid.UUID]models.Segment
	auctions      map[uuid.UUID]models.Auction
	proposals     map[uuid.UUID]models.Proposal
	notifications map[uuid.UUID]models.Notification
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:         make(map[uuid.UUID]models.User),
		segments:      make(map[uuid.UUID]models.Segment),
		auctions:      make(map[uuid.UUID]models.Auction),
		proposals:     make(map[uuid.UUID]models.Proposal),
		notifications: make(map[uuid.UUID]models.Notification),
	}
}

func (s *memoryState) clone() *memoryState {
	c := newMemoryState()
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.segments {
		c.segments[k] = v
	}
	for k, v := range s.auctions {
		c.auctions[k] = v
	}
	for k, v := range s.proposals {
		c.proposals[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	return c
}

type memoryView interface {
	read(fn func(st *memoryState) error) error
	write(fn func(st *memoryState) error) error
}

type rootView struct {
	s *MemoryStore
}

func (v rootView) read(fn func(st *memoryState) error) error {
	return fn(v.s.state.Load())
}

func (v rootView) write(fn func(st *memoryState) error) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()

	draft := v.s.state.Load().clone()
	if err := fn(draft); err != nil {
		return err
	}
	v.s.state.Store(draft)
	return nil
}

// draftView работает с копией, принадлежащей одной транзакции.
type draftView struct {
	st *memoryState
}

func (v draftView) read(fn func(st *memoryState) error) error  { return fn(v.st) }
func (v draftView) write(fn func(st *memoryState) error) error { return fn(v.st) }

type memoryRepositories struct {
	view memoryView
}

func (r memoryRepositories) Users() UserRepository                 { return memoryUsers{r.view} }
func (r memoryRepositories) Segments() SegmentRepository           { return memorySegments{r.view} }
func (r memoryRepositories) Auctions() AuctionRepository           { return memoryAuctions{r.view} }
func (r memoryRepositories) Proposals() ProposalRepository         { return memoryProposals{r.view} }
func (r memoryRepositories) Notifications() NotificationRepository { return memoryNotifications{r.view} }

// MemoryStore - реализация Store в памяти. Транзакции сериализуются,
// изменения применяются к копии и публикуются только при успехе.
type MemoryStore struct {
	memoryRepositories
	mu    sync.Mutex
	state atomic.Pointer[memoryState]
}

// NewMemoryStore создает пустое хранилище в памяти.
func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{}
	s.state.Store(newMemoryState())
	s.memoryRepositories = memoryRepositories{view: rootView{s: s}}
	return s
}

// RunInTx выполняет fn над копией данных и публикует её, если fn вернула nil.
func (s *MemoryStore) RunInTx(ctx context.Context, fn func(tx Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	draft := s.state.Load().clone()
	if err := fn(memoryRepositories{view: draftView{st: draft}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	s.state.Store(draft)
	return nil
}

// newestFirst упорядочивает по убыванию времени, при равенстве по убыванию идентификатора,
// как ORDER BY created_at DESC, id DESC.
func newestFirst(aAt, bAt time.Time, aID, bID uuid.UUID) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return bytes.Compare(bID[:], aID[:])
}

// paginate повторяет LIMIT/OFFSET; limit <= 0 означает "без ограничения".
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func intersects(a, b []uuid.UUID) bool {
	for _, x := range a {
		if slices.Contains(b, x) {
			return true
		}
	}
	return false
}

type memoryUsers struct{ view memoryView }

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	return r.view.write(func(st *memoryState) error {
		for _, u := range st.users {
			if u.TaxID == user.TaxID || strings.EqualFold(u.Email, user.Email) {
				return fmt.Errorf("%w: user tax id or email", ErrConflict)
			}
		}
		stored := *user
		stored.SegmentIDs = slices.Clone(user.SegmentIDs)
		st.users[user.ID] = stored
		return nil
	})
}

func (r memoryUsers) Update(_ context.Context, user *models.User) error {
	return r.view.write(func(st *memoryState) error {
		current, ok := st.users[user.ID]
		if !ok {
			return ErrNotFound
		}
		for id, u := range st.users {
			if id != user.ID && strings.EqualFold(u.Email, user.Email) {
				return fmt.Errorf("%w: user email", ErrConflict)
			}
		}
		stored := *user
		stored.TaxID = current.TaxID
		stored.Type = current.Type
		stored.PasswordHash = current.PasswordHash
		stored.CreatedAt = current.CreatedAt
		stored.SegmentIDs = slices.Clone(user.SegmentIDs)
		st.users[user.ID] = stored
		return nil
	})
}

func (r memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	var found *models.User
	err := r.view.read(func(st *memoryState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		u.SegmentIDs = slices.Clone(u.SegmentIDs)
		found = &u
		return nil
	})
	return found, err
}

func (r memoryUsers) GetByTaxID(_ context.Context, taxID string) (*models.User, error) {
	var found *models.User
	err := r.view.read(func(st *memoryState) error {
		for _, u := range st.users {
			if u.TaxID == taxID {
				u.SegmentIDs = slices.Clone(u.SegmentIDs)
				found = &u
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r memoryUsers) ExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	_, err := r.GetByTaxID(ctx, taxID)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memoryUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	var exists bool
	err := r.view.read(func(st *memoryState) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r memoryUsers) ListActiveSuppliersBySegmentNames(_ context.Context, names []string) ([]models.User, error) {
	var users []models.User
	err := r.view.read(func(st *memoryState) error {
		var segmentIDs []uuid.UUID
		for _, s := range st.segments {
			for _, name := range names {
				if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
					segmentIDs = append(segmentIDs, s.ID)
				}
			}
		}
		for _, u := range st.users {
			if u.Type == models.Supplier && u.Active && intersects(u.SegmentIDs, segmentIDs) {
				u.SegmentIDs = slices.Clone(u.SegmentIDs)
				users = append(users, u)
			}
		}
		return nil
	})
	slices.SortFunc(users, func(a, b models.User) int {
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return users, err
}

type memorySegments struct{ view memoryView }

func (r memorySegments) Create(_ context.Context, segment *models.Segment) error {
	return r.view.write(func(st *memoryState) error {
		for _, s := range st.segments {
			if strings.EqualFold(s.Name, segment.Name) {
				return fmt.Errorf("%w: segment name", ErrConflict)
			}
		}
		st.segments[segment.ID] = *segment
		return nil
	})
}

func (r memorySegments) GetByName(_ context.Context, name string) (*models.Segment, error) {
	var found *models.Segment
	err := r.view.read(func(st *memoryState) error {
		for _, s := range st.segments {
			if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
				found = &s
				return nil
			}
		}
		return ErrNotFound
	})
	return found, err
}

func (r memorySegments) ListByNames(_ context.Context, names []string) ([]models.Segment, error) {
	return r.filter(func(s models.Segment) bool {
		for _, name := range names {
			if strings.EqualFold(s.Name, strings.TrimSpace(name)) {
				return true
			}
		}
		return false
	})
}

func (r memorySegments) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	return r.filter(func(s models.Segment) bool { return slices.Contains(ids, s.ID) })
}

func (r memorySegments) ExistsByName(ctx context.Context, name string) (bool, error) {
	_, err := r.GetByName(ctx, name)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memorySegments) List(_ context.Context) ([]models.Segment, error) {
	return r.filter(func(models.Segment) bool { return true })
}

func (r memorySegments) filter(keep func(models.Segment) bool) ([]models.Segment, error) {
	var segments []models.Segment
	err := r.view.read(func(st *memoryState) error {
		for _, s := range st.segments {
			if keep(s) {
				segments = append(segments, s)
			}
		}
		return nil
	})
	sort.Slice(segments, func(i, j int) bool { return segments[i].Name < segments[j].Name })
	return segments, err
}

type memoryAuctions struct{ view memoryView }

func (r memoryAuctions) Create(_ context.Context, auction *models.Auction) error {
	return r.view.write(func(st *memoryState) error {
		if _, ok := st.auctions[auction.ID]; ok {
			return fmt.Errorf("%w: auction id", ErrConflict)
		}
		stored := *auction
		stored.SegmentIDs = slices.Clone(auction.SegmentIDs)
		st.auctions[auction.ID] = stored
		return nil
	})
}

func (r memoryAuctions) Update(_ context.Context, auction *models.Auction, from models.AuctionPhase) error {
	return r.view.write(func(st *memoryState) error {
		stored, ok := st.auctions[auction.ID]
		if !ok {
			return ErrNotFound
		}
		if stored.Phase != from {
			return fmt.Errorf("%w: auction %s is no longer %s", ErrConflict, auction.ID, from)
		}
		stored.Phase = auction.Phase
		stored.WinnerID = auction.WinnerID
		stored.ClosedAt = auction.ClosedAt
		st.auctions[auction.ID] = stored
		return nil
	})
}

func (r memoryAuctions) GetByID(_ context.Context, id uuid.UUID) (*models.Auction, error) {
	var found *models.Auction
	err := r.view.read(func(st *memoryState) error {
		a, ok := st.auctions[id]
		if !ok {
			return ErrNotFound
		}
		a.SegmentIDs = slices.Clone(a.SegmentIDs)
		found = &a
		return nil
	})
	return found, err
}

// GetByIDForUpdate совпадает с GetByID: транзакции в памяти и так выполняются по одной.
func (r memoryAuctions) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	return r.GetByID(ctx, id)
}

func (r memoryAuctions) ListByBuyer(_ context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Auction, error) {
	auctions, err := r.filter(func(a models.Auction) bool { return a.BuyerID == buyerID })
	return paginate(auctions, limit, offset), err
}

func (r memoryAuctions) ListBySegments(_ context.Context, segmentIDs []uuid.UUID, limit, offset int) ([]models.Auction, error) {
	auctions, err := r.filter(func(a models.Auction) bool { return intersects(a.SegmentIDs, segmentIDs) })
	return paginate(auctions, limit, offset), err
}

func (r memoryAuctions) ListClosedByBuyer(_ context.Context, buyerID uuid.UUID) ([]models.Auction, error) {
	return r.filter(func(a models.Auction) bool {
		return a.BuyerID == buyerID && a.Phase == models.PhaseClosed && a.ClosedAt != nil
	})
}

func (r memoryAuctions) CountByBuyerAndPhase(_ context.Context, buyerID uuid.UUID, phase models.AuctionPhase) (int, error) {
	auctions, err := r.filter(func(a models.Auction) bool { return a.BuyerID == buyerID && a.Phase == phase })
	return len(auctions), err
}

func (r memoryAuctions) CountOverdue(_ context.Context, buyerID uuid.UUID, today time.Time) (int, error) {
	auctions, err := r.filter(func(a models.Auction) bool {
		return a.BuyerID == buyerID && a.ClosingDate.Before(today) && a.Phase != models.PhaseClosed
	})
	return len(auctions), err
}

// filter возвращает подходящие аукционы, начиная с последних.
func (r memoryAuctions) filter(keep func(models.Auction) bool) ([]models.Auction, error) {
	var auctions []models.Auction
	err := r.view.read(func(st *memoryState) error {
		for _, a := range st.auctions {
			if keep(a) {
				a.SegmentIDs = slices.Clone(a.SegmentIDs)
				auctions = append(auctions, a)
			}
		}
		return nil
	})
	slices.SortFunc(auctions, func(a, b models.Auction) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return auctions, err
}

type memoryProposals struct{ view memoryView }

func (r memoryProposals) Create(_ context.Context, proposal *models.Proposal) error {
	return r.view.write(func(st *memoryState) error {
		for _, p := range st.proposals {
			if p.AuctionID == proposal.AuctionID && p.SupplierID == proposal.SupplierID && p.Phase == proposal.Phase {
				return fmt.Errorf("%w: proposal_unique_per_phase", ErrConflict)
			}
		}
		if _, ok := st.auctions[proposal.AuctionID]; !ok {
			return ErrNotFound
		}
		st.proposals[proposal.ID] = *proposal
		return nil
	})
}

func (r memoryProposals) UpdateStatus(_ context.Context, id uuid.UUID, status models.ProposalStatus) error {
	return r.view.write(func(st *memoryState) error {
		p, ok := st.proposals[id]
		if !ok {
			return ErrNotFound
		}
		if status == models.ProposalWinner {
			for _, other := range st.proposals {
				if other.AuctionID == p.AuctionID && other.ID != p.ID && other.Status == models.ProposalWinner {
					return fmt.Errorf("%w: idx_proposal_one_winner", ErrConflict)
				}
			}
		}
		p.Status = status
		st.proposals[id] = p
		return nil
	})
}

func (r memoryProposals) GetByID(_ context.Context, id uuid.UUID) (*models.Proposal, error) {
	var found *models.Proposal
	err := r.view.read(func(st *memoryState) error {
		p, ok := st.proposals[id]
		if !ok {
			return ErrNotFound
		}
		found = &p
		return nil
	})
	return found, err
}

func (r memoryProposals) GetByAuctionSupplierPhase(_ context.Context, auctionID, supplierID uuid.UUID, phase models.ProposalPhase) (*models.Proposal, error) {
	proposals, err := r.filter(func(p models.Proposal) bool {
		return p.AuctionID == auctionID && p.SupplierID == supplierID && p.Phase == phase
	})
	if err != nil {
		return nil, err
	}
	if len(proposals) == 0 {
		return nil, ErrNotFound
	}
	return &proposals[0], nil
}

func (r memoryProposals) ExistsByAuctionSupplierPhase(ctx context.Context, auctionID, supplierID uuid.UUID, phase models.ProposalPhase) (bool, error) {
	_, err := r.GetByAuctionSupplierPhase(ctx, auctionID, supplierID, phase)
	if err == ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r memoryProposals) ListByAuction(_ context.Context, auctionID uuid.UUID) ([]models.Proposal, error) {
	proposals, err := r.filter(func(p models.Proposal) bool { return p.AuctionID == auctionID })
	slices.Reverse(proposals)
	return proposals, err
}

func (r memoryProposals) ListByAuctionAndPhase(_ context.Context, auctionID uuid.UUID, phase models.ProposalPhase) ([]models.Proposal, error) {
	return r.filter(func(p models.Proposal) bool { return p.AuctionID == auctionID && p.Phase == phase })
}

func (r memoryProposals) CountByAuctionAndPhase(ctx context.Context, auctionID uuid.UUID, phase models.ProposalPhase) (int, error) {
	proposals, err := r.ListByAuctionAndPhase(ctx, auctionID, phase)
	return len(proposals), err
}

func (r memoryProposals) SumWinningAmounts(ctx context.Context, buyerID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	winners, err := r.ListWinningByBuyer(ctx, buyerID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, w := range winners {
		if !w.ClosedAt.Before(from) && w.ClosedAt.Before(to) {
			total = total.Add(w.AmountWithFee)
		}
	}
	return total, nil
}

func (r memoryProposals) ListWinningByBuyer(_ context.Context, buyerID uuid.UUID) ([]models.WinningProposal, error) {
	var winners []models.WinningProposal
	err := r.view.read(func(st *memoryState) error {
		for _, p := range st.proposals {
			if p.Status != models.ProposalWinner {
				continue
			}
			a, ok := st.auctions[p.AuctionID]
			if !ok || a.BuyerID != buyerID || a.ClosedAt == nil {
				continue
			}
			winners = append(winners, models.WinningProposal{
				ProposalID:    p.ID,
				AuctionID:     a.ID,
				AmountWithFee: p.AmountWithFee,
				ClosedAt:      *a.ClosedAt,
			})
		}
		return nil
	})
	slices.SortFunc(winners, func(a, b models.WinningProposal) int {
		return newestFirst(a.ClosedAt, b.ClosedAt, a.ProposalID, b.ProposalID)
	})
	return winners, err
}

// filter возвращает подходящие предложения в порядке создания.
func (r memoryProposals) filter(keep func(models.Proposal) bool) ([]models.Proposal, error) {
	var proposals []models.Proposal
	err := r.view.read(func(st *memoryState) error {
		for _, p := range st.proposals {
			if keep(p) {
				proposals = append(proposals, p)
			}
		}
		return nil
	})
	slices.SortFunc(proposals, func(a, b models.Proposal) int { return -newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return proposals, err
}

type memoryNotifications struct{ view memoryView }

func (r memoryNotifications) Create(_ context.Context, n *models.Notification) error {
	return r.view.write(func(st *memoryState) error {
		st.notifications[n.ID] = *n
		return nil
	})
}

func (r memoryNotifications) GetByID(_ context.Context, id uuid.UUID) (*models.Notification, error) {
	var found *models.Notification
	err := r.view.read(func(st *memoryState) error {
		n, ok := st.notifications[id]
		if !ok {
			return ErrNotFound
		}
		found = &n
		return nil
	})
	return found, err
}

func (r memoryNotifications) ListByUser(_ context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.view.read(func(st *memoryState) error {
		for _, n := range st.notifications {
			if n.UserID == userID {
				notifications = append(notifications, n)
			}
		}
		return nil
	})
	slices.SortFunc(notifications, func(a, b models.Notification) int {
		return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID)
	})
	return paginate(notifications, limit, offset), err
}

func (r memoryNotifications) CountUnread(_ context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.view.read(func(st *memoryState) error {
		for _, n := range st.notifications {
			if n.UserID == userID && !n.Read {
				count++
			}
		}
		return nil
	})
	return count, err
}

func (r memoryNotifications) MarkRead(_ context.Context, id uuid.UUID) error {
	return r.view.write(func(st *memoryState) error {
		n, ok := st.notifications[id]
		if !ok {
			return ErrNotFound
		}
		n.Read = true
		st.notifications[id] = n
		return nil
	})
}
