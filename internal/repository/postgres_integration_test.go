//go:build integration

package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/senyabanana/auction-service/internal/db"
	"github.com/senyabanana/auction-service/internal/models"
	"github.com/senyabanana/auction-service/internal/router/config"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

type PostgresStoreSuite struct {
	suite.Suite
	ctx       context.Context
	container *postgres.PostgresContainer
	pool      *pgxpool.Pool
	store     *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := postgres.Run(s.ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("auctions"),
		postgres.WithUsername("auctions"),
		postgres.WithPassword("auctions"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(s.ctx, "sslmode=disable")
	s.Require().NoError(err)

	s.Require().NoError(db.RunMigrations("file://../db/migrations", dsn))

	s.pool, err = db.InitDb(s.ctx, config.Config{PostgresConn: dsn})
	s.Require().NoError(err)
	s.store = NewPostgresStore(s.pool)
}

func (s *PostgresStoreSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *PostgresStoreSuite) createUser(userType models.UserType, taxID string, segments ...uuid.UUID) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &models.User{
		ID:           uuid.New(),
		Type:         userType,
		TaxID:        taxID,
		Email:        taxID + "@example.com",
		PasswordHash: "hash",
		Name:         "User " + taxID,
		SegmentIDs:   segments,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))
	return u
}

func (s *PostgresStoreSuite) TestLifecycleRoundTrip() {
	segment := &models.Segment{ID: uuid.New(), Name: "Informática"}
	s.Require().NoError(s.store.Segments().Create(s.ctx, segment))
	s.ErrorIs(s.store.Segments().Create(s.ctx, &models.Segment{ID: uuid.New(), Name: "INFORMÁTICA"}), ErrConflict)

	buyer := s.createUser(models.Buyer, "11222333000181")
	supplier := s.createUser(models.Supplier, "52998224725", segment.ID)

	suppliers, err := s.store.Users().ListActiveSuppliersBySegmentNames(s.ctx, []string{"informática"})
	s.Require().NoError(err)
	s.Require().Len(suppliers, 1)
	s.Equal(supplier.ID, suppliers[0].ID)

	auction := &models.Auction{
		ID:          uuid.New(),
		BuyerID:     buyer.ID,
		Title:       "Servidores",
		ClosingDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		SegmentIDs:  []uuid.UUID{segment.ID},
		Phase:       models.PhaseOpen,
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.store.Auctions().Create(s.ctx, auction))

	proposal := &models.Proposal{
		ID:            uuid.New(),
		AuctionID:     auction.ID,
		SupplierID:    supplier.ID,
		Phase:         models.ProposalPhase1,
		Description:   "2 racks",
		Budget:        decimal.RequireFromString("200.00"),
		AmountWithFee: decimal.RequireFromString("220.00"),
		Status:        models.ProposalSubmitted,
		CreatedAt:     time.Now().UTC(),
	}
	s.Require().NoError(s.store.Proposals().Create(s.ctx, proposal))

	dup := *proposal
	dup.ID = uuid.New()
	s.ErrorIs(s.store.Proposals().Create(s.ctx, &dup), ErrConflict)

	closedAt := time.Now().UTC()
	err = s.store.RunInTx(s.ctx, func(tx Repositories) error {
		auction.Phase = models.PhaseClosed
		auction.WinnerID = &supplier.ID
		auction.ClosedAt = &closedAt
		if err := tx.Auctions().Update(s.ctx, auction, models.PhaseOpen); err != nil {
			return err
		}
		return tx.Proposals().UpdateStatus(s.ctx, proposal.ID, models.ProposalWinner)
	})
	s.Require().NoError(err)

	total, err := s.store.Proposals().SumWinningAmounts(s.ctx, buyer.ID, closedAt.Add(-time.Hour), closedAt.Add(time.Hour))
	s.Require().NoError(err)
	s.True(total.Equal(decimal.RequireFromString("220")), total.String())

	closed, err := s.store.Auctions().ListClosedByBuyer(s.ctx, buyer.ID)
	s.Require().NoError(err)
	s.Require().Len(closed, 1)
	s.Equal([]uuid.UUID{segment.ID}, closed[0].SegmentIDs)
}

func (s *PostgresStoreSuite) TestRunInTxRollsBack() {
	boom := errors.New("boom")

	err := s.store.RunInTx(s.ctx, func(tx Repositories) error {
		if err := tx.Segments().Create(s.ctx, &models.Segment{ID: uuid.New(), Name: "Rollback"}); err != nil {
			return err
		}
		return boom
	})
	s.ErrorIs(err, boom)

	exists, err := s.store.Segments().ExistsByName(s.ctx, "rollback")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) openAuction(buyer *models.User, suppliers ...*models.User) (*models.Auction, []*models.Proposal) {
	segment := &models.Segment{ID: uuid.New(), Name: "Segmento " + uuid.NewString()}
	s.Require().NoError(s.store.Segments().Create(s.ctx, segment))

	auction := &models.Auction{
		ID:          uuid.New(),
		BuyerID:     buyer.ID,
		Title:       "Cadeiras",
		ClosingDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		SegmentIDs:  []uuid.UUID{segment.ID},
		Phase:       models.PhaseOpen,
		CreatedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.store.Auctions().Create(s.ctx, auction))

	proposals := make([]*models.Proposal, 0, len(suppliers))
	for _, supplier := range suppliers {
		p := &models.Proposal{
			ID:            uuid.New(),
			AuctionID:     auction.ID,
			SupplierID:    supplier.ID,
			Phase:         models.ProposalPhase1,
			Budget:        decimal.RequireFromString("100.00"),
			AmountWithFee: decimal.RequireFromString("110.00"),
			Status:        models.ProposalSubmitted,
			CreatedAt:     time.Now().UTC(),
		}
		s.Require().NoError(s.store.Proposals().Create(s.ctx, p))
		proposals = append(proposals, p)
	}
	return auction, proposals
}

func (s *PostgresStoreSuite) TestConcurrentWinnerSelectionClosesOnce() {
	errClosed := errors.New("already closed")
	buyer := s.createUser(models.Buyer, "60701190000104")
	first := s.createUser(models.Supplier, "39053344705")
	second := s.createUser(models.Supplier, "71428793860")
	auction, proposals := s.openAuction(buyer, first, second)

	results := make([]error, len(proposals))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, p := range proposals {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i] = s.store.RunInTx(s.ctx, func(tx Repositories) error {
				locked, err := tx.Auctions().GetByIDForUpdate(s.ctx, auction.ID)
				if err != nil {
					return err
				}
				if locked.Phase == models.PhaseClosed {
					return errClosed
				}
				closedAt := time.Now().UTC()
				from := locked.Phase
				locked.Phase = models.PhaseClosed
				locked.WinnerID = &p.SupplierID
				locked.ClosedAt = &closedAt
				if err := tx.Auctions().Update(s.ctx, locked, from); err != nil {
					return err
				}
				return tx.Proposals().UpdateStatus(s.ctx, p.ID, models.ProposalWinner)
			})
		}()
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		s.ErrorIs(err, errClosed)
	}
	s.Equal(1, succeeded)

	got, err := s.store.Auctions().GetByID(s.ctx, auction.ID)
	s.Require().NoError(err)
	s.Equal(models.PhaseClosed, got.Phase)

	all, err := s.store.Proposals().ListByAuction(s.ctx, auction.ID)
	s.Require().NoError(err)
	winners := 0
	for _, p := range all {
		if p.Status == models.ProposalWinner {
			winners++
			s.Equal(*got.WinnerID, p.SupplierID)
		}
	}
	s.Equal(1, winners)
}

func (s *PostgresStoreSuite) TestStalePhaseUpdateConflicts() {
	buyer := s.createUser(models.Buyer, "45997418000153")
	first := s.createUser(models.Supplier, "86288366757")
	second := s.createUser(models.Supplier, "15350946056")
	auction, proposals := s.openAuction(buyer, first, second)

	closedAt := time.Now().UTC()
	closed := *auction
	closed.Phase = models.PhaseClosed
	closed.WinnerID = &first.ID
	closed.ClosedAt = &closedAt
	s.Require().NoError(s.store.Auctions().Update(s.ctx, &closed, models.PhaseOpen))
	s.Require().NoError(s.store.Proposals().UpdateStatus(s.ctx, proposals[0].ID, models.ProposalWinner))

	stale := *auction
	stale.Phase = models.PhaseSecond
	s.ErrorIs(s.store.Auctions().Update(s.ctx, &stale, models.PhaseOpen), ErrConflict)
	s.ErrorIs(s.store.Proposals().UpdateStatus(s.ctx, proposals[1].ID, models.ProposalWinner), ErrConflict)

	missing := stale
	missing.ID = uuid.New()
	s.ErrorIs(s.store.Auctions().Update(s.ctx, &missing, models.PhaseOpen), ErrNotFound)

	got, err := s.store.Auctions().GetByID(s.ctx, auction.ID)
	s.Require().NoError(err)
	s.Equal(models.PhaseClosed, got.Phase)
	s.Equal(first.ID, *got.WinnerID)
}

func (s *PostgresStoreSuite) TestEmailUniqueIgnoresCase() {
	now := time.Now().UTC().Truncate(time.Microsecond)
	u := &models.User{
		ID:           uuid.New(),
		Type:         models.Supplier,
		TaxID:        "27100508026",
		Email:        "Compras@Example.com",
		PasswordHash: "hash",
		Name:         "Compras",
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.Require().NoError(s.store.Users().Create(s.ctx, u))

	other := *u
	other.ID = uuid.New()
	other.TaxID = "59862184003"
	other.Email = "compras@example.COM"
	s.ErrorIs(s.store.Users().Create(s.ctx, &other), ErrConflict)
}

func (s *PostgresStoreSuite) TestListByBuyerWithoutLimitReturnsAll() {
	buyer := s.createUser(models.Buyer, "04252011000110")
	segment := &models.Segment{ID: uuid.New(), Name: "Mobiliário"}
	s.Require().NoError(s.store.Segments().Create(s.ctx, segment))
	createdAt := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 3; i++ {
		a := &models.Auction{
			ID:          uuid.New(),
			BuyerID:     buyer.ID,
			Title:       "Mesas",
			ClosingDate: time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
			SegmentIDs:  []uuid.UUID{segment.ID},
			Phase:       models.PhaseOpen,
			CreatedAt:   createdAt,
		}
		s.Require().NoError(s.store.Auctions().Create(s.ctx, a))
	}

	all, err := s.store.Auctions().ListByBuyer(s.ctx, buyer.ID, 0, 0)
	s.Require().NoError(err)
	s.Require().Len(all, 3)

	var paged []models.Auction
	for offset := 0; offset < len(all); offset++ {
		page, err := s.store.Auctions().ListByBuyer(s.ctx, buyer.ID, 1, offset)
		s.Require().NoError(err)
		s.Require().Len(page, 1)
		paged = append(paged, page...)
	}
	for i := range all {
		s.Equal(all[i].ID, paged[i].ID)
	}
}
