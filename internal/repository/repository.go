package repository

import (
	"context"
	"errors"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ошибки хранилища. Сервисы переводят их в доменные ошибки.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)

// UserRepository - интерфейс для работы с пользователями.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByTaxID(ctx context.Context, taxID string) (*models.User, error)
	ExistsByTaxID(ctx context.Context, taxID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ListActiveSuppliersBySegmentNames(ctx context.Context, names []string) ([]models.User, error)
}

// SegmentRepository - интерфейс для работы с сегментами.
type SegmentRepository interface {
	Create(ctx context.Context, segment *models.Segment) error
	GetByName(ctx context.Context, name string) (*models.Segment, error)
	ListByNames(ctx context.Context, names []string) ([]models.Segment, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	List(ctx context.Context) ([]models.Segment, error)
}

// AuctionRepository - интерфейс для работы с аукционами.
type AuctionRepository interface {
	Create(ctx context.Context, auction *models.Auction) error
	// Update применяется, только если аукцион всё ещё в фазе from. Иначе ErrConflict.
	Update(ctx context.Context, auction *models.Auction, from models.AuctionPhase) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	// GetByIDForUpdate блокирует аукцион до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Auction, error)
	// limit <= 0 означает "без ограничения".
	ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Auction, error)
	ListBySegments(ctx context.Context, segmentIDs []uuid.UUID, limit, offset int) ([]models.Auction, error)
	ListClosedByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Auction, error)
	CountByBuyerAndPhase(ctx context.Context, buyerID uuid.UUID, phase models.AuctionPhase) (int, error)
	CountOverdue(ctx context.Context, buyerID uuid.UUID, today time.Time) (int, error)
}

// ProposalRepository - интерфейс для работы с предложениями.
type ProposalRepository interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error)
	GetByAuctionSupplierPhase(ctx context.Context, auctionID, supplierID uuid.UUID, phase models.ProposalPhase) (*models.Proposal, error)
	ExistsByAuctionSupplierPhase(ctx context.Context, auctionID, supplierID uuid.UUID, phase models.ProposalPhase) (bool, error)
	ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Proposal, error)
	ListByAuctionAndPhase(ctx context.Context, auctionID uuid.UUID, phase models.ProposalPhase) ([]models.Proposal, error)
	CountByAuctionAndPhase(ctx context.Context, auctionID uuid.UUID, phase models.ProposalPhase) (int, error)
	SumWinningAmounts(ctx context.Context, buyerID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	ListWinningByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.WinningProposal, error)
}

// NotificationRepository - интерфейс для работы с уведомлениями.
type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id uuid.UUID) error
}

// Repositories объединяет репозитории, работающие поверх одного соединения или транзакции.
type Repositories interface {
	Users() UserRepository
	Segments() SegmentRepository
	Auctions() AuctionRepository
	Proposals() ProposalRepository
	Notifications() NotificationRepository
}

// Store - хранилище с транзакционной границей. fn выполняется атомарно:
// все изменения фиксируются только если fn вернула nil.
type Store interface {
	Repositories
	RunInTx(ctx context.Context, fn func(tx Repositories) error) error
}
