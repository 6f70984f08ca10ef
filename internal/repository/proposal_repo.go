package repository

import (
	"context"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const proposalColumns = `p.id, p.auction_id, p.supplier_id, p.phase, p.description, p.budget, p.amount_with_fee, p.status, p.created_at`

// PostgresProposalRepository - реализация ProposalRepository для базы данных.
type PostgresProposalRepository struct {
	DB DBTX
}

// NewPostgresProposalRepository создает новый экземпляр PostgresProposalRepository.
func NewPostgresProposalRepository(db DBTX) *PostgresProposalRepository {
	return &PostgresProposalRepository{DB: db}
}

// Create сохраняет новое предложение. Повтор (аукцион, поставщик, фаза) возвращает ErrConflict.
func (r *PostgresProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	insertQuery := `INSERT INTO proposal (id, auction_id, supplier_id, phase, description, budget, amount_with_fee, status, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		proposal.ID,
		proposal.AuctionID,
		proposal.SupplierID,
		proposal.Phase,
		proposal.Description,
		proposal.Budget,
		proposal.AmountWithFee,
		proposal.Status,
		proposal.CreatedAt)
	return mapError(err)
}

// UpdateStatus меняет статус предложения.
func (r *PostgresProposalRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.ProposalStatus) error {
	tag, err := r.DB.Exec(ctx, `UPDATE proposal SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID возвращает предложение по идентификатору.
func (r *PostgresProposalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal p WHERE p.id = $1`
	proposal, err := scanProposal(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return proposal, nil
}

// GetByAuctionSupplierPhase возвращает предложение поставщика в заданной фазе аукциона.
func (r *PostgresProposalRepository) GetByAuctionSupplierPhase(ctx context.Context, auctionID, supplierID uuid.UUID, phase models.ProposalPhase) (*models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal p WHERE p.auction_id = $1 AND p.supplier_id = $2 AND p.phase = $3`
	proposal, err := scanProposal(r.DB.QueryRow(ctx, query, auctionID, supplierID, phase))
	if err != nil {
		return nil, mapError(err)
	}
	return proposal, nil
}

// ExistsByAuctionSupplierPhase проверяет, подавал ли поставщик предложение в этой фазе.
func (r *PostgresProposalRepository) ExistsByAuctionSupplierPhase(ctx context.Context, auctionID, supplierID uuid.UUID, phase models.ProposalPhase) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM proposal WHERE auction_id = $1 AND supplier_id = $2 AND phase = $3)`
	if err := r.DB.QueryRow(ctx, query, auctionID, supplierID, phase).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// ListByAuction возвращает все предложения аукциона, начиная с последних.
func (r *PostgresProposalRepository) ListByAuction(ctx context.Context, auctionID uuid.UUID) ([]models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal p WHERE p.auction_id = $1 ORDER BY p.created_at DESC, p.id DESC`
	return r.list(ctx, query, auctionID)
}

// ListByAuctionAndPhase возвращает предложения аукциона в заданной фазе.
func (r *PostgresProposalRepository) ListByAuctionAndPhase(ctx context.Context, auctionID uuid.UUID, phase models.ProposalPhase) ([]models.Proposal, error) {
	query := `SELECT ` + proposalColumns + ` FROM proposal p WHERE p.auction_id = $1 AND p.phase = $2 ORDER BY p.created_at, p.id`
	return r.list(ctx, query, auctionID, phase)
}

// CountByAuctionAndPhase считает предложения аукциона в заданной фазе.
func (r *PostgresProposalRepository) CountByAuctionAndPhase(ctx context.Context, auctionID uuid.UUID, phase models.ProposalPhase) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM proposal WHERE auction_id = $1 AND phase = $2`
	if err := r.DB.QueryRow(ctx, query, auctionID, phase).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// SumWinningAmounts суммирует выигравшие предложения заказчика, аукционы которых закрыты в [from, to).
func (r *PostgresProposalRepository) SumWinningAmounts(ctx context.Context, buyerID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var total decimal.Decimal
	query := `
		SELECT COALESCE(SUM(p.amount_with_fee), 0)
		FROM proposal p
		JOIN auction a ON a.id = p.auction_id
		WHERE p.status = $1 AND a.buyer_id = $2 AND a.closed_at >= $3 AND a.closed_at < $4`
	if err := r.DB.QueryRow(ctx, query, models.ProposalWinner, buyerID, from, to).Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

// ListWinningByBuyer возвращает все выигравшие предложения заказчика с датой закрытия аукциона.
func (r *PostgresProposalRepository) ListWinningByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.WinningProposal, error) {
	query := `
		SELECT p.id, p.auction_id, p.amount_with_fee, a.closed_at
		FROM proposal p
		JOIN auction a ON a.id = p.auction_id
		WHERE p.status = $1 AND a.buyer_id = $2 AND a.closed_at IS NOT NULL
		ORDER BY a.closed_at DESC, p.id DESC`
	rows, err := r.DB.Query(ctx, query, models.ProposalWinner, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var winners []models.WinningProposal
	for rows.Next() {
		var w models.WinningProposal
		if err := rows.Scan(&w.ProposalID, &w.AuctionID, &w.AmountWithFee, &w.ClosedAt); err != nil {
			return nil, err
		}
		winners = append(winners, w)
	}
	return winners, rows.Err()
}

func (r *PostgresProposalRepository) list(ctx context.Context, query string, args ...any) ([]models.Proposal, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var proposals []models.Proposal
	for rows.Next() {
		proposal, err := scanProposal(rows)
		if err != nil {
			return nil, err
		}
		proposals = append(proposals, *proposal)
	}
	return proposals, rows.Err()
}

func scanProposal(row pgx.Row) (*models.Proposal, error) {
	var p models.Proposal
	err := row.Scan(
		&p.ID,
		&p.AuctionID,
		&p.SupplierID,
		&p.Phase,
		&p.Description,
		&p.Budget,
		&p.AmountWithFee,
		&p.Status,
		&p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
