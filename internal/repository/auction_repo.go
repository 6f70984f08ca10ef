package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const auctionColumns = `a.id, a.buyer_id, a.title, a.description, a.closing_date, a.phase, a.winner_id, a.created_at, a.closed_at,
	ARRAY(SELECT s.segment_id::text FROM auction_segment s WHERE s.auction_id = a.id ORDER BY s.segment_id)`

// PostgresAuctionRepository - реализация AuctionRepository для базы данных.
type PostgresAuctionRepository struct {
	DB DBTX
}

// NewPostgresAuctionRepository создает новый экземпляр PostgresAuctionRepository.
func NewPostgresAuctionRepository(db DBTX) *PostgresAuctionRepository {
	return &PostgresAuctionRepository{DB: db}
}

// Create сохраняет новый аукцион вместе с его сегментами.
func (r *PostgresAuctionRepository) Create(ctx context.Context, auction *models.Auction) error {
	insertQuery := `INSERT INTO auction (id, buyer_id, title, description, closing_date, phase, winner_id, created_at, closed_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		auction.ID,
		auction.BuyerID,
		auction.Title,
		auction.Description,
		auction.ClosingDate,
		auction.Phase,
		auction.WinnerID,
		auction.CreatedAt,
		auction.ClosedAt)
	if err != nil {
		return mapError(err)
	}

	segmentQuery := `INSERT INTO auction_segment (auction_id, segment_id) SELECT $1, UNNEST($2::uuid[])`
	if _, err = r.DB.Exec(ctx, segmentQuery, auction.ID, uuidArray(auction.SegmentIDs)); err != nil {
		return mapError(err)
	}
	return nil
}

// Update сохраняет фазу, победителя и время закрытия аукциона, если его фаза всё ещё from.
func (r *PostgresAuctionRepository) Update(ctx context.Context, auction *models.Auction, from models.AuctionPhase) error {
	updateQuery := `UPDATE auction SET phase = $2, winner_id = $3, closed_at = $4 WHERE id = $1 AND phase = $5`
	tag, err := r.DB.Exec(ctx, updateQuery, auction.ID, auction.Phase, auction.WinnerID, auction.ClosedAt, from)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	if err := r.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM auction WHERE id = $1)`, auction.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return fmt.Errorf("%w: auction %s is no longer %s", ErrConflict, auction.ID, from)
}

// GetByID возвращает аукцион по идентификатору.
func (r *PostgresAuctionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auction a WHERE a.id = $1`
	auction, err := scanAuction(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return auction, nil
}

// GetByIDForUpdate возвращает аукцион и блокирует его строку до конца транзакции.
func (r *PostgresAuctionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*models.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auction a WHERE a.id = $1 FOR UPDATE OF a`
	auction, err := scanAuction(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return auction, nil
}

// ListByBuyer возвращает аукционы заказчика, начиная с последних.
func (r *PostgresAuctionRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID, limit, offset int) ([]models.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auction a
		WHERE a.buyer_id = $1
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, buyerID, limitArg(limit), offset)
}

// ListBySegments возвращает аукционы, относящиеся хотя бы к одному из сегментов.
func (r *PostgresAuctionRepository) ListBySegments(ctx context.Context, segmentIDs []uuid.UUID, limit, offset int) ([]models.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auction a
		WHERE EXISTS (
			SELECT 1 FROM auction_segment s
			WHERE s.auction_id = a.id AND s.segment_id = ANY($1::uuid[])
		)
		ORDER BY a.created_at DESC, a.id DESC
		LIMIT $2 OFFSET $3`
	return r.list(ctx, query, uuidArray(segmentIDs), limitArg(limit), offset)
}

// ListClosedByBuyer возвращает закрытые аукционы заказчика с известным временем закрытия.
func (r *PostgresAuctionRepository) ListClosedByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Auction, error) {
	query := `
		SELECT ` + auctionColumns + `
		FROM auction a
		WHERE a.buyer_id = $1 AND a.phase = $2 AND a.closed_at IS NOT NULL
		ORDER BY a.closed_at DESC, a.id DESC`
	return r.list(ctx, query, buyerID, models.PhaseClosed)
}

// CountByBuyerAndPhase считает аукционы заказчика в заданной фазе.
func (r *PostgresAuctionRepository) CountByBuyerAndPhase(ctx context.Context, buyerID uuid.UUID, phase models.AuctionPhase) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM auction WHERE buyer_id = $1 AND phase = $2`
	if err := r.DB.QueryRow(ctx, query, buyerID, phase).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// CountOverdue считает незакрытые аукционы с датой закрытия раньше today.
func (r *PostgresAuctionRepository) CountOverdue(ctx context.Context, buyerID uuid.UUID, today time.Time) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM auction WHERE buyer_id = $1 AND closing_date < $2 AND phase <> $3`
	if err := r.DB.QueryRow(ctx, query, buyerID, today, models.PhaseClosed).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PostgresAuctionRepository) list(ctx context.Context, query string, args ...any) ([]models.Auction, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var auctions []models.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, err
		}
		auctions = append(auctions, *auction)
	}
	return auctions, rows.Err()
}

func scanAuction(row pgx.Row) (*models.Auction, error) {
	var auction models.Auction
	var segmentIDs []string
	err := row.Scan(
		&auction.ID,
		&auction.BuyerID,
		&auction.Title,
		&auction.Description,
		&auction.ClosingDate,
		&auction.Phase,
		&auction.WinnerID,
		&auction.CreatedAt,
		&auction.ClosedAt,
		&segmentIDs)
	if err != nil {
		return nil, err
	}
	if auction.SegmentIDs, err = parseUUIDs(segmentIDs); err != nil {
		return nil, err
	}
	return &auction, nil
}
