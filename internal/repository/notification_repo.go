package repository

import (
	"context"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
)

// PostgresNotificationRepository - реализация NotificationRepository для базы данных.
type PostgresNotificationRepository struct {
	DB DBTX
}

// NewPostgresNotificationRepository создает новый экземпляр PostgresNotificationRepository.
func NewPostgresNotificationRepository(db DBTX) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{DB: db}
}

// Create сохраняет уведомление.
func (r *PostgresNotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	insertQuery := `INSERT INTO notification (id, user_id, auction_id, type, message, read, created_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.DB.Exec(ctx, insertQuery, n.ID, n.UserID, n.AuctionID, n.Type, n.Message, n.Read, n.CreatedAt)
	return mapError(err)
}

// GetByID возвращает уведомление по идентификатору.
func (r *PostgresNotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	query := `SELECT id, user_id, auction_id, type, message, read, created_at FROM notification WHERE id = $1`
	err := r.DB.QueryRow(ctx, query, id).Scan(&n.ID, &n.UserID, &n.AuctionID, &n.Type, &n.Message, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &n, nil
}

// ListByUser возвращает уведомления пользователя, начиная с последних.
func (r *PostgresNotificationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Notification, error) {
	query := `
		SELECT id, user_id, auction_id, type, message, read, created_at
		FROM notification
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.DB.Query(ctx, query, userID, limitArg(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.AuctionID, &n.Type, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread считает непрочитанные уведомления пользователя.
func (r *PostgresNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.DB.QueryRow(ctx, `SELECT COUNT(*) FROM notification WHERE user_id = $1 AND NOT read`, userID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// MarkRead отмечает уведомление прочитанным.
func (r *PostgresNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.DB.Exec(ctx, `UPDATE notification SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
