package repository

import (
	"context"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
)

// PostgresSegmentRepository - реализация SegmentRepository для базы данных.
type PostgresSegmentRepository struct {
	DB DBTX
}

// NewPostgresSegmentRepository создает новый экземпляр PostgresSegmentRepository.
func NewPostgresSegmentRepository(db DBTX) *PostgresSegmentRepository {
	return &PostgresSegmentRepository{DB: db}
}

// Create сохраняет новый сегмент. Имя уникально без учёта регистра.
func (r *PostgresSegmentRepository) Create(ctx context.Context, segment *models.Segment) error {
	_, err := r.DB.Exec(ctx, `INSERT INTO segment (id, name) VALUES ($1, $2)`, segment.ID, segment.Name)
	return mapError(err)
}

// GetByName ищет сегмент по имени без учёта регистра.
func (r *PostgresSegmentRepository) GetByName(ctx context.Context, name string) (*models.Segment, error) {
	var s models.Segment
	query := `SELECT id, name FROM segment WHERE LOWER(name) = LOWER($1)`
	if err := r.DB.QueryRow(ctx, query, name).Scan(&s.ID, &s.Name); err != nil {
		return nil, mapError(err)
	}
	return &s, nil
}

// ListByNames возвращает найденные сегменты по списку имён.
func (r *PostgresSegmentRepository) ListByNames(ctx context.Context, names []string) ([]models.Segment, error) {
	query := `SELECT id, name FROM segment WHERE LOWER(name) = ANY($1::text[]) ORDER BY name`
	return r.list(ctx, query, lowerArray(names))
}

// ListByIDs возвращает сегменты по идентификаторам.
func (r *PostgresSegmentRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Segment, error) {
	query := `SELECT id, name FROM segment WHERE id = ANY($1::uuid[]) ORDER BY name`
	return r.list(ctx, query, uuidArray(ids))
}

// ExistsByName проверяет, существует ли сегмент.
func (r *PostgresSegmentRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM segment WHERE LOWER(name) = LOWER($1))`
	if err := r.DB.QueryRow(ctx, query, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// List возвращает все сегменты по алфавиту.
func (r *PostgresSegmentRepository) List(ctx context.Context) ([]models.Segment, error) {
	return r.list(ctx, `SELECT id, name FROM segment ORDER BY name`)
}

func (r *PostgresSegmentRepository) list(ctx context.Context, query string, args ...any) ([]models.Segment, error) {
	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []models.Segment
	for rows.Next() {
		var s models.Segment
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, err
		}
		segments = append(segments, s)
	}
	return segments, rows.Err()
}
