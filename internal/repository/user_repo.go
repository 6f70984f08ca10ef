package repository

import (
	"context"

	"github.com/senyabanana/auction-service/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `u.id, u.type, u.tax_id, u.email, u.password_hash, u.phone, u.name, u.postal_code, u.address, u.state,
	u.photo_url, u.active, u.created_at, u.updated_at,
	ARRAY(SELECT us.segment_id::text FROM user_segment us WHERE us.user_id = u.id ORDER BY us.segment_id)`

// PostgresUserRepository - реализация UserRepository для базы данных.
type PostgresUserRepository struct {
	DB DBTX
}

// NewPostgresUserRepository создает новый экземпляр PostgresUserRepository.
func NewPostgresUserRepository(db DBTX) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// Create сохраняет нового пользователя и его сегменты.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	insertQuery := `INSERT INTO app_user (id, type, tax_id, email, password_hash, phone, name, postal_code, address, state, photo_url, active, created_at, updated_at)
                   VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.DB.Exec(
		ctx,
		insertQuery,
		user.ID,
		user.Type,
		user.TaxID,
		user.Email,
		user.PasswordHash,
		user.Phone,
		user.Name,
		user.PostalCode,
		user.Address,
		user.State,
		user.PhotoURL,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	return r.replaceSegments(ctx, user.ID, user.SegmentIDs)
}

// Update меняет данные профиля и заменяет набор сегментов.
func (r *PostgresUserRepository) Update(ctx context.Context, user *models.User) error {
	updateQuery := `
		UPDATE app_user
		SET email = $2, phone = $3, name = $4, postal_code = $5, address = $6, state = $7, photo_url = $8, active = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.DB.Exec(
		ctx,
		updateQuery,
		user.ID,
		user.Email,
		user.Phone,
		user.Name,
		user.PostalCode,
		user.Address,
		user.State,
		user.PhotoURL,
		user.Active,
		user.UpdatedAt)
	if err != nil {
		return mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return r.replaceSegments(ctx, user.ID, user.SegmentIDs)
}

// GetByID возвращает пользователя по идентификатору.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user u WHERE u.id = $1`
	user, err := scanUser(r.DB.QueryRow(ctx, query, id))
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// GetByTaxID возвращает пользователя по CPF/CNPJ.
func (r *PostgresUserRepository) GetByTaxID(ctx context.Context, taxID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM app_user u WHERE u.tax_id = $1`
	user, err := scanUser(r.DB.QueryRow(ctx, query, taxID))
	if err != nil {
		return nil, mapError(err)
	}
	return user, nil
}

// ExistsByTaxID проверяет, зарегистрирован ли CPF/CNPJ.
func (r *PostgresUserRepository) ExistsByTaxID(ctx context.Context, taxID string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM app_user WHERE tax_id = $1)`, taxID).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ExistsByEmail проверяет, зарегистрирован ли email.
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.DB.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM app_user WHERE LOWER(email) = LOWER($1))`, email).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListActiveSuppliersBySegmentNames возвращает активных поставщиков хотя бы из одного сегмента.
func (r *PostgresUserRepository) ListActiveSuppliersBySegmentNames(ctx context.Context, names []string) ([]models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM app_user u
		WHERE u.type = $1 AND u.active AND EXISTS (
			SELECT 1
			FROM user_segment us
			JOIN segment s ON s.id = us.segment_id
			WHERE us.user_id = u.id AND LOWER(s.name) = ANY($2::text[])
		)
		ORDER BY u.name, u.id`
	rows, err := r.DB.Query(ctx, query, models.Supplier, lowerArray(names))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *PostgresUserRepository) replaceSegments(ctx context.Context, userID uuid.UUID, segmentIDs []uuid.UUID) error {
	if _, err := r.DB.Exec(ctx, `DELETE FROM user_segment WHERE user_id = $1`, userID); err != nil {
		return err
	}
	if len(segmentIDs) == 0 {
		return nil
	}
	query := `INSERT INTO user_segment (user_id, segment_id) SELECT $1, UNNEST($2::uuid[])`
	_, err := r.DB.Exec(ctx, query, userID, uuidArray(segmentIDs))
	return mapError(err)
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var segmentIDs []string
	err := row.Scan(
		&u.ID,
		&u.Type,
		&u.TaxID,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Name,
		&u.PostalCode,
		&u.Address,
		&u.State,
		&u.PhotoURL,
		&u.Active,
		&u.CreatedAt,
		&u.UpdatedAt,
		&segmentIDs)
	if err != nil {
		return nil, err
	}
	if u.SegmentIDs, err = parseUUIDs(segmentIDs); err != nil {
		return nil, err
	}
	return &u, nil
}
