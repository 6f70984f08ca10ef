package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// DBTX - общий интерфейс пула соединений и транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresRepositories struct {
	db DBTX
}

func (r postgresRepositories) Users() UserRepository {
	return NewPostgresUserRepository(r.db)
}

func (r postgresRepositories) Segments() SegmentRepository {
	return NewPostgresSegmentRepository(r.db)
}

func (r postgresRepositories) Auctions() AuctionRepository {
	return NewPostgresAuctionRepository(r.db)
}

func (r postgresRepositories) Proposals() ProposalRepository {
	return NewPostgresProposalRepository(r.db)
}

func (r postgresRepositories) Notifications() NotificationRepository {
	return NewPostgresNotificationRepository(r.db)
}

// PostgresStore - реализация Store для базы данных.
type PostgresStore struct {
	postgresRepositories
	pool *pgxpool.Pool
}

// NewPostgresStore создает новый экземпляр PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{postgresRepositories: postgresRepositories{db: pool}, pool: pool}
}

// RunInTx выполняет fn в транзакции READ COMMITTED.
func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Repositories) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(postgresRepositories{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", mapError(err))
	}
	return nil
}

// mapError переводит ошибки драйвера в ошибки хранилища.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}
