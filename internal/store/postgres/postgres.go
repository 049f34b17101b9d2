package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"posledger/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// DB is the subset of *pgxpool.Pool the store needs. pgxmock pools satisfy it
// as well.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

type Store struct {
	db DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.MaxConns = 30
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	return &Store{db: pool}, nil
}

// NewWithDB wraps an existing pool.
func NewWithDB(db DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	s.db.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return storeErr("ping", err)
	}
	return nil
}

// Migrate creates the ledger tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schemaSQL); err != nil {
		return storeErr("migrate", err)
	}
	return nil
}

// withTx runs fn inside a transaction and commits when fn returns nil.
func (s *Store) withTx(ctx context.Context, opts pgx.TxOptions, fn func(pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, opts)
	if err != nil {
		return storeErr("begin tx", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storeErr("commit tx", err)
	}
	return nil
}

// storeErr tags a driver failure as store.ErrStore while keeping the cause.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", store.ErrStore, op, err)
}

// classify maps missing rows and constraint violations onto the store error
// kinds; anything else is a store failure.
func classify(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23514":
			return store.ErrInvalidInput
		case "23503":
			return store.ErrNotFound
		}
	}
	return storeErr(op, err)
}

func nullIfEmpty(val string) any {
	if val == "" {
		return nil
	}
	return val
}
