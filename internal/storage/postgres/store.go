package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Salisuili/rest-frontend/pkg/database"
	apperrors "github.com/Salisuili/rest-frontend/pkg/errors"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Migrations returns the schema migrations for the client_state table.
func Migrations() fs.FS {
	sub, err := fs.Sub(migrationFS, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

const (
	getSQL = `SELECT value FROM client_state
		WHERE key = $1 AND (expires_at IS NULL OR expires_at > NOW())`
	setSQL = `INSERT INTO client_state (key, value, expires_at, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at, updated_at = NOW()`
	deleteSQL = `DELETE FROM client_state WHERE key = $1`
)

// Store implements storage.Store on a PostgreSQL client_state table, for
// terminals that share state through one database.
type Store struct {
	db     database.DBTX
	ttl    time.Duration
	tracer *database.QueryTracer
	closer func()
}

// New creates a PostgreSQL-backed store. closer, if non-nil, is called by
// Close to release the pool.
func New(db database.DBTX, ttl time.Duration, logger *slog.Logger, closer func()) *Store {
	return &Store{
		db:     db,
		ttl:    ttl,
		tracer: database.NewQueryTracer("postgresql", 200*time.Millisecond, logger),
		closer: closer,
	}
}

func (s *Store) Get(ctx context.Context, key string) (value []byte, err error) {
	ctx, end := s.tracer.Start(ctx, "GetState", getSQL)
	defer func() { end(err) }()

	if err = s.db.QueryRow(ctx, getSQL, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("key", key)
		}
		return nil, fmt.Errorf("get state %s: %w", key, err)
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) (err error) {
	ctx, end := s.tracer.Start(ctx, "SetState", setSQL)
	defer func() { end(err) }()

	var expiresAt *time.Time
	if s.ttl > 0 {
		t := time.Now().UTC().Add(s.ttl)
		expiresAt = &t
	}
	if _, err = s.db.Exec(ctx, setSQL, key, value, expiresAt); err != nil {
		return fmt.Errorf("set state %s: %w", key, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) (err error) {
	ctx, end := s.tracer.Start(ctx, "DeleteState", deleteSQL)
	defer func() { end(err) }()

	if _, err = s.db.Exec(ctx, deleteSQL, key); err != nil {
		return fmt.Errorf("delete state %s: %w", key, err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() error {
	if s.closer != nil {
		s.closer()
	}
	return nil
}
