// File: internal/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scalpel-locator/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	sqlCreateTable = `
        CREATE TABLE IF NOT EXISTS selectors (
            name       TEXT PRIMARY KEY,
            data       JSONB NOT NULL,
            created_at TIMESTAMPTZ NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL
        );
    `
	sqlUpsert = `
        INSERT INTO selectors (name, data, created_at, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (name) DO UPDATE SET
            data = EXCLUDED.data,
            updated_at = EXCLUDED.updated_at;
    `
	sqlLoad   = `SELECT data, created_at, updated_at FROM selectors WHERE name = $1;`
	sqlList   = `SELECT name, data, created_at, updated_at FROM selectors ORDER BY name ASC;`
	sqlDelete = `DELETE FROM selectors WHERE name = $1;`
)

// Store provides a PostgreSQL implementation of the Repository interface.
// Selectors are kept as JSONB documents keyed by name.
type Store struct {
	pool DBPool
	log  *zap.Logger
	now  func() time.Time
}

var _ Repository = (*Store)(nil)

// New creates a new store instance and verifies the connection.
func New(ctx context.Context, pool DBPool, logger *zap.Logger) (*Store, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{
		pool: pool,
		log:  logger.Named("store"),
		now:  time.Now,
	}, nil
}

// Migrate creates the selectors table when it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, sqlCreateTable); err != nil {
		return fmt.Errorf("failed to create selectors table: %w", err)
	}
	return nil
}

// Save inserts or replaces the selector stored under sel.Name. The creation
// time of an existing row is kept.
func (s *Store) Save(ctx context.Context, sel *SavedSelector) error {
	if err := ValidateName(sel.Name); err != nil {
		return err
	}
	data, err := schemas.Encode(sel.Selector)
	if err != nil {
		return fmt.Errorf("failed to encode selector: %w", err)
	}
	stamp(sel, s.now())

	if _, err := s.pool.Exec(ctx, sqlUpsert, sel.Name, data, sel.CreatedAt, sel.UpdatedAt); err != nil {
		return fmt.Errorf("failed to save selector %q: %w", sel.Name, err)
	}
	s.log.Debug("Saved selector.", zap.String("name", sel.Name), zap.Int("links", len(sel.Selector.Nodes)))
	return nil
}

// Load returns the selector stored under name, or ErrNotFound.
func (s *Store) Load(ctx context.Context, name string) (*SavedSelector, error) {
	var (
		data []byte
		sel  = SavedSelector{Name: name}
	)
	err := s.pool.QueryRow(ctx, sqlLoad, name).Scan(&data, &sel.CreatedAt, &sel.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load selector %q: %w", name, err)
	}
	if sel.Selector, err = decode(name, data); err != nil {
		return nil, err
	}
	return &sel, nil
}

// List returns every stored selector ordered by name.
func (s *Store) List(ctx context.Context) ([]SavedSelector, error) {
	rows, err := s.pool.Query(ctx, sqlList)
	if err != nil {
		return nil, fmt.Errorf("failed to query selectors: %w", err)
	}
	defer rows.Close()

	var out []SavedSelector
	for rows.Next() {
		var (
			sel  SavedSelector
			data []byte
		)
		if err := rows.Scan(&sel.Name, &data, &sel.CreatedAt, &sel.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan selector row: %w", err)
		}
		if sel.Selector, err = decode(sel.Name, data); err != nil {
			// A single corrupt row should not hide the others.
			s.log.Warn("Skipping undecodable selector.", zap.String("name", sel.Name), zap.Error(err))
			continue
		}
		out = append(out, sel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}
	return out, nil
}

// Delete removes the selector stored under name, or returns ErrNotFound.
func (s *Store) Delete(ctx context.Context, name string) error {
	tag, err := s.pool.Exec(ctx, sqlDelete, name)
	if err != nil {
		return fmt.Errorf("failed to delete selector %q: %w", name, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
