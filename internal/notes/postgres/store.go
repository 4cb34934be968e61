// Package postgres stores clip notes as rows in Postgres.
package postgres

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JakeFAU/webclipper/internal/clip"
	"github.com/JakeFAU/webclipper/internal/notes"
)

var validTableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Config controls the connection pool and how note URLs are formed.
type Config struct {
	DSN             string
	Table           string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	// NoteURLBase prefixes the row id to form the returned note URL.
	NoteURLBase string
}

type queryCloser interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// Store implements notes.Store. Expected schema:
//
//	CREATE TABLE clips (
//		id           UUID PRIMARY KEY DEFAULT gen_random_uuid(),
//		title        TEXT NOT NULL,
//		original_url TEXT,
//		snapshot_url TEXT NOT NULL,
//		summary      TEXT NOT NULL,
//		tags         TEXT[] NOT NULL,
//		created_at   TIMESTAMPTZ NOT NULL
//	);
type Store struct {
	pool    queryCloser
	table   string
	urlBase string
}

// New connects a pool using cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("notes.postgres.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	store, err := NewWithPool(pool, cfg.Table, cfg.NoteURLBase)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return store, nil
}

// NewWithPool constructs a store from an existing pool (primarily for testing).
func NewWithPool(pool queryCloser, table, urlBase string) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if table == "" {
		table = "clips"
	}
	if !validTableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if urlBase == "" {
		urlBase = "urn:webclipper:clip:"
	} else if !strings.HasSuffix(urlBase, "/") && !strings.HasSuffix(urlBase, ":") {
		urlBase += "/"
	}
	return &Store{pool: pool, table: table, urlBase: urlBase}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// CreateNote inserts a row and returns a URL built from its id.
func (s *Store) CreateNote(ctx context.Context, payload notes.Payload) (string, error) {
	created, err := payload.CreatedTime()
	if err != nil {
		return "", fmt.Errorf("parse created: %w", err)
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	title,
	original_url,
	snapshot_url,
	summary,
	tags,
	created_at
) VALUES (
	$1,$2,$3,$4,$5,$6
) RETURNING id::text`, s.table)

	var id string
	err = s.pool.QueryRow(ctx, query,
		payload.Title,
		payload.OriginalURL,
		payload.SnapshotURL,
		payload.Summary,
		payload.Tags,
		created,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: insert clip: %w", clip.ErrTransient, err)
	}
	return s.urlBase + id, nil
}
