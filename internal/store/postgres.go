package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/grahama1970/arangodb-sub000/internal/config"
	"github.com/grahama1970/arangodb-sub000/internal/logging"
)

var log = logging.For("store")

// PostgresStore implements Database on top of a pgx connection pool. Logical
// "collections" are rows sharing a collection column rather than separate
// physical tables, so creating a new collection is just recording its name.
type PostgresStore struct {
	pool        *pgxpool.Pool
	collections map[string]bool
}

// NewPostgresStore connects to PostgreSQL and ensures the engine's schema
// exists.
func NewPostgresStore(ctx context.Context, cfg *config.DatabaseConfig) (*PostgresStore, error) {
	connString := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name, cfg.SSLMode)

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		log.WithError(err).Warn("initial database ping failed, continuing")
	}

	s := &PostgresStore{pool: pool, collections: make(map[string]bool)}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run schema migrations: %w", err)
	}
	return s, nil
}

// Ping checks connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var schemaMigrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS engine_collections (
		name TEXT PRIMARY KEY,
		kind TEXT NOT NULL CHECK (kind IN ('document', 'edge')),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS engine_documents (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		key TEXT NOT NULL,
		type TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL DEFAULT '',
		tags TEXT[] NOT NULL DEFAULT '{}',
		embedding REAL[],
		embedding_model TEXT,
		embedding_dimensions INTEGER,
		embedding_created_at TIMESTAMPTZ,
		attributes JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (collection, key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_documents_collection ON engine_documents(collection)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_documents_tags ON engine_documents USING GIN(tags)`,

	`CREATE TABLE IF NOT EXISTS engine_edges (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		key TEXT NOT NULL,
		from_id TEXT NOT NULL,
		to_id TEXT NOT NULL,
		type TEXT NOT NULL,
		valid_at TIMESTAMPTZ NOT NULL,
		invalid_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL,
		confidence REAL,
		context_confidence REAL,
		rationale TEXT NOT NULL DEFAULT '',
		invalidation_reason TEXT NOT NULL DEFAULT '',
		invalidated_by TEXT NOT NULL DEFAULT '',
		merged_from TEXT[] NOT NULL DEFAULT '{}',
		weight REAL NOT NULL DEFAULT 0,
		question TEXT NOT NULL DEFAULT '',
		answer TEXT NOT NULL DEFAULT '',
		thinking TEXT NOT NULL DEFAULT '',
		context_rationale TEXT NOT NULL DEFAULT '',
		question_type TEXT NOT NULL DEFAULT '',
		attributes JSONB NOT NULL DEFAULT '{}',
		PRIMARY KEY (collection, key)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_edges_endpoints ON engine_edges(collection, from_id, to_id, type)`,
	`CREATE INDEX IF NOT EXISTS idx_engine_edges_active ON engine_edges(collection, invalid_at)`,

	`CREATE TABLE IF NOT EXISTS engine_views (
		name TEXT PRIMARY KEY,
		collection TEXT NOT NULL,
		fields JSONB NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS engine_vector_indices (
		collection TEXT NOT NULL,
		field TEXT NOT NULL,
		dimension INTEGER NOT NULL,
		metric TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (collection, field)
	)`,

	`CREATE TABLE IF NOT EXISTS engine_glossary (
		term TEXT PRIMARY KEY,
		definition TEXT NOT NULL,
		related_terms TEXT[] NOT NULL DEFAULT '{}'
	)`,
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	for _, stmt := range schemaMigrations {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed (%.60s...): %w", stmt, err)
		}
	}
	return nil
}

// Pool exposes the underlying pool for call sites that need raw SQL.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}
