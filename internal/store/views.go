package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// HasView reports whether a named search view is registered.
func (s *PostgresStore) HasView(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM engine_views WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check view %s: %w", name, err)
	}
	return exists, nil
}

// CreateView registers a new search view.
func (s *PostgresStore) CreateView(ctx context.Context, view *models.SearchView) error {
	fields, err := json.Marshal(view.Fields)
	if err != nil {
		return fmt.Errorf("marshal view fields: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO engine_views (name, collection, fields) VALUES ($1, $2, $3)
		ON CONFLICT (name) DO UPDATE SET collection = EXCLUDED.collection, fields = EXCLUDED.fields`,
		view.Name, view.Collection, fields)
	if err != nil {
		return fmt.Errorf("create view %s: %w", view.Name, err)
	}
	return nil
}

// UpdateView persists an updated field set for an existing view; identical
// in effect to CreateView since the registry is upserted either way
// (ArangoSearch's own update_view call is similarly idempotent).
func (s *PostgresStore) UpdateView(ctx context.Context, view *models.SearchView) error {
	return s.CreateView(ctx, view)
}

// GetView loads a view's current field registration.
func (s *PostgresStore) GetView(ctx context.Context, name string) (*models.SearchView, error) {
	var v models.SearchView
	var fieldsRaw []byte
	err := s.pool.QueryRow(ctx, `SELECT name, collection, fields FROM engine_views WHERE name = $1`, name).
		Scan(&v.Name, &v.Collection, &fieldsRaw)
	if err != nil {
		return nil, fmt.Errorf("get view %s: %w", name, err)
	}
	v.Fields = make(map[string]string)
	if len(fieldsRaw) > 0 {
		_ = json.Unmarshal(fieldsRaw, &v.Fields)
	}
	return &v, nil
}

// HasVectorIndex reports whether (collection, field) has a recorded vector
// index.
func (s *PostgresStore) HasVectorIndex(ctx context.Context, collection, field string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM engine_vector_indices WHERE collection = $1 AND field = $2)`,
		collection, field).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check vector index %s.%s: %w", collection, field, err)
	}
	return exists, nil
}

// RecordVectorIndex registers that a vector index now exists for
// (collection, field); idempotent.
func (s *PostgresStore) RecordVectorIndex(ctx context.Context, collection, field string, dimension int, metric string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_vector_indices (collection, field, dimension, metric) VALUES ($1,$2,$3,$4)
		ON CONFLICT (collection, field) DO UPDATE SET dimension = EXCLUDED.dimension, metric = EXCLUDED.metric`,
		collection, field, dimension, metric)
	if err != nil {
		return fmt.Errorf("record vector index %s.%s: %w", collection, field, err)
	}
	return nil
}
