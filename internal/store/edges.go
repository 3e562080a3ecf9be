package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// InsertEdge creates a new edge, assigning Key/ID if unset; CreatedAt is
// stored as given.
func (s *PostgresStore) InsertEdge(ctx context.Context, e *models.Edge) error {
	if e.Key == "" {
		e.Key = uuid.New().String()
	}
	if e.ID == "" {
		e.ID = e.Collection + "/" + e.Key
	}
	attrs, err := attributesJSON(e.Attributes)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO engine_edges
			(collection, id, key, from_id, to_id, type, valid_at, invalid_at, created_at,
			 confidence, context_confidence, rationale, invalidation_reason, invalidated_by,
			 merged_from, weight, question, answer, thinking, context_rationale, question_type, attributes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		ON CONFLICT (collection, key) DO UPDATE SET
			from_id = EXCLUDED.from_id, to_id = EXCLUDED.to_id, type = EXCLUDED.type,
			valid_at = EXCLUDED.valid_at, invalid_at = EXCLUDED.invalid_at,
			confidence = EXCLUDED.confidence, context_confidence = EXCLUDED.context_confidence,
			rationale = EXCLUDED.rationale, invalidation_reason = EXCLUDED.invalidation_reason,
			invalidated_by = EXCLUDED.invalidated_by, merged_from = EXCLUDED.merged_from,
			weight = EXCLUDED.weight, question = EXCLUDED.question, answer = EXCLUDED.answer,
			thinking = EXCLUDED.thinking, context_rationale = EXCLUDED.context_rationale,
			question_type = EXCLUDED.question_type, attributes = EXCLUDED.attributes`,
		e.Collection, e.ID, e.Key, e.From, e.To, e.Type, e.ValidAt, e.InvalidAt, e.CreatedAt,
		e.Confidence, e.ContextConfidence, e.Rationale, e.InvalidationReason, e.InvalidatedBy,
		pgTextArray(e.MergedFrom), e.Weight, e.Question, e.Answer, e.Thinking, e.ContextRationale,
		string(e.QuestionType), attrs,
	)
	if err != nil {
		return fmt.Errorf("insert edge %s/%s: %w", e.Collection, e.Key, err)
	}
	return nil
}

// GetEdge retrieves a single edge by key.
func (s *PostgresStore) GetEdge(ctx context.Context, collection, key string) (*models.Edge, error) {
	row := s.pool.QueryRow(ctx, edgeSelectColumns+` FROM engine_edges WHERE collection = $1 AND key = $2`, collection, key)
	e, err := scanEdge(row, collection)
	if err != nil {
		return nil, fmt.Errorf("get edge %s/%s: %w", collection, key, err)
	}
	return e, nil
}

// UpdateEdge writes back mutated fields of an existing edge (invalidation,
// merge, weight update). The original ValidAt/CreatedAt are never changed
// by this path except as part of an explicit merge, per the
// lifecycle rule.
func (s *PostgresStore) UpdateEdge(ctx context.Context, e *models.Edge) error {
	attrs, err := attributesJSON(e.Attributes)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		UPDATE engine_edges SET
			valid_at = $3, invalid_at = $4, confidence = $5, context_confidence = $6,
			rationale = $7, invalidation_reason = $8, invalidated_by = $9, merged_from = $10,
			weight = $11, question = $12, answer = $13, thinking = $14, context_rationale = $15,
			question_type = $16, attributes = $17
		WHERE collection = $1 AND key = $2`,
		e.Collection, e.Key, e.ValidAt, e.InvalidAt, e.Confidence, e.ContextConfidence,
		e.Rationale, e.InvalidationReason, e.InvalidatedBy, pgTextArray(e.MergedFrom),
		e.Weight, e.Question, e.Answer, e.Thinking, e.ContextRationale, string(e.QuestionType), attrs,
	)
	if err != nil {
		return fmt.Errorf("update edge %s/%s: %w", e.Collection, e.Key, err)
	}
	return nil
}

const edgeSelectColumns = `SELECT id, key, from_id, to_id, type, valid_at, invalid_at, created_at,
	confidence, context_confidence, rationale, invalidation_reason, invalidated_by, merged_from,
	weight, question, answer, thinking, context_rationale, question_type, attributes`

// ListEdges returns edges matching filter.
func (s *PostgresStore) ListEdges(ctx context.Context, filter EdgeFilter) ([]*models.Edge, error) {
	query := edgeSelectColumns + ` FROM engine_edges WHERE collection = $1`
	args := []interface{}{filter.Collection}
	argN := 2

	if filter.From != "" {
		query += fmt.Sprintf(" AND from_id = $%d", argN)
		args = append(args, filter.From)
		argN++
	}
	if filter.To != "" {
		query += fmt.Sprintf(" AND to_id = $%d", argN)
		args = append(args, filter.To)
		argN++
	}
	if filter.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argN)
		args = append(args, filter.Type)
		argN++
	}
	if !filter.IncludeInvalidated {
		query += " AND invalid_at IS NULL"
	}
	query += " ORDER BY valid_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edges in %s: %w", filter.Collection, err)
	}
	defer rows.Close()

	var edges []*models.Edge
	for rows.Next() {
		e, err := scanEdge(rows, filter.Collection)
		if err != nil {
			return nil, err
		}
		if matchesAttributeFilter(e, filter.AttributeEquals) {
			edges = append(edges, e)
		}
	}
	return edges, rows.Err()
}

// ListAllByType returns every edge of a given type regardless of endpoints,
// used by the enrichment sweep over a derived edge type.
func (s *PostgresStore) ListAllByType(ctx context.Context, collection, questionType string) ([]*models.Edge, error) {
	query := edgeSelectColumns + ` FROM engine_edges WHERE collection = $1`
	args := []interface{}{collection}
	if questionType != "" {
		query += " AND question_type = $2"
		args = append(args, questionType)
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list edges by type in %s: %w", collection, err)
	}
	defer rows.Close()

	var edges []*models.Edge
	for rows.Next() {
		e, err := scanEdge(rows, collection)
		if err != nil {
			return nil, err
		}
		edges = append(edges, e)
	}
	return edges, rows.Err()
}

func matchesAttributeFilter(e *models.Edge, want map[string]interface{}) bool {
	for k, v := range want {
		if e.Attributes == nil {
			return false
		}
		got, ok := e.Attributes[k]
		if !ok || fmt.Sprint(got) != fmt.Sprint(v) {
			return false
		}
	}
	return true
}

func scanEdge(row rowScanner, collection string) (*models.Edge, error) {
	var e models.Edge
	var mergedFrom []string
	var questionType string
	var attrsRaw []byte

	if err := row.Scan(&e.ID, &e.Key, &e.From, &e.To, &e.Type, &e.ValidAt, &e.InvalidAt, &e.CreatedAt,
		&e.Confidence, &e.ContextConfidence, &e.Rationale, &e.InvalidationReason, &e.InvalidatedBy,
		&mergedFrom, &e.Weight, &e.Question, &e.Answer, &e.Thinking, &e.ContextRationale, &questionType, &attrsRaw); err != nil {
		return nil, err
	}
	e.Collection = collection
	e.MergedFrom = mergedFrom
	e.QuestionType = models.QuestionType(questionType)
	if len(attrsRaw) > 0 {
		attrs := make(map[string]interface{})
		if err := json.Unmarshal(attrsRaw, &attrs); err == nil {
			e.Attributes = attrs
		}
	}
	return &e, nil
}
