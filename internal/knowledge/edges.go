// Package knowledge implements the bi-temporal edge store, contradiction
// engine, and edge enricher.
package knowledge

import (
	"context"
	"fmt"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var edgeLog = logging.For("knowledge")

// CreateEdgeInput carries the fields an edge requires at creation; valid_at
// and created_at must be set by the caller, invalid_at always starts nil.
type CreateEdgeInput struct {
	Collection string
	From       string
	To         string
	Type       string
	ValidAt    time.Time
	CreatedAt  time.Time

	Confidence        *float32
	ContextConfidence *float32
	Rationale         string
	Attributes        map[string]interface{}
}

// CreateEdge inserts a new Active edge (invalid_at = null).
func CreateEdge(ctx context.Context, db store.EdgeStore, key string, in CreateEdgeInput) (*models.Edge, error) {
	e := &models.Edge{
		Key:               key,
		Collection:        in.Collection,
		From:              in.From,
		To:                in.To,
		Type:              in.Type,
		ValidAt:           in.ValidAt,
		CreatedAt:         in.CreatedAt,
		Confidence:        in.Confidence,
		ContextConfidence: in.ContextConfidence,
		Rationale:         in.Rationale,
		Attributes:        in.Attributes,
	}
	if err := db.InsertEdge(ctx, e); err != nil {
		return nil, fmt.Errorf("create edge %s/%s: %w", in.Collection, key, err)
	}
	return e, nil
}

// InvalidateEdge transitions an Active edge to Invalidated, mutating only
// invalid_at/invalidation_reason/invalidated_by — the state machine's only
// forward transition besides a merge rewrite. Invalidating an edge that
// already carries an invalidation (a reason or invalidated_by) is a no-op:
// its original invalid_at is left unchanged (invalidation idempotence). An
// edge whose invalid_at was set when it was created, with no invalidation
// recorded, is closed at invalidAt.
func InvalidateEdge(ctx context.Context, db store.EdgeStore, collection, key string, invalidAt time.Time, reason, invalidatedBy string) (*models.Edge, error) {
	e, err := db.GetEdge(ctx, collection, key)
	if err != nil {
		return nil, fmt.Errorf("invalidate edge %s/%s: %w", collection, key, err)
	}
	if e.InvalidAt != nil && (e.InvalidationReason != "" || e.InvalidatedBy != "") {
		return e, nil
	}
	e.InvalidAt = &invalidAt
	e.InvalidationReason = reason
	e.InvalidatedBy = invalidatedBy
	if err := db.UpdateEdge(ctx, e); err != nil {
		return nil, fmt.Errorf("invalidate edge %s/%s: %w", collection, key, err)
	}
	edgeLog.WithField("collection", collection).WithField("key", key).WithField("reason", reason).Debug("edge invalidated")
	return e, nil
}

// DetectContradictingEdges returns edges sharing (from, to, type) with
// new_edge, optionally filtered by attribute equality, excluding invalidated
// edges unless includeInvalidated is set.
func DetectContradictingEdges(ctx context.Context, db store.EdgeStore, collection, from, to, edgeType string, attributeFilter map[string]interface{}, includeInvalidated bool) ([]*models.Edge, error) {
	edges, err := db.ListEdges(ctx, store.EdgeFilter{
		Collection:         collection,
		From:               from,
		To:                 to,
		Type:               edgeType,
		IncludeInvalidated: includeInvalidated,
		AttributeEquals:    attributeFilter,
	})
	if err != nil {
		return nil, fmt.Errorf("detect contradicting edges in %s: %w", collection, err)
	}
	return edges, nil
}

// DetectTemporalContradictions narrows candidates (already matched on
// endpoints/type) to those whose validity interval overlaps newEdge's,
// skipping any key in excludeKeys.
func DetectTemporalContradictions(newEdge *models.Edge, candidates []*models.Edge, excludeKeys map[string]bool) []*models.Edge {
	var out []*models.Edge
	for _, c := range candidates {
		if excludeKeys[c.Key] || c.Key == newEdge.Key {
			continue
		}
		if newEdge.Overlaps(c) {
			out = append(out, c)
		}
	}
	return out
}
