package knowledge

import (
	"context"
	"fmt"

	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var enrichLog = logging.For("enrich")

// MemoryViewName is the shared main view every derived edge collection
// registers into, alongside its own dedicated view.
const MemoryViewName = "memory_view"

var edgeSearchFields = []string{"question", "answer", "thinking", "rationale", "context_rationale", "type", "question_type"}

// EnrichmentReport is the aggregate result of one EnrichEdges call.
type EnrichmentReport struct {
	TotalEdges              int
	SearchAdded             int
	ContradictionsChecked   int
	ContradictionsFound     int
	ContradictionsResolved  int
	WeightsUpdated          int
	Errors                  []string
}

// defaultWeightFactor is the weight factor EnrichEdges passes, and the one
// ComputeWeight substitutes when given 0.
const defaultWeightFactor = float32(1.0)

// ComputeWeight applies the weighting formula, defaulting missing confidence
// fields to 0.5.
func ComputeWeight(questionType models.QuestionType, confidence, contextConfidence *float32, weightFactor float32) float32 {
	base, ok := models.BaseTypeWeight[questionType]
	if !ok {
		base = 0.5
	}
	c := float32(0.5)
	if confidence != nil {
		c = *confidence
	}
	cc := float32(0.5)
	if contextConfidence != nil {
		cc = *contextConfidence
	}
	if weightFactor == 0 {
		weightFactor = defaultWeightFactor
	}
	return base * (c + cc) / 2 * weightFactor
}

// EnrichEdges computes weights, registers the edge collection's search
// fields into its dedicated view and the shared memory view, and runs a
// contradiction sweep over every edge, for the given edge keys.
func EnrichEdges(ctx context.Context, db store.Database, collection string, keys []string, strategy Strategy) (*EnrichmentReport, error) {
	report := &EnrichmentReport{}

	edges := make([]*models.Edge, 0, len(keys))
	for _, key := range keys {
		e, err := db.GetEdge(ctx, collection, key)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("load edge %s: %v", key, err))
			continue
		}
		edges = append(edges, e)
	}
	report.TotalEdges = len(edges)

	if err := ensureSearchRegistration(ctx, db, collection); err != nil {
		report.Errors = append(report.Errors, err.Error())
	} else {
		report.SearchAdded = len(edges)
	}

	for _, e := range edges {
		weight := ComputeWeight(e.QuestionType, e.Confidence, e.ContextConfidence, defaultWeightFactor)
		e.Weight = weight
		if err := db.UpdateEdge(ctx, e); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("update weight for %s: %v", e.Key, err))
			continue
		}
		report.WeightsUpdated++
	}

	for _, e := range edges {
		report.ContradictionsChecked++
		outcomes, success, err := ResolveAllContradictions(ctx, db, e, strategy, map[string]bool{e.Key: true})
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("contradiction sweep for %s: %v", e.Key, err))
			continue
		}
		report.ContradictionsFound += len(outcomes)
		if success {
			for _, o := range outcomes {
				if o.Success {
					report.ContradictionsResolved++
				}
			}
		}
	}

	enrichLog.WithField("collection", collection).WithField("total_edges", report.TotalEdges).
		WithField("contradictions_found", report.ContradictionsFound).Debug("enrichment complete")

	return report, nil
}

// ensureSearchRegistration idempotently registers the edge search fields
// into collection's dedicated view and the shared memory view.
func ensureSearchRegistration(ctx context.Context, db store.Database, collection string) error {
	dedicatedName := collection + "_view"
	if err := ensureView(ctx, db, dedicatedName, collection); err != nil {
		return err
	}
	if err := ensureView(ctx, db, MemoryViewName, collection); err != nil {
		return err
	}
	return nil
}

func ensureView(ctx context.Context, db store.Database, name, collection string) error {
	exists, err := db.HasView(ctx, name)
	if err != nil {
		return fmt.Errorf("check view %s: %w", name, err)
	}
	if !exists {
		view := &models.SearchView{Name: name, Collection: collection, Fields: map[string]string{}}
		view.EnsureFields(edgeSearchFields, "text_en")
		if err := db.CreateView(ctx, view); err != nil {
			return fmt.Errorf("create view %s: %w", name, err)
		}
		return nil
	}

	view, err := db.GetView(ctx, name)
	if err != nil {
		return fmt.Errorf("load view %s: %w", name, err)
	}
	if view.EnsureFields(edgeSearchFields, "text_en") {
		if err := db.UpdateView(ctx, view); err != nil {
			return fmt.Errorf("update view %s: %w", name, err)
		}
	}
	return nil
}
