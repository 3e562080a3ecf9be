package search

import (
	"context"
	"fmt"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/logging"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

var graphLog = logging.For("graph")

// Direction constrains which edge endpoint a traversal follows.
type Direction string

const (
	Outbound Direction = "OUTBOUND"
	Inbound  Direction = "INBOUND"
	Any      Direction = "ANY"
)

// HardMaxDepth caps max_depth at 3 regardless of what a caller requests,
// preventing exponential explosion.
const HardMaxDepth = 3

// DefaultMaxRelatedPerSeed is the default per-seed fanout limit.
const DefaultMaxRelatedPerSeed = 100

// DefaultTraversalTimeoutMillis is the default wall-clock cap per traversal.
const DefaultTraversalTimeoutMillis = 5000

// GraphRequest configures one bounded traversal.
type GraphRequest struct {
	Collection          string
	StartVertices       []string
	MinDepth            int
	MaxDepth            int
	Direction           Direction
	RelationshipTypes   []string
	MaxRelatedPerSeed   int
	TraversalTimeoutMillis int
	At                  *time.Time // only consider edges active at this instant; nil = now
}

// GraphTraverse runs a bounded breadth-first traversal from start_vertices,
// with global-unique-vertex visitation, per-seed fanout caps, and a
// wall-clock timeout. Related vertices are scored at 0.8 to
// reflect their one-hop-removed provenance when folded into hybrid fusion.
func GraphTraverse(ctx context.Context, db store.EdgeStore, req GraphRequest) (*Response, error) {
	start := time.Now()
	var warnings []string

	maxDepth := req.MaxDepth
	if maxDepth > HardMaxDepth {
		warnings = append(warnings, fmt.Sprintf("max_depth %d capped at hard limit %d", maxDepth, HardMaxDepth))
		maxDepth = HardMaxDepth
	}
	if maxDepth <= 0 {
		maxDepth = HardMaxDepth
	}

	maxRelated := req.MaxRelatedPerSeed
	if maxRelated <= 0 {
		maxRelated = DefaultMaxRelatedPerSeed
	}

	timeoutMillis := req.TraversalTimeoutMillis
	if timeoutMillis <= 0 {
		timeoutMillis = DefaultTraversalTimeoutMillis
	}
	deadline := time.Now().Add(time.Duration(timeoutMillis) * time.Millisecond)

	at := time.Now()
	if req.At != nil {
		at = *req.At
	}

	direction := req.Direction
	if direction == "" {
		direction = Outbound
	}

	typeSet := make(map[string]bool, len(req.RelationshipTypes))
	for _, t := range req.RelationshipTypes {
		typeSet[t] = true
	}

	visited := make(map[string]bool)
	var results []Result

	type frontierItem struct {
		vertex string
		depth  int
	}
	var frontier []frontierItem
	for _, v := range req.StartVertices {
		frontier = append(frontier, frontierItem{vertex: v, depth: 0})
		visited[v] = true
	}

	timedOut := false
	for depth := 0; depth < maxDepth && len(frontier) > 0; depth++ {
		if time.Now().After(deadline) {
			timedOut = true
			break
		}

		var next []frontierItem
		for _, item := range frontier {
			if time.Now().After(deadline) {
				timedOut = true
				break
			}

			related, err := relatedEdges(ctx, db, req.Collection, item.vertex, direction)
			if err != nil {
				return nil, fmt.Errorf("graph traverse list edges from %s: %w", item.vertex, err)
			}

			perSeedCount := 0
			for _, e := range related {
				if len(typeSet) > 0 && !typeSet[e.Type] {
					continue
				}
				if !e.ActiveAt(at) {
					continue
				}
				if perSeedCount >= maxRelated {
					warnings = append(warnings, fmt.Sprintf("per-seed fanout limit %d reached at %s", maxRelated, item.vertex))
					break
				}
				perSeedCount++

				other := e.To
				if (direction == Inbound) || (direction == Any && e.To == item.vertex) {
					other = e.From
				}
				if visited[other] {
					continue
				}
				visited[other] = true

				newDepth := item.depth + 1
				if newDepth >= req.MinDepth {
					results = append(results, Result{
						DocumentKey: other,
						Collection:  req.Collection,
						Score:       0.8,
						Depth:       newDepth,
					})
				}
				next = append(next, frontierItem{vertex: other, depth: newDepth})
			}
		}
		frontier = next
	}

	if timedOut {
		warnings = append(warnings, "traversal stopped early: timeout reached")
	}

	graphLog.WithField("collection", req.Collection).WithField("results", len(results)).Debug("graph traversal complete")

	return &Response{
		Results:      results,
		Total:        len(results),
		SearchEngine: "graph",
		SearchType:   "traversal",
		Warnings:     warnings,
		Duration:     time.Since(start),
	}, nil
}

func relatedEdges(ctx context.Context, db store.EdgeStore, collection, vertex string, direction Direction) ([]*models.Edge, error) {
	var out []*models.Edge
	if direction == Outbound || direction == Any {
		edges, err := db.ListEdges(ctx, store.EdgeFilter{Collection: collection, From: vertex, IncludeInvalidated: true})
		if err != nil {
			return nil, err
		}
		out = append(out, edges...)
	}
	if direction == Inbound || direction == Any {
		edges, err := db.ListEdges(ctx, store.EdgeFilter{Collection: collection, To: vertex, IncludeInvalidated: true})
		if err != nil {
			return nil, err
		}
		out = append(out, edges...)
	}
	return out, nil
}
