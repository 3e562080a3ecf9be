package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/grahama1970/arangodb-sub000/internal/llm"
	"github.com/grahama1970/arangodb-sub000/internal/models"
	"github.com/grahama1970/arangodb-sub000/internal/store"
)

// Strategy is one of the three contradiction-resolution strategies:
// newest_wins, merge, or split_timeline.
type Strategy string

const (
	NewestWins   Strategy = "newest_wins"
	Merge        Strategy = "merge"
	SplitTimeline Strategy = "split_timeline"
)

// Outcome is the per-contradiction result of resolve_contradiction.
type Outcome struct {
	Action  string // "kept_new", "kept_existing", "merged", "split", "error"
	Success bool
	Reason  string
	NewEdge      *models.Edge
	ExistingEdge *models.Edge
}

// ResolveContradiction applies strategy to one (newEdge, existing) pair.
// newEdge is not yet persisted; the caller inserts it only if the outcome
// says to. The merge strategy is the exception: it inserts the merged edge
// itself.
func ResolveContradiction(ctx context.Context, db store.EdgeStore, newEdge, existing *models.Edge, strategy Strategy) (*Outcome, error) {
	switch strategy {
	case NewestWins:
		return resolveNewestWins(ctx, db, newEdge, existing)
	case Merge:
		return resolveMerge(ctx, db, newEdge, existing)
	case SplitTimeline:
		return resolveSplitTimeline(ctx, db, newEdge, existing)
	default:
		return nil, fmt.Errorf("resolve contradiction: unknown strategy %q", strategy)
	}
}

func resolveNewestWins(ctx context.Context, db store.EdgeStore, newEdge, existing *models.Edge) (*Outcome, error) {
	if existing.CreatedAt.After(newEdge.CreatedAt) {
		return &Outcome{Action: "kept_existing", Success: true, Reason: "existing edge is newer", ExistingEdge: existing}, nil
	}
	updated, err := InvalidateEdge(ctx, db, existing.Collection, existing.Key, newEdge.ValidAt, "Superseded by newer edge", newEdge.Key)
	if err != nil {
		return &Outcome{Action: "error", Success: false, Reason: err.Error()}, nil
	}
	return &Outcome{Action: "kept_new", Success: true, NewEdge: newEdge, ExistingEdge: updated}, nil
}

func resolveMerge(ctx context.Context, db store.EdgeStore, newEdge, existing *models.Edge) (*Outcome, error) {
	validAt := newEdge.ValidAt
	if existing.ValidAt.Before(validAt) {
		validAt = existing.ValidAt
	}
	var invalidAt *time.Time
	if newEdge.InvalidAt != nil && existing.InvalidAt != nil {
		if newEdge.InvalidAt.After(*existing.InvalidAt) {
			invalidAt = newEdge.InvalidAt
		} else {
			invalidAt = existing.InvalidAt
		}
	}
	merged := *newEdge
	merged.ValidAt = validAt
	merged.InvalidAt = invalidAt
	merged.MergedFrom = []string{newEdge.Key, existing.Key}

	if err := db.InsertEdge(ctx, &merged); err != nil {
		return &Outcome{Action: "error", Success: false, Reason: err.Error()}, nil
	}
	updatedExisting, err := InvalidateEdge(ctx, db, existing.Collection, existing.Key, merged.ValidAt, "Merged into a new edge", merged.Key)
	if err != nil {
		return &Outcome{Action: "error", Success: false, Reason: err.Error()}, nil
	}
	return &Outcome{Action: "merged", Success: true, NewEdge: &merged, ExistingEdge: updatedExisting}, nil
}

func resolveSplitTimeline(ctx context.Context, db store.EdgeStore, newEdge, existing *models.Edge) (*Outcome, error) {
	switch {
	case newEdge.ValidAt.Before(existing.ValidAt):
		capped := *newEdge
		capped.InvalidAt = &existing.ValidAt
		return &Outcome{Action: "split", Success: true, NewEdge: &capped, ExistingEdge: existing}, nil
	case newEdge.ValidAt.After(existing.ValidAt):
		updated, err := InvalidateEdge(ctx, db, existing.Collection, existing.Key, newEdge.ValidAt, "Split by newer edge's timeline", newEdge.Key)
		if err != nil {
			return &Outcome{Action: "error", Success: false, Reason: err.Error()}, nil
		}
		return &Outcome{Action: "kept_new", Success: true, NewEdge: newEdge, ExistingEdge: updated}, nil
	default:
		return resolveNewestWins(ctx, db, newEdge, existing)
	}
}

// ResolveAllContradictions runs detection then applies strategy to every
// contradiction found, returning the outcomes and overall success.
func ResolveAllContradictions(ctx context.Context, db store.EdgeStore, newEdge *models.Edge, strategy Strategy, excludeKeys map[string]bool) ([]*Outcome, bool, error) {
	candidates, err := DetectContradictingEdges(ctx, db, newEdge.Collection, newEdge.From, newEdge.To, newEdge.Type, nil, false)
	if err != nil {
		return nil, false, err
	}
	contradicting := DetectTemporalContradictions(newEdge, candidates, excludeKeys)

	current := newEdge
	var outcomes []*Outcome
	overallSuccess := true
	for _, existing := range contradicting {
		outcome, err := ResolveContradiction(ctx, db, current, existing, strategy)
		if err != nil {
			return nil, false, err
		}
		outcomes = append(outcomes, outcome)
		if !outcome.Success {
			overallSuccess = false
		}
		if outcome.NewEdge != nil {
			current = outcome.NewEdge
		}
	}
	return outcomes, overallSuccess, nil
}

// StrategyDecision is the parsed result of LLM-assisted resolution.
type StrategyDecision struct {
	Strategy  Strategy `json:"strategy"`
	Rationale string   `json:"rationale"`
}

// ChooseStrategyWithLLM asks completer to pick a strategy for one
// contradicting pair; any parse failure or invalid strategy value defaults
// to newest_wins.
func ChooseStrategyWithLLM(ctx context.Context, completer llm.CompletionService, newEdge, existing *models.Edge) StrategyDecision {
	prompt := fmt.Sprintf(
		"New edge: %s -> %s (%s), valid_at=%s, created_at=%s.\n"+
			"Existing edge: %s -> %s (%s), valid_at=%s, created_at=%s.\n"+
			"Choose one resolution strategy: newest_wins, merge, or split_timeline. "+
			`Respond as JSON: {"strategy": "...", "rationale": "..."}.`,
		newEdge.From, newEdge.To, newEdge.Type, newEdge.ValidAt, newEdge.CreatedAt,
		existing.From, existing.To, existing.Type, existing.ValidAt, existing.CreatedAt,
	)

	resp, err := completer.Complete(ctx, llm.CompletionRequest{
		Prompt:   prompt,
		JSONMode: true,
	})
	if err != nil {
		return StrategyDecision{Strategy: NewestWins, Rationale: "llm call failed, defaulting to newest_wins"}
	}

	var decision StrategyDecision
	if err := json.Unmarshal([]byte(resp.Content), &decision); err != nil {
		return StrategyDecision{Strategy: NewestWins, Rationale: "unparseable llm response, defaulting to newest_wins"}
	}

	switch Strategy(strings.TrimSpace(string(decision.Strategy))) {
	case NewestWins, Merge, SplitTimeline:
		return decision
	default:
		return StrategyDecision{Strategy: NewestWins, Rationale: "llm returned unknown strategy, defaulting to newest_wins"}
	}
}
