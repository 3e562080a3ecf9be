package store

import (
	"context"
	"fmt"
	"strings"
)

// GlossaryTerm is one entry of the glossary collection: a defined term, its
// definition, and cross-references to related terms.
type GlossaryTerm struct {
	Term         string   `json:"term"`
	Definition   string   `json:"definition"`
	RelatedTerms []string `json:"related_terms,omitempty"`
}

// GlossaryLookup is a thin exact/prefix term lookup over the glossary
// collection: persisted state with no operation of its own otherwise.
type GlossaryLookup interface {
	UpsertTerm(ctx context.Context, t GlossaryTerm) error
	LookupTerm(ctx context.Context, term string) (*GlossaryTerm, error)
	LookupPrefix(ctx context.Context, prefix string, limit int) ([]GlossaryTerm, error)
}

// UpsertTerm inserts or replaces one glossary entry.
func (s *PostgresStore) UpsertTerm(ctx context.Context, t GlossaryTerm) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO engine_glossary (term, definition, related_terms)
		VALUES ($1, $2, $3)
		ON CONFLICT (term) DO UPDATE SET definition = EXCLUDED.definition, related_terms = EXCLUDED.related_terms`,
		t.Term, t.Definition, pgTextArray(t.RelatedTerms),
	)
	if err != nil {
		return fmt.Errorf("upsert glossary term %q: %w", t.Term, err)
	}
	return nil
}

// LookupTerm returns the exact-match glossary entry, case-insensitively.
func (s *PostgresStore) LookupTerm(ctx context.Context, term string) (*GlossaryTerm, error) {
	row := s.pool.QueryRow(ctx, `SELECT term, definition, related_terms FROM engine_glossary WHERE lower(term) = lower($1)`, term)
	var t GlossaryTerm
	var related []string
	if err := row.Scan(&t.Term, &t.Definition, &related); err != nil {
		return nil, fmt.Errorf("lookup glossary term %q: %w", term, err)
	}
	t.RelatedTerms = related
	return &t, nil
}

// LookupPrefix returns every glossary entry whose term starts with prefix,
// case-insensitively, capped at limit.
func (s *PostgresStore) LookupPrefix(ctx context.Context, prefix string, limit int) ([]GlossaryTerm, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT term, definition, related_terms FROM engine_glossary WHERE lower(term) LIKE lower($1) ORDER BY term LIMIT $2`,
		strings.ToLower(prefix)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("lookup glossary prefix %q: %w", prefix, err)
	}
	defer rows.Close()

	var out []GlossaryTerm
	for rows.Next() {
		var t GlossaryTerm
		var related []string
		if err := rows.Scan(&t.Term, &t.Definition, &related); err != nil {
			return nil, err
		}
		t.RelatedTerms = related
		out = append(out, t)
	}
	return out, rows.Err()
}
