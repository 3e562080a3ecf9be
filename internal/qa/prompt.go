package qa

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"

	"github.com/grahama1970/arangodb-sub000/internal/ingest"
	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// meaningfulRelationshipTypes is the subset of relationship types worth
// asking a RELATIONSHIP question about; generic/structural types are
// excluded in favor of semantically rich ones.
var meaningfulRelationshipTypes = map[string]bool{
	"causes": true, "depends_on": true, "contains": true, "precedes": true,
	"contradicts": true, "extends": true, "implements": true, "references": true,
}

// buildPrompt constructs the generation prompt for one (document, type)
// pair, returning the prompt and the grounding source text used for
// citation validation. priorErrors, when non-empty, are fed back into the
// prompt as self-repair feedback.
func buildPrompt(doc *ingest.ParsedDocument, qType models.QuestionType, priorErrors []string) (prompt, source string, err error) {
	switch qType {
	case models.QuestionFactual:
		prompt, source, err = factualPrompt(doc)
	case models.QuestionRelationship:
		prompt, source, err = relationshipPrompt(doc)
	case models.QuestionMultiHop:
		prompt, source, err = multiHopPrompt(doc)
	case models.QuestionHierarchical:
		prompt, source, err = hierarchicalPrompt(doc)
	case models.QuestionComparative:
		prompt, source, err = comparativePrompt(doc)
	default:
		return "", "", fmt.Errorf("build prompt: unsupported generation type %q", qType)
	}
	if err != nil {
		return "", "", err
	}
	if len(priorErrors) > 0 {
		prompt += "\n\nYour previous attempt failed validation for these reasons:\n- " + strings.Join(priorErrors, "\n- ") +
			"\nFix these issues in your next answer."
	}
	return prompt, source, nil
}

const responseShape = `Respond as JSON: {"question": "...", "thinking": "...", "answer": "..."}.`

func factualPrompt(doc *ingest.ParsedDocument) (string, string, error) {
	if len(doc.Sections) == 0 {
		return "", "", fmt.Errorf("factual prompt: document has no sections")
	}
	sec := doc.Sections[rand.Intn(len(doc.Sections))]
	prompt := fmt.Sprintf("Based strictly on the following section titled %q, write one factual question and its answer.\n\n%s\n\n%s",
		sec.Title, sec.Text, responseShape)
	return prompt, sec.Text, nil
}

func relationshipPrompt(doc *ingest.ParsedDocument) (string, string, error) {
	var candidates []ingest.Relationship
	for _, r := range doc.Relationships {
		if meaningfulRelationshipTypes[strings.ToLower(r.RelationshipType)] {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		candidates = doc.Relationships
	}
	if len(candidates) == 0 {
		return "", "", fmt.Errorf("relationship prompt: document has no relationships")
	}
	rel := candidates[rand.Intn(len(candidates))]
	source := rel.FromText + "\n" + rel.ToText
	prompt := fmt.Sprintf("These two passages are related by %q:\n\nA: %s\n\nB: %s\n\n"+
		"Write a question asking how A and B relate, and its answer. %s",
		rel.RelationshipType, rel.FromText, rel.ToText, responseShape)
	return prompt, source, nil
}

// multiHopPrompt builds a random walk of up to 2-3 hops through the
// relationship graph, avoiding revisits and stopping early when no unvisited
// next hop exists, and asks a question requiring every hop.
func multiHopPrompt(doc *ingest.ParsedDocument) (string, string, error) {
	if len(doc.Relationships) == 0 {
		return "", "", fmt.Errorf("multi-hop prompt: document has no relationships")
	}

	adjacency := make(map[string][]ingest.Relationship)
	for _, r := range doc.Relationships {
		adjacency[r.FromText] = append(adjacency[r.FromText], r)
	}

	hopCount := 2 + rand.Intn(2) // 2 or 3
	start := doc.Relationships[rand.Intn(len(doc.Relationships))]

	visited := map[string]bool{start.FromText: true, start.ToText: true}
	path := []ingest.Relationship{start}
	current := start.ToText

	for len(path) < hopCount {
		options := adjacency[current]
		var next *ingest.Relationship
		for i := range options {
			if !visited[options[i].ToText] {
				next = &options[i]
				break
			}
		}
		if next == nil {
			break
		}
		path = append(path, *next)
		visited[next.ToText] = true
		current = next.ToText
	}

	var sb strings.Builder
	for i, hop := range path {
		fmt.Fprintf(&sb, "Hop %d: %s --(%s)--> %s\n", i+1, hop.FromText, hop.RelationshipType, hop.ToText)
	}
	source := sb.String()
	prompt := fmt.Sprintf("Follow this reasoning path across %d hops:\n\n%s\n"+
		"Write a question that can only be answered by combining every hop, and its answer. %s",
		len(path), source, responseShape)
	return prompt, source, nil
}

func hierarchicalPrompt(doc *ingest.ParsedDocument) (string, string, error) {
	byLevel := make(map[int][]ingest.Section)
	for _, s := range doc.Sections {
		byLevel[s.Level] = append(byLevel[s.Level], s)
	}
	var levels []int
	for lvl, secs := range byLevel {
		if len(secs) > 0 {
			levels = append(levels, lvl)
		}
	}
	if len(levels) == 0 {
		return "", "", fmt.Errorf("hierarchical prompt: document has no sections")
	}
	lvl := levels[rand.Intn(len(levels))]
	secs := byLevel[lvl]
	sec := secs[rand.Intn(len(secs))]
	prompt := fmt.Sprintf("Section %q (outline level %d):\n\n%s\n\n"+
		"Write a question about this section's structural role or its place in the outline, and its answer. %s",
		sec.Title, sec.Level, sec.Text, responseShape)
	return prompt, sec.Text, nil
}

func comparativePrompt(doc *ingest.ParsedDocument) (string, string, error) {
	byLevel := make(map[int][]ingest.Section)
	for _, s := range doc.Sections {
		byLevel[s.Level] = append(byLevel[s.Level], s)
	}
	for _, secs := range byLevel {
		if len(secs) >= 2 {
			i, j := rand.Intn(len(secs)), rand.Intn(len(secs))
			for j == i {
				j = rand.Intn(len(secs))
			}
			a, b := secs[i], secs[j]
			source := a.Text + "\n" + b.Text
			prompt := fmt.Sprintf("Compare these two same-level sections:\n\nA (%q): %s\n\nB (%q): %s\n\n"+
				"Write a compare/contrast question and its answer. %s",
				a.Title, a.Text, b.Title, b.Text, responseShape)
			return prompt, source, nil
		}
	}
	return "", "", fmt.Errorf("comparative prompt: no level has at least two sections")
}

type rawQAResponse struct {
	Question string `json:"question"`
	Thinking string `json:"thinking"`
	Answer   string `json:"answer"`
}

// parseAndValidate decodes the LLM's JSON response and applies spec
// §4.11's retry-loop validation: required fields present, length bounds
// met, and at least one verbatim substring overlap with source.
func parseAndValidate(content string, qType models.QuestionType, source string, temperature float32, minLen, maxLen int) (*models.QAPair, []string) {
	var raw rawQAResponse
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, []string{fmt.Sprintf("response was not valid JSON: %v", err)}
	}

	var errs []string
	if strings.TrimSpace(raw.Question) == "" {
		errs = append(errs, "question field is empty")
	}
	if strings.TrimSpace(raw.Thinking) == "" {
		errs = append(errs, "thinking field is empty")
	}
	if strings.TrimSpace(raw.Answer) == "" {
		errs = append(errs, "answer field is empty")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	if minLen > 0 && len(raw.Answer) < minLen {
		errs = append(errs, fmt.Sprintf("answer shorter than minimum length %d", minLen))
	}
	if maxLen > 0 && len(raw.Answer) > maxLen {
		errs = append(errs, fmt.Sprintf("answer longer than maximum length %d", maxLen))
	}
	if !hasGroundedSubstring(raw.Answer, source) {
		errs = append(errs, "answer contains no substring found in the source content")
	}
	if len(errs) > 0 {
		return nil, errs
	}

	return &models.QAPair{
		Question:        raw.Question,
		Thinking:        raw.Thinking,
		Answer:          raw.Answer,
		QuestionType:    qType,
		Confidence:      0.8,
		TemperatureUsed: temperature,
	}, nil
}

// hasGroundedSubstring checks, case-insensitively, for a verbatim overlap of
// at least 20 characters between answer and source; an answer shorter than
// that must appear in source as a whole.
func hasGroundedSubstring(answer, source string) bool {
	const minOverlap = 20
	a := strings.ToLower(answer)
	s := strings.ToLower(source)
	if len(a) < minOverlap {
		return strings.Contains(s, a)
	}
	for i := 0; i+minOverlap <= len(a); i++ {
		if strings.Contains(s, a[i:i+minOverlap]) {
			return true
		}
	}
	return false
}
