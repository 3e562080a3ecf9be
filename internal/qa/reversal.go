package qa

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/grahama1970/arangodb-sub000/internal/models"
)

// reversalPattern pairs a question regex with a template for its inverse,
// tried in order. entityGroup names which capture group
// holds the subject whose value becomes the reversed pair's answer; the
// template's "{answer}" placeholder is filled with the original answer.
type reversalPattern struct {
	re          *regexp.Regexp
	template    string
	entityGroup int
}

var reversalPatterns = []reversalPattern{
	{regexp.MustCompile(`(?i)^what is the (\w[\w\s]*) of (.+)\?$`), "What has a {prop} of {answer}?", 2},
	{regexp.MustCompile(`(?i)^what is (.+)\?$`), "What concept is described as: {answer}?", 1},
	{regexp.MustCompile(`(?i)^where is (.+) located\?$`), "What is located at {answer}?", 1},
	{regexp.MustCompile(`(?i)^who (?:is|was) (.+)\?$`), "Which person matches this description: {answer}?", 1},
	{regexp.MustCompile(`(?i)^when (?:is|was|did) (.+)\?$`), "What event corresponds to this time: {answer}?", 1},
}

// relationshipAntonyms maps a relationship phrase to its inverse, used by
// the relationship-inversion strategy.
var relationshipAntonyms = map[string]string{
	"causes":        "is caused by",
	"is caused by":  "causes",
	"contains":      "is contained in",
	"is contained in": "contains",
	"precedes":      "follows",
	"follows":       "precedes",
	"implements":    "is implemented by",
	"is implemented by": "implements",
	"extends":       "is extended by",
	"is extended by": "extends",
	"depends on":    "is a dependency of",
	"is a dependency of": "depends on",
}

var capitalizedToken = regexp.MustCompile(`\b[A-Z][a-zA-Z0-9]*(?:\s[A-Z][a-zA-Z0-9]*)*\b`)
var quotedPhrase = regexp.MustCompile(`"([^"]+)"|'([^']+)'`)

// Reverse builds the reversal counterpart of an existing validated QAPair,
// trying pattern reversal, entity swap, relationship inversion, then a
// generic fallback, in that order.
func Reverse(original models.QAPair) models.QAPair {
	question := strings.TrimSpace(original.Question)

	reversedQuestion, reversedAnswer, ok := tryPatternReversal(question, original.Answer)
	if !ok {
		reversedQuestion, reversedAnswer, ok = tryEntitySwap(question, original.Answer)
	}
	if !ok {
		reversedQuestion, reversedAnswer, ok = tryRelationshipInversion(question, original)
	}
	if !ok {
		reversedQuestion, reversedAnswer = genericReversal(original.Answer)
	}

	return models.QAPair{
		Question:        reversedQuestion,
		Thinking:         fmt.Sprintf("Reversal of: %s", question),
		Answer:           reversedAnswer,
		QuestionType:     models.QuestionReversal,
		Confidence:       original.Confidence * 0.9,
		TemperatureUsed:  original.TemperatureUsed,
		SourceSection:    original.SourceSection,
		SourceHash:       original.SourceHash,
		ReversalOf:       original.Question,
	}
}

func tryPatternReversal(question, answer string) (string, string, bool) {
	for _, p := range reversalPatterns {
		m := p.re.FindStringSubmatch(question)
		if m == nil {
			continue
		}
		entity := m[p.entityGroup]
		reversedQuestion := strings.ReplaceAll(p.template, "{answer}", answer)
		if len(m) > 2 && p.entityGroup == 2 {
			reversedQuestion = strings.ReplaceAll(reversedQuestion, "{prop}", m[1])
		}
		return reversedQuestion, entity, true
	}
	return "", "", false
}

// tryEntitySwap extracts capitalized tokens and quoted phrases from question
// and answer as entities, swapping the most prominent question-entity with
// an answer-entity.
func tryEntitySwap(question, answer string) (string, string, bool) {
	qEntities := extractEntities(question)
	aEntities := extractEntities(answer)
	if len(qEntities) == 0 || len(aEntities) == 0 {
		return "", "", false
	}

	qEntity := qEntities[0]
	aEntity := aEntities[0]

	reversedQuestion := strings.Replace(question, qEntity, aEntity, 1)
	return reversedQuestion, qEntity, true
}

func extractEntities(text string) []string {
	var out []string
	for _, m := range quotedPhrase.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			out = append(out, m[1])
		} else if m[2] != "" {
			out = append(out, m[2])
		}
	}
	out = append(out, capitalizedToken.FindAllString(text, -1)...)
	return out
}

// tryRelationshipInversion looks up an antonymic phrase for any
// relationship_type recorded on the original pair and rewrites the
// question around it.
func tryRelationshipInversion(question string, original models.QAPair) (string, string, bool) {
	for _, rt := range original.RelationshipTypes {
		inverse, ok := relationshipAntonyms[strings.ToLower(rt)]
		if !ok {
			continue
		}
		lower := strings.ToLower(question)
		idx := strings.Index(lower, strings.ToLower(rt))
		if idx < 0 {
			continue
		}
		reversed := question[:idx] + inverse + question[idx+len(rt):]
		return reversed, original.Answer, true
	}
	return "", "", false
}

func genericReversal(answer string) (string, string) {
	return fmt.Sprintf("What concept is described by: %s?", answer), answer
}

// ReversalCount computes how many reversal pairs a batch of size n should
// produce, using reversal_ratio × len(batch).
func ReversalCount(batchSize int, reversalRatio float64) int {
	return int(float64(batchSize) * reversalRatio)
}

// GenerateReversalBatch derives up to ReversalCount(len(batch), reversalRatio)
// reversal pairs from batch, skipping any pair that is itself already a
// REVERSAL. Candidates are
// taken in batch order; the result never exceeds len(batch).
func GenerateReversalBatch(batch []models.QAPair, reversalRatio float64) []models.QAPair {
	want := ReversalCount(len(batch), reversalRatio)
	if want <= 0 {
		return nil
	}

	out := make([]models.QAPair, 0, want)
	for _, pair := range batch {
		if pair.QuestionType == models.QuestionReversal {
			continue
		}
		out = append(out, Reverse(pair))
		if len(out) >= want {
			break
		}
	}
	return out
}
