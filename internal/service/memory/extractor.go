package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// Profile fields a fact may target.
const (
	FieldSex              = "sex"
	FieldAge              = "age"
	FieldHeight           = "height"
	FieldWeight           = "weight"
	FieldAllergy          = "allergy"
	FieldChronicCondition = "chronic_condition"
	FieldFamilyHistory    = "family_history"
	FieldMedication       = "medication"
)

// minConfidence drops speculative extractions before they reach the
// profile merge.
const minConfidence = 0.5

// maxTranscriptTokens bounds the extraction prompt; older turns are
// dropped first when a long session exceeds it.
const maxTranscriptTokens = 6000

// Fact is one candidate profile update produced by extraction. Source
// marks whether the user stated it outright or the model inferred it.
type Fact struct {
	Field      string  `json:"field"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source"`
}

// Extractor pulls durable health facts out of a consultation transcript.
// It never mutates a Profile itself; merging is a separate step.
type Extractor struct {
	ai core.Generator
}

func NewExtractor(ai core.Generator) *Extractor {
	return &Extractor{ai: ai}
}

func (e *Extractor) ExtractProfileFacts(ctx context.Context, turns []core.Turn) ([]Fact, error) {
	conversation := formatTranscript(turns)
	if conversation == "" {
		return nil, nil
	}

	const systemPrompt = "You are a medical fact extraction system. Output only valid JSON."

	resp, err := e.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: systemPrompt},
		{Role: core.RoleUser, Content: buildExtractionPrompt(conversation)},
	})
	if err != nil {
		return nil, fmt.Errorf("llm chat: %w", err)
	}

	facts, err := parseExtractionResponse(resp.Content)
	if err != nil {
		return nil, err
	}

	kept := facts[:0]
	for _, f := range facts {
		if !validField(f.Field) || strings.TrimSpace(f.Value) == "" {
			continue
		}
		if f.Confidence < minConfidence {
			log.FromCtx(ctx).Debug().
				Str("field", f.Field).
				Float64("confidence", f.Confidence).
				Msg("dropping low-confidence fact")
			continue
		}
		kept = append(kept, f)
	}
	return kept, nil
}

func formatTranscript(turns []core.Turn) string {
	var b strings.Builder
	for _, t := range trimToBudget(turns, maxTranscriptTokens) {
		b.WriteString(strings.ToUpper(t.Speaker))
		b.WriteString(": ")
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// trimToBudget keeps the newest suffix of turns whose token count fits
// the budget. Recent turns carry the facts worth keeping.
func trimToBudget(turns []core.Turn, budget int) []core.Turn {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return turns
	}

	total := 0
	for i := len(turns) - 1; i >= 0; i-- {
		total += len(enc.Encode(turns[i].Text, nil, nil))
		if total > budget {
			return turns[i+1:]
		}
	}
	return turns
}

func buildExtractionPrompt(conversation string) string {
	return fmt.Sprintf(
		`Extract permanent health facts about the patient from the consultation below. `+
			`Output format: JSON list of objects {field, value, confidence, source}. `+
			`Allowed fields: [sex, age, height, weight, allergy, chronic_condition, family_history, medication]. `+
			`Rules: 1. Only facts about the patient themselves, except family_history. `+
			`2. height is in cm, weight in kg, as bare numbers. sex is "male" or "female". `+
			`3. confidence is 0.0-1.0; source is "stated" when the patient said it, "inferred" otherwise. `+
			`4. Ignore transient symptoms; extract only durable conditions, allergies and medication. `+
			`Consultation: %s`,
		conversation,
	)
}

func parseExtractionResponse(content string) ([]Fact, error) {
	jsonStr := extractJSONArray(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}

	var facts []Fact
	if err := json.Unmarshal([]byte(jsonStr), &facts); err != nil {
		return nil, fmt.Errorf("unmarshal facts: %w", err)
	}
	return facts, nil
}

func extractJSONArray(content string) string {
	start := strings.Index(content, "[")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(content[start:], "]")
	if end == -1 {
		return ""
	}
	return content[start : start+end+1]
}

func validField(field string) bool {
	switch field {
	case FieldSex, FieldAge, FieldHeight, FieldWeight,
		FieldAllergy, FieldChronicCondition, FieldFamilyHistory, FieldMedication:
		return true
	}
	return false
}
