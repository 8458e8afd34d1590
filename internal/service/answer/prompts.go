package answer

import (
	"fmt"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
)

const gradeSystemPrompt = "You grade document relevance. Output only a JSON array of booleans."

const rewriteSystemPrompt = "You rewrite search queries for a medical knowledge base. Output only the rewritten query."

const summarizeSystemPrompt = `You are a careful health advisor. Ground your answer in the provided passages.
Never diagnose; recommend professional care where appropriate. Respect the patient's allergies and conditions.`

const exhaustedApology = `I could not find reliable information to answer this confidently.
Rather than guess, I recommend discussing it with a healthcare professional.`

func buildGradePrompt(query string, passages []core.Passage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Query: %s\n\nFor each passage below, judge whether it helps answer the query.\n", query)
	for i, p := range passages {
		fmt.Fprintf(&b, "\nPassage %d:\n%s\n", i+1, p.Content)
	}
	fmt.Fprintf(&b, "\nReply with a JSON array of %d booleans, one per passage, in order.", len(passages))
	return b.String()
}

func buildRewritePrompt(original, current string, profile *core.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The query %q found too few relevant passages.\n", current)
	if current != original {
		fmt.Fprintf(&b, "The original question was: %q\n", original)
	}
	if profile != nil && len(profile.ChronicConditions) > 0 {
		fmt.Fprintf(&b, "Patient context: %s\n", strings.Join(profile.ChronicConditions, ", "))
	}
	b.WriteString("Rewrite it with broader or alternative medical phrasing. Output only the new query.")
	return b.String()
}

func buildSummarizePrompt(req Request, st *state, lowConfidence bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Question: %s\n", req.Query)

	if p := req.Profile; p != nil {
		b.WriteString("\nPatient profile:\n")
		if p.Sex != "" && p.Age > 0 {
			fmt.Fprintf(&b, "- %s, %d years old\n", p.Sex, p.Age)
		}
		if bmi := p.BMI(); bmi > 0 {
			fmt.Fprintf(&b, "- BMI %.1f\n", bmi)
		}
		if len(p.Allergies) > 0 {
			fmt.Fprintf(&b, "- Allergies (avoid in any recommendation): %s\n", strings.Join(p.Allergies, ", "))
		}
		if len(p.ChronicConditions) > 0 {
			fmt.Fprintf(&b, "- Chronic conditions: %s\n", strings.Join(p.ChronicConditions, ", "))
		}
		if len(p.Medications) > 0 {
			fmt.Fprintf(&b, "- Current medication: %s\n", strings.Join(p.Medications, ", "))
		}
	}

	if len(st.passing) > 0 {
		b.WriteString("\nReference passages:\n")
		for i, p := range st.passing {
			origin := p.SourceID
			if p.FromWeb {
				origin = "web: " + origin
			}
			fmt.Fprintf(&b, "\n[%d] (%s)\n%s\n", i+1, origin, p.Content)
		}
	} else {
		b.WriteString("\nNo reference passages are available.\n")
	}

	for _, m := range req.Context {
		fmt.Fprintf(&b, "\n%s: %s", m.Role, m.Content)
	}

	if lowConfidence {
		b.WriteString("\n\nThe reference material is thin; answer conservatively, say what is uncertain, and recommend professional consultation.")
	} else {
		b.WriteString("\n\nCompose a clear, structured answer grounded in the passages above.")
	}
	return b.String()
}
