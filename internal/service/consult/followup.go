package consult

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// followUpDecision is the structured verdict of the "keep asking?"
// capability call.
type followUpDecision struct {
	Done     bool   `json:"done"`
	Question string `json:"question"`
	Reason   string `json:"reason"`
}

const followUpSystemPrompt = "You are a medical intake assistant deciding whether more detail is needed. Output only valid JSON."

// decideFollowUp asks the generator whether another follow-up question
// would add diagnostic value. The decision is advisory; the ceiling is
// enforced by the caller. Any failure degrades to "no further
// follow-up".
func (m *Machine) decideFollowUp(ctx context.Context) followUpDecision {
	resp, err := m.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: followUpSystemPrompt},
		{Role: core.RoleUser, Content: m.buildFollowUpPrompt()},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("follow-up decision failed, assuming enough information")
		return followUpDecision{Done: true}
	}

	decision, err := parseFollowUpDecision(resp.Content)
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("follow-up decision unparseable, assuming enough information")
		return followUpDecision{Done: true}
	}

	if !decision.Done && strings.TrimSpace(decision.Question) == "" {
		return followUpDecision{Done: true}
	}
	return decision
}

func (m *Machine) buildFollowUpPrompt() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Chief complaint: %s\n", m.session.ChiefComplaint)
	if m.session.SymptomLocation != "" {
		fmt.Fprintf(&b, "Location: %s\n", m.session.SymptomLocation)
	}
	if m.session.SymptomDuration != "" {
		fmt.Fprintf(&b, "Duration: %s\n", m.session.SymptomDuration)
	}
	if m.session.Severity > 0 {
		fmt.Fprintf(&b, "Severity (1-10): %d\n", m.session.Severity)
	}

	if len(m.session.FollowUps) > 0 {
		b.WriteString("\nFollow-up rounds so far:\n")
		for _, fu := range m.session.FollowUps {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", fu.Question, fu.Answer)
		}
	}

	fmt.Fprintf(&b,
		"\nWould one more follow-up question materially improve the advice? "+
			"Reply with a JSON object {\"done\": bool, \"question\": \"...\", \"reason\": \"...\"}. "+
			"Set done=true when enough is known; otherwise provide the single most useful question and a one-line reason.")
	return b.String()
}

func parseFollowUpDecision(content string) (followUpDecision, error) {
	start := strings.Index(content, "{")
	if start == -1 {
		return followUpDecision{}, fmt.Errorf("no JSON object found in response")
	}
	end := strings.LastIndex(content[start:], "}")
	if end == -1 {
		return followUpDecision{}, fmt.Errorf("no JSON object found in response")
	}

	var decision followUpDecision
	if err := json.Unmarshal([]byte(content[start:start+end+1]), &decision); err != nil {
		return followUpDecision{}, fmt.Errorf("unmarshal decision: %w", err)
	}
	return decision, nil
}
