package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// Assessment is the outcome of scanning one utterance. Response is
// non-empty only when the level calls for an immediate user-facing
// notice (CRITICAL crisis resources, HIGH urgent-care advice).
type Assessment struct {
	Level    core.RiskLevel
	Keywords []string
	Response string
}

// Monitor classifies a single utterance plus the running severity score
// into one of four levels. Precedence is strict: CRITICAL beats HIGH
// beats MEDIUM beats LOW, first match wins.
//
// The monitor is stateless; callers own the session and decide what to
// do with the verdict.
type Monitor struct {
	ai     core.Generator
	policy core.ConsultPolicy
}

func NewMonitor(ai core.Generator, policy core.ConsultPolicy) *Monitor {
	return &Monitor{ai: ai, policy: policy}
}

// Assess scans text against the keyword lists and the severity score.
// Emergency lexical markers are confirmed through the generator; when
// that call fails the lexical verdict stands, erring toward caution.
func (m *Monitor) Assess(ctx context.Context, text string, severity int) Assessment {
	lowered := strings.ToLower(text)

	if found := matchKeywords(lowered, m.policy.CriticalKeywords()); len(found) > 0 {
		return Assessment{
			Level:    core.RiskCritical,
			Keywords: found,
			Response: CrisisResponse,
		}
	}

	if found := matchKeywords(lowered, m.policy.HighRiskKeywords()); len(found) > 0 {
		if m.confirmEmergency(ctx, text, found) {
			return Assessment{
				Level:    core.RiskHigh,
				Keywords: found,
				Response: urgentCareAdvice(found),
			}
		}
		// The judge said no; the markers still count as moderate signal.
		return Assessment{Level: core.RiskMedium, Keywords: found}
	}

	if severity >= m.policy.SeverityThreshold() {
		return Assessment{Level: core.RiskMedium}
	}
	if found := matchKeywords(lowered, m.policy.ModerateKeywords()); len(found) > 0 {
		return Assessment{Level: core.RiskMedium, Keywords: found}
	}

	return Assessment{Level: core.RiskLow}
}

// confirmEmergency asks the generator for a yes/no judgement on whether
// the description indicates a situation needing urgent in-person care.
// Any failure keeps the lexical verdict.
func (m *Monitor) confirmEmergency(ctx context.Context, text string, found []string) bool {
	if m.ai == nil {
		return true
	}

	prompt := fmt.Sprintf(
		"A patient describes: %q. Markers noticed: %s. "+
			"Does this description indicate a condition that needs urgent in-person medical care? "+
			"Answer with exactly one word: yes or no.",
		text, strings.Join(found, ", "),
	)

	resp, err := m.ai.Chat(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a cautious medical triage assistant. Answer only yes or no."},
		{Role: core.RoleUser, Content: prompt},
	})
	if err != nil {
		log.FromCtx(ctx).Warn().Err(err).Msg("emergency judgement failed, keeping lexical verdict")
		return true
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Content))
	return !strings.HasPrefix(answer, "no")
}

func matchKeywords(lowered string, keywords []string) []string {
	var found []string
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lowered, kw) {
			found = append(found, kw)
		}
	}
	return found
}
