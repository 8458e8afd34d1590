package consult

import (
	"fmt"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
)

// ConsultationSummary is an immutable snapshot of the intake, used both
// for building the retrieval query and for display.
type ConsultationSummary struct {
	ChiefComplaint string
	Location       string
	Duration       string
	Severity       int
	RiskLevel      core.RiskLevel
	FollowUps      []core.FollowUp
}

// Summary snapshots the current session state.
func (m *Machine) Summary() ConsultationSummary {
	followUps := make([]core.FollowUp, len(m.session.FollowUps))
	copy(followUps, m.session.FollowUps)

	return ConsultationSummary{
		ChiefComplaint: m.session.ChiefComplaint,
		Location:       m.session.SymptomLocation,
		Duration:       m.session.SymptomDuration,
		Severity:       m.session.Severity,
		RiskLevel:      m.session.RiskLevel,
		FollowUps:      followUps,
	}
}

// RetrievalQuery renders the summary as the advisory query fed to the
// retrieval workflow.
func (s ConsultationSummary) RetrievalQuery() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Chief complaint: %s.", s.ChiefComplaint)
	if s.Location != "" {
		fmt.Fprintf(&b, " Location: %s.", s.Location)
	}
	if s.Duration != "" {
		fmt.Fprintf(&b, " Duration: %s.", s.Duration)
	}
	if s.Severity > 0 {
		fmt.Fprintf(&b, " Severity: %d/10.", s.Severity)
	}
	for _, fu := range s.FollowUps {
		if fu.Answer != "" {
			fmt.Fprintf(&b, " %s: %s.", fu.Question, fu.Answer)
		}
	}
	return b.String()
}

// Display renders the summary for the user.
func (s ConsultationSummary) Display() string {
	var b strings.Builder

	b.WriteString("Consultation summary\n")
	fmt.Fprintf(&b, "- Chief complaint: %s\n", orDash(s.ChiefComplaint))
	fmt.Fprintf(&b, "- Location: %s\n", orDash(s.Location))
	fmt.Fprintf(&b, "- Duration: %s\n", orDash(s.Duration))
	if s.Severity > 0 {
		fmt.Fprintf(&b, "- Severity: %d/10\n", s.Severity)
	}
	fmt.Fprintf(&b, "- Risk level: %s\n", orDash(string(s.RiskLevel)))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
