package memory

import (
	"fmt"
	"strings"

	"github.com/sandevgo/healthbot/internal/core"
)

// historyDepth limits how many past consultations the rendered document
// lists, newest first.
const historyDepth = 10

// RenderHistory produces the markdown health record written alongside
// the profile at every consolidation.
func RenderHistory(p *core.Profile) string {
	var b strings.Builder

	b.WriteString("# Health Record\n\n")
	fmt.Fprintf(&b, "**User**: %s…\n", shortHash(p.UserHash))
	if !p.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "**Created**: %s\n", p.CreatedAt.Format("2006-01-02"))
	}
	if !p.LastVisit.IsZero() {
		fmt.Fprintf(&b, "**Last visit**: %s\n", p.LastVisit.Format("2006-01-02"))
	}

	b.WriteString("\n## Basic information\n\n")
	b.WriteString("| Item | Value |\n|------|-------|\n")
	fmt.Fprintf(&b, "| Sex | %s |\n", orUnknown(string(p.Sex)))
	fmt.Fprintf(&b, "| Age | %s |\n", orUnknownInt(p.Age))
	fmt.Fprintf(&b, "| Height | %s |\n", orUnknownUnit(p.Height, "cm"))
	fmt.Fprintf(&b, "| Weight | %s |\n", orUnknownUnit(p.Weight, "kg"))
	if bmi := p.BMI(); bmi > 0 {
		fmt.Fprintf(&b, "| BMI | %.1f |\n", bmi)
	}
	if bmr := p.BMR(); bmr > 0 {
		fmt.Fprintf(&b, "| BMR | %.1f kcal/day |\n", bmr)
	}
	if iw := p.IdealWeight(); iw > 0 {
		fmt.Fprintf(&b, "| Ideal weight | %.1f kg |\n", iw)
	}

	b.WriteString("\n## Medical history\n\n")
	writeSet(&b, "Family history", p.FamilyHistory)
	writeSet(&b, "Allergies", p.Allergies)
	writeSet(&b, "Chronic conditions", p.ChronicConditions)
	writeSet(&b, "Current medication", p.Medications)

	if len(p.Sessions) > 0 {
		b.WriteString("## Consultations\n\n")
		start := len(p.Sessions) - historyDepth
		if start < 0 {
			start = 0
		}
		for i := len(p.Sessions) - 1; i >= start; i-- {
			s := p.Sessions[i]
			fmt.Fprintf(&b, "### %s\n", s.Date.Format("2006-01-02 15:04"))
			fmt.Fprintf(&b, "- **Chief complaint**: %s\n", orUnknown(s.Cause))
			fmt.Fprintf(&b, "- **Risk level**: %s\n", orUnknown(string(s.RiskLevel)))
			if s.Conclusion != "" {
				fmt.Fprintf(&b, "- **Conclusion**: %s\n", s.Conclusion)
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func writeSet(b *strings.Builder, title string, values []string) {
	fmt.Fprintf(b, "### %s\n", title)
	if len(values) == 0 {
		b.WriteString("none\n\n")
		return
	}
	b.WriteString(strings.Join(values, ", "))
	b.WriteString("\n\n")
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

func orUnknown(v string) string {
	if v == "" {
		return "not recorded"
	}
	return v
}

func orUnknownInt(v int) string {
	if v <= 0 {
		return "not recorded"
	}
	return fmt.Sprintf("%d", v)
}

func orUnknownUnit(v float64, unit string) string {
	if v <= 0 {
		return "not recorded"
	}
	return fmt.Sprintf("%.0f %s", v, unit)
}
