package ui

import "github.com/charmbracelet/lipgloss"

var (
	// TitleStyle uses ANSI 6 (Cyan) for headings, readable on most terminals.
	TitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true).MarginBottom(1)

	// UsageStyle uses ANSI 2 (Green) for usage lines and arguments.
	UsageStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// DescStyle uses ANSI 8 (Bright Black / Gray) to de-emphasise descriptions.
	DescStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	// FlagStyle uses ANSI 3 (Yellow) for flags.
	FlagStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// WarnStyle uses ANSI 1 (Red) for risk warnings and escalation notices.
	WarnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	// QuestionStyle highlights intake questions in the consultation loop.
	QuestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
)
