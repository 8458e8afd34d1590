package installer

import (
	tea "github.com/charmbracelet/bubbletea"
)

// FinalizationStep computes derived values and final env var formatting
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	// Telegram without a token cannot start
	if state.EnvVars["ENABLE_TELEGRAM"] == "true" && state.EnvVars["TELEGRAM_TOKEN"] == "" {
		state.EnvVars["ENABLE_TELEGRAM"] = "false"
	}

	// Set defaults
	if state.EnvVars["HEALTHBOT_DEBUG"] == "" {
		state.EnvVars["HEALTHBOT_DEBUG"] = "0"
	}

	// Signal completion
	return nil, nil
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}
