package installer

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

const defaultModel = "google/gemma-3-27b-it:free"

// ModelStep collects the model name for the selected provider.
type ModelStep struct {
	input textinput.Model
}

func NewModelStep() Step {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 255
	ti.Width = 50
	ti.Placeholder = defaultModel
	return &ModelStep{input: ti}
}

func (s *ModelStep) Init() tea.Cmd {
	return textinput.Blink
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
		val := strings.TrimSpace(s.input.Value())
		if val == "" {
			val = defaultModel
		}
		state.EnvVars["LLM_MODEL"] = val
		return nil, nil
	}
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	return "Enter the model name (press Enter for the default):\n\n" +
		s.input.View() + "\n\n(press enter to confirm)\n"
}
