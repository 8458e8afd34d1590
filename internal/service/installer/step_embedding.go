package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// EmbeddingStep selects where passage embeddings are computed.
// Ollama with nomic-embed-text is the recommended local setup.
type EmbeddingStep struct {
	choices []string
	cursor  int
}

func NewEmbeddingStep() Step {
	return &EmbeddingStep{
		choices: []string{"Ollama (nomic-embed-text, local)", "OpenAI"},
		cursor:  0,
	}
}

func (s *EmbeddingStep) Init() tea.Cmd {
	return nil
}

func (s *EmbeddingStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			if s.cursor == 0 {
				state.EnvVars["EMBEDDING_PROVIDER"] = "ollama"
				state.EnvVars["EMBEDDING_MODEL"] = "nomic-embed-text"
				if state.EnvVars["OLLAMA_BASE_URL"] == "" {
					state.EnvVars["OLLAMA_BASE_URL"] = "http://localhost:11434"
				}
			} else {
				state.EnvVars["EMBEDDING_PROVIDER"] = "openai"
				state.EnvVars["EMBEDDING_MODEL"] = "text-embedding-3-small"
			}
			return nil, nil
		}
	}
	return s, nil
}

func (s *EmbeddingStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString("Select your Embedding Provider (for knowledge search):\n\n")
	for i, choice := range s.choices {
		cursor := " "
		if s.cursor == i {
			cursor = "❯"
			b.WriteString(selStyle.Render(fmt.Sprintf("%s %s", cursor, choice)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("%s %s", cursor, choice)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}
