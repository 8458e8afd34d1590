package installer

import (
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/pkg/env"
)

// envFile mirrors the environment variables the wizard collects.
// Empty fields are omitted from the written file.
type envFile struct {
	Provider      string `env:"LLM_PROVIDER"`
	Model         string `env:"LLM_MODEL"`
	AnthropicKey  string `env:"ANTHROPIC_API_KEY"`
	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterKey string `env:"OPENROUTER_API_KEY"`
	OllamaBaseURL string `env:"OLLAMA_BASE_URL"`
	OllamaKey     string `env:"OLLAMA_API_KEY"`
	CustomBaseURL string `env:"CUSTOM_OPENAI_BASE_URL"`
	CustomKey     string `env:"CUSTOM_OPENAI_API_KEY"`

	EmbeddingProvider string `env:"EMBEDDING_PROVIDER"`
	EmbeddingModel    string `env:"EMBEDDING_MODEL"`

	EnableCLI      string `env:"ENABLE_CLI"`
	EnableTelegram string `env:"ENABLE_TELEGRAM"`
	TelegramToken  string `env:"TELEGRAM_TOKEN"`
	TelegramOwner  string `env:"TELEGRAM_OWNER_ID"`

	Debug string `env:"HEALTHBOT_DEBUG"`
}

func envFileFromState(state *InstallState) *envFile {
	v := state.EnvVars
	return &envFile{
		Provider:          v["LLM_PROVIDER"],
		Model:             v["LLM_MODEL"],
		AnthropicKey:      v["ANTHROPIC_API_KEY"],
		OpenAIKey:         v["OPENAI_API_KEY"],
		OpenRouterKey:     v["OPENROUTER_API_KEY"],
		OllamaBaseURL:     v["OLLAMA_BASE_URL"],
		OllamaKey:         v["OLLAMA_API_KEY"],
		CustomBaseURL:     v["CUSTOM_OPENAI_BASE_URL"],
		CustomKey:         v["CUSTOM_OPENAI_API_KEY"],
		EmbeddingProvider: v["EMBEDDING_PROVIDER"],
		EmbeddingModel:    v["EMBEDDING_MODEL"],
		EnableCLI:         v["ENABLE_CLI"],
		EnableTelegram:    v["ENABLE_TELEGRAM"],
		TelegramToken:     v["TELEGRAM_TOKEN"],
		TelegramOwner:     v["TELEGRAM_OWNER_ID"],
		Debug:             v["HEALTHBOT_DEBUG"],
	}
}

// SaveEnvStep writes the collected configuration to the .env file and
// prepares the runtime directory layout.
type SaveEnvStep struct {
	err   error
	saved bool
}

func NewSaveEnvStep() Step {
	return &SaveEnvStep{}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return func() tea.Msg { return nextMsg{} }
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}

	path := config.GetRuntimePath()

	if err := os.MkdirAll(filepath.Join(path, "history"), 0755); err != nil {
		s.err = fmt.Errorf("failed to create runtime directory: %w", err)
		return s, nil
	}

	envPath := filepath.Join(path, ".env")

	// Check if .env already exists
	if _, err := os.Stat(envPath); err == nil {
		s.err = fmt.Errorf(".env file already exists at %s", envPath)
		return s, nil
	}

	content, err := env.MarshalEnv(envFileFromState(state))
	if err != nil {
		s.err = err
		return s, nil
	}

	if err := os.WriteFile(envPath, []byte(content), 0600); err != nil {
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil // Signal completion
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved successfully!\n"
	}
	return "Saving configuration...\n"
}
