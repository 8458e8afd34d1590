package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/healthbot/pkg/log"
)

// EmbeddingConfig configures the embedding capability used for
// knowledge-base similarity search.
type EmbeddingConfig struct {
	Provider string `env:"EMBEDDING_PROVIDER" envDefault:"ollama"`
	Model    string `env:"EMBEDDING_MODEL" envDefault:"nomic-embed-text"`

	OllamaBaseURL string `env:"OLLAMA_BASE_URL" envDefault:"http://localhost:11434"`

	OpenAIBaseURL string `env:"EMBEDDING_OPENAI_BASE_URL" envDefault:"https://api.openai.com"`
	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
}

func NewEmbeddingConfig(ctx context.Context) *EmbeddingConfig {
	c := &EmbeddingConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse Embedding config")
	}
	return c
}
