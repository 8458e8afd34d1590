package embed

import (
	"context"
	"fmt"

	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/internal/core"
	"github.com/sandevgo/healthbot/pkg/log"
)

// NewEmbedder creates the appropriate Embedder based on configuration.
func NewEmbedder(ctx context.Context, cfg *config.EmbeddingConfig) (core.Embedder, error) {
	log.FromCtx(ctx).Info().
		Str("provider", cfg.Provider).
		Str("model", cfg.Model).
		Msg("starting embedding provider")

	switch cfg.Provider {
	case "ollama":
		return NewOllama(cfg.OllamaBaseURL, cfg.Model), nil
	case "openai":
		return NewOpenAI(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s", cfg.Provider)
	}
}
