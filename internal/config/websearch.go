package config

import (
	"context"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/healthbot/pkg/log"
)

// WebSearchConfig configures the fallback web-search capability.
type WebSearchConfig struct {
	BaseURL    string `env:"WEB_SEARCH_BASE_URL" envDefault:"https://html.duckduckgo.com"`
	MaxResults int    `env:"WEB_SEARCH_MAX_RESULTS" envDefault:"3"`
	TimeoutSec int    `env:"WEB_SEARCH_TIMEOUT_SEC" envDefault:"10"`
}

func NewWebSearchConfig(ctx context.Context) *WebSearchConfig {
	c := &WebSearchConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse WebSearch config")
	}
	return c
}
