package config

import (
	"context"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/sandevgo/healthbot/pkg/log"
)

type AppConfig struct {
	RuntimePath string `env:"HEALTHBOT_RUNTIME_PATH" envDefault:".healthbot"`

	// Transport Flags
	EnableTelegram bool `env:"ENABLE_TELEGRAM" envDefault:"false"`
	EnableCLI      bool `env:"ENABLE_CLI" envDefault:"true"`
}

func NewAppConfig(ctx context.Context) *AppConfig {
	c := &AppConfig{}
	if err := env.Parse(c); err != nil {
		log.FromCtx(ctx).Fatal().Err(err).Msg("failed to parse App config")
	}
	return c
}

func (c AppConfig) GetRuntimePath() string {
	return c.RuntimePath
}

func (c AppConfig) GetDatabasePath() string {
	return filepath.Join(c.RuntimePath, "healthbot.db")
}

func (c AppConfig) GetHistoryDir() string {
	return filepath.Join(c.RuntimePath, "history")
}

func (c AppConfig) IsTelegramSelected() bool {
	return c.EnableTelegram
}
