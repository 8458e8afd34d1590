package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/sandevgo/healthbot/internal/config"
	"github.com/sandevgo/healthbot/internal/providers/embed"
	"github.com/sandevgo/healthbot/internal/providers/llm"
	"github.com/sandevgo/healthbot/internal/providers/rag"
	"github.com/sandevgo/healthbot/internal/providers/websearch"
	"github.com/sandevgo/healthbot/internal/service/advisor"
	"github.com/sandevgo/healthbot/internal/service/answer"
	"github.com/sandevgo/healthbot/internal/service/memory"
	"github.com/sandevgo/healthbot/internal/service/risk"
	"github.com/sandevgo/healthbot/internal/storage/sqlite"
	"github.com/sandevgo/healthbot/internal/transport/cli"
	"github.com/sandevgo/healthbot/internal/transport/telegram"
	"github.com/sandevgo/healthbot/pkg/log"
	"github.com/sandevgo/healthbot/pkg/srv"
)

// app holds the assembled service graph shared by the subcommands.
type app struct {
	cfg      *config.AppConfig
	advisor  *advisor.Advisor
	ingestor *rag.Ingestor
	cleanup  []srv.Service
}

// NewApp wires configuration, storage, providers and services together.
// Any failure here is fatal; the process cannot run half-assembled.
func NewApp(ctx context.Context) *app {
	logger := log.FromCtx(ctx)

	// init env
	if err := initEnv(ctx, config.GetRuntimePath()); err != nil {
		logger.Fatal().Err(err).Msg("failed to init env")
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	consultCfg := config.NewConsultConfig(ctx)

	// 2. Storage
	db, err := sqlite.NewDB(ctx, appCfg.GetDatabasePath())
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize storage")
	}

	profileRepo := sqlite.NewProfileRepo(db, appCfg.GetHistoryDir())
	knowledgeRepo := sqlite.NewKnowledgeRepo(db)

	// 3. AI Provider
	providerCfg := config.NewProviderConfig(ctx)
	aiProvider, err := llm.NewProvider(ctx, providerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize LLM provider")
	}

	// 4. Embedder + knowledge retrieval
	embedCfg := config.NewEmbeddingConfig(ctx)
	embedder, err := embed.NewEmbedder(ctx, embedCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize embedder")
	}

	retriever := rag.NewRetriever(embedder, knowledgeRepo)
	ingestor := rag.NewIngestor(embedder, knowledgeRepo)

	// 5. Web search fallback
	wsCfg := config.NewWebSearchConfig(ctx)
	web := websearch.NewDuckDuckGo(wsCfg.BaseURL, time.Duration(wsCfg.TimeoutSec)*time.Second, wsCfg.MaxResults)

	// 6. Consultation services
	monitor := risk.NewMonitor(aiProvider, consultCfg)
	workflow := answer.NewWorkflow(aiProvider, retriever, web, consultCfg)
	consolidator := memory.NewConsolidator(profileRepo, memory.NewExtractor(aiProvider))

	adv := advisor.New(profileRepo, aiProvider, monitor, workflow, consolidator, consultCfg)

	return &app{
		cfg:      appCfg,
		advisor:  adv,
		ingestor: ingestor,
		cleanup:  []srv.Service{srv.NewCleanup(db.Close)},
	}
}

// NewServices assembles the long-running transports for `start`.
func NewServices(ctx context.Context) []srv.Service {
	logger := log.FromCtx(ctx)

	a := NewApp(ctx)
	services := append([]srv.Service{}, a.cleanup...)

	if a.cfg.EnableCLI {
		rl, err := cli.NewReadLine(a.advisor, a.cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize terminal transport")
		}
		services = append(services, rl)
	}

	if a.cfg.IsTelegramSelected() {
		tgCfg := config.NewTelegramConfig(ctx)
		bot, err := telegram.NewBot(ctx, tgCfg, a.advisor)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to initialize telegram bot")
		}
		services = append(services, bot)
	}

	return services
}

func (a *app) Close(ctx context.Context) {
	for _, c := range a.cleanup {
		if err := c.Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("cleanup failed")
		}
	}
}

func initEnv(ctx context.Context, runtimePath string) error {
	logger := log.FromCtx(ctx)
	envFile := filepath.Join(runtimePath, ".env")

	if _, err := os.Stat(envFile); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := godotenv.Load(envFile); err != nil {
		logger.Warn().Err(err).Str("path", envFile).Msg("failed to load .env file")
		return err
	}

	logger.Debug().Str("path", envFile).Msg("loaded .env file")
	return nil
}
