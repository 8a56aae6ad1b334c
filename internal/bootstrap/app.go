package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"hub-backend/internal/agents"
	"hub-backend/internal/analyses"
	"hub-backend/internal/llm"
	openai "hub-backend/internal/llm/openai"
	"hub-backend/internal/services/health"
	"hub-backend/internal/shared/config"
	"hub-backend/internal/shared/server"
	"hub-backend/internal/shared/storage/db"
	"hub-backend/internal/shared/storage/kv"
	"hub-backend/internal/shared/telemetry"
	"hub-backend/internal/usage"
)

// App holds shared dependencies.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	DB              *sql.DB
	Redis           *redis.Client
	UsageStore      usage.Store
	Meter           *usage.Meter
	LLM             llm.Completer
	AnalysesRepo    analyses.Repo
	Health          *health.Service
	AgentService    *agents.Service
	UsageHandler    *usage.Handler
	AgentHandler    *agents.Handler
	AnalysisHandler *analyses.Handler
}

// Build connects storage, wires services and handlers, and builds the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	telemetry.SetLevel(cfg.LogLevel)

	app, err := BuildUsage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	completer, err := BuildCompleter(cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.LLM = completer

	if app.DB != nil {
		app.AnalysesRepo = analyses.NewPGRepo(app.DB)
	} else {
		app.AnalysesRepo = analyses.NewMemoryRepo()
	}

	app.AgentService = agents.NewService(app.Meter, app.LLM, app.AnalysesRepo, agents.Models{
		Default: cfg.LLMModel,
		Vision:  cfg.LLMVisionModel,
		Preview: cfg.LLMPreviewModel,
	})
	app.UsageHandler = usage.NewHandler(app.Meter)
	app.AgentHandler = agents.NewHandler(app.AgentService)
	app.AnalysisHandler = analyses.NewHandler(app.AnalysesRepo)

	app.Health = health.NewService()
	if app.DB != nil {
		app.Health.Register("postgres", app.DB)
	}
	if app.Redis != nil {
		app.Health.Register("redis", health.PingFunc(func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		}))
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          cfg,
		Health:          app.Health,
		UsageHandler:    app.UsageHandler,
		AgentHandler:    app.AgentHandler,
		AnalysisHandler: app.AnalysisHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":          cfg.Env,
		"usage_store":  cfg.UsageStore,
		"expiry":       string(app.Meter.Policy()),
		"llm_provider": cfg.LLMProvider,
		"database":     app.DB != nil,
	})
	return app, nil
}

// BuildUsage connects only what the usage meter needs. Callers own Close.
func BuildUsage(ctx context.Context, cfg config.Config) (*App, error) {
	app := &App{Config: cfg}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	if err := buildUsage(ctx, app); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

// Close releases database and cache connections.
func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		_ = a.DB.Close()
	}
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.database_skipped", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		if cfg.UsageStore == "postgres" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		return nil, nil
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.database_unavailable", map[string]any{"error": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	if err := db.RunMigrations(ctx, sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return sqlDB, nil
}

func buildUsage(ctx context.Context, app *App) error {
	cfg := app.Config
	tiers, err := usage.LoadTiers(cfg.TiersConfigPath)
	if err != nil {
		return err
	}

	switch cfg.UsageStore {
	case "redis":
		client, err := kv.Connect(ctx, kv.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err != nil {
			return fmt.Errorf("usage store redis: %w", err)
		}
		app.Redis = client
		app.UsageStore = usage.NewRedisStore(client)
	case "postgres":
		if app.DB == nil {
			telemetry.Warn("bootstrap.usage_store_fallback", map[string]any{"requested": "postgres", "using": "memory"})
			app.UsageStore = usage.NewMemoryStore()
			break
		}
		app.UsageStore = usage.NewPGStore(app.DB)
	default:
		app.UsageStore = usage.NewMemoryStore()
	}

	meter, err := usage.NewMeter(app.UsageStore, tiers, usage.MeterConfig{
		DefaultTier: cfg.DefaultTier,
		Policy:      usage.ExpiryPolicy(cfg.UsageExpiryPolicy),
	})
	if err != nil {
		return err
	}
	app.Meter = meter
	return nil
}

// BuildCompleter returns the configured model client. Without a provider or
// key every call fails with llm.ErrUpstreamUnavailable.
func BuildCompleter(cfg config.Config) (llm.Completer, error) {
	if cfg.LLMProvider != "openai" {
		return llm.Unconfigured{}, nil
	}
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		telemetry.Warn("bootstrap.llm_unconfigured", map[string]any{"reason": "OPENAI_API_KEY empty"})
		return llm.Unconfigured{}, nil
	}
	client, err := openai.NewClient(openai.Config{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.OpenAITimeout,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
