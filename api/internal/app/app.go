// Package app wires the configured engines, policy cache and library. Both
// binaries share it.
package app

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"mediaudit/api/internal/config"
	"mediaudit/api/internal/library"
	"mediaudit/api/internal/ocr"
	"mediaudit/api/internal/ocr/gemini"
	"mediaudit/api/internal/ocr/groq"
	"mediaudit/api/internal/store"
)

const memCacheSize = 64

type App struct {
	Cfg     *config.Config
	Engines *ocr.Engines
	// Audit and Vision are the default engines; nil when not configured.
	Audit   ocr.Engine
	Vision  ocr.Engine
	Library *library.Library
	DB      *sql.DB
	Log     *zap.Logger
}

// NewEngines builds only the providers that have an API key, so an
// unconfigured one is reported as audit.ErrUnconfigured by GetEngine.
func NewEngines(cfg *config.Config) *ocr.Engines {
	engs := &ocr.Engines{}
	if cfg.GroqAPIKey != "" {
		engs.Groq = groq.New(cfg.GroqAPIKey, cfg.GroqModel, cfg.GroqVisionModel)
	}
	if cfg.GeminiAPIKey != "" {
		engs.Gemini = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	}
	return engs
}

// New wires everything. A database that cannot be reached is logged and the
// in-memory cache is used instead.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) *App {
	a := &App{Cfg: cfg, Engines: NewEngines(cfg), Log: log}
	a.Audit = a.pick(cfg.LLMName, "audit")
	a.Vision = a.pick(cfg.VisionLLMName, "vision")

	cache, db, err := store.OpenCache(ctx, cfg.DatabaseURL, memCacheSize)
	if err != nil {
		log.Warn("policy cache: database unavailable, using memory", zap.Error(err))
		cache, db, _ = store.OpenCache(ctx, "", memCacheSize)
	} else if db != nil {
		log.Info("policy cache: postgres", zap.String("dsn", config.SafeDSNSummary(cfg.DatabaseURL)))
		if n, err := store.NewPolicyRepo(db).PurgeOlderThan(ctx, cfg.PolicyCacheTTL); err != nil {
			log.Warn("policy cache purge failed", zap.Error(err))
		} else if n > 0 {
			log.Info("policy cache purged", zap.Int64("rows", n))
		}
	} else {
		log.Info("policy cache: memory")
	}
	a.DB = db
	a.Library = library.New(cfg.DataDir, cache, cfg.PolicyCacheTTL, log)
	return a
}

func (a *App) pick(name, role string) ocr.Engine {
	eng, err := a.Engines.GetEngine(name)
	if err != nil {
		a.Log.Warn("engine not available", zap.String("role", role), zap.String("llm_name", name), zap.Error(err))
		return nil
	}
	return eng
}

// WarmLibrary extracts the library documents in the background when enabled.
func (a *App) WarmLibrary(ctx context.Context) {
	if !a.Cfg.WarmPolicies || a.Vision == nil {
		return
	}
	go func() {
		start := time.Now()
		if err := a.Library.Warm(ctx, a.Vision, 2); err != nil {
			a.Log.Warn("policy library warm-up failed", zap.Error(err))
			return
		}
		a.Log.Info("policy library warmed", zap.Duration("took", time.Since(start)))
	}()
}

// Ping checks the database; nil when there is none.
func (a *App) Ping(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.PingContext(ctx)
}

func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
}
