package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"mediaudit/api/internal/app"
	"mediaudit/api/internal/config"
	"mediaudit/api/internal/handle"
	"mediaudit/api/internal/httpserver"
	"mediaudit/api/internal/logger"
	"mediaudit/api/internal/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	lg := logger.Must(cfg.LogLevel, cfg.AppEnv)
	defer func() { _ = lg.Sync() }()
	zap.ReplaceGlobals(lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := app.New(ctx, cfg, lg)
	defer a.Close()
	a.WarmLibrary(ctx)

	base := policy.Default()
	lg.Info("baseline policy loaded", zap.String("version", base.Version()), zap.String("hash", base.Hash))

	h := handle.New(a.Engines,
		handle.WithLibrary(a.Library),
		handle.WithBaseline(base),
		handle.WithDefaults(cfg.LLMName, cfg.VisionLLMName),
		handle.WithTemperature(cfg.AuditTemperature),
		handle.WithLogger(lg),
	)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Health(a.Ping))
	mux.Handle("/", h.Routes())

	srv := httpserver.New(":"+cfg.Port, mux)
	if err := httpserver.Run(ctx, srv, lg); err != nil {
		lg.Fatal("http server", zap.Error(err))
	}
}
