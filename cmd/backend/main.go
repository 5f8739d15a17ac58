package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	artifactimpl "github.com/foxseedlab/koenote/external/artifact"
	configloader "github.com/foxseedlab/koenote/external/config"
	repositoryimpl "github.com/foxseedlab/koenote/external/repository"
	restructurerimpl "github.com/foxseedlab/koenote/external/restructurer"
	transcriberimpl "github.com/foxseedlab/koenote/external/transcriber"
	"github.com/foxseedlab/koenote/internal/account"
	"github.com/foxseedlab/koenote/internal/api"
	"github.com/foxseedlab/koenote/internal/capture"
	"github.com/foxseedlab/koenote/internal/config"
	"github.com/foxseedlab/koenote/internal/note"
	"github.com/foxseedlab/koenote/internal/server"
	"github.com/samber/do/v2"
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env, "port", cfg.Port)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	artifactimpl.RegisterDI(injector)
	transcriberimpl.RegisterDI(injector)
	restructurerimpl.RegisterDI(injector)
	capture.RegisterDI(injector)
	note.RegisterDI(injector)
	account.RegisterDI(injector)
	api.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	handler, err := do.Invoke[*api.Handler](injector)
	if err != nil {
		slog.Error("failed to resolve http handler", "error", err)
		os.Exit(1)
	}
	captures, err := do.Invoke[*capture.Manager](injector)
	if err != nil {
		slog.Error("failed to resolve capture manager", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go captures.RunJanitor(ctx)

	srv := server.New(cfg, handler.Routes())
	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
		cancel()
		if err := <-done; err != nil {
			slog.Error("server stopped with error", "error", err)
			os.Exit(1)
		}
	case err := <-done:
		if err != nil {
			slog.Error("server stopped with error", "error", err)
			os.Exit(1)
		}
	}
}
