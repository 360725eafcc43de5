// Command thesis-server serves the thesis assistant pages' API over HTTP.
//
// Usage:
//
//	thesis-server -config thesis.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/haowjy/thesis-llm-go/assistant"
	"github.com/haowjy/thesis-llm-go/config"
	"github.com/haowjy/thesis-llm-go/prompts"
	"github.com/haowjy/thesis-llm-go/providers"
	"github.com/haowjy/thesis-llm-go/render"
	"github.com/haowjy/thesis-llm-go/server"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default: $THESIS_CONFIG or ./thesis.yaml)")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	provider, err := providers.New(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("creating provider: %w", err)
	}

	registry, err := prompts.LoadFile(cfg.Prompts.File)
	if err != nil {
		return fmt.Errorf("loading prompts: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cfg.Profile.OpenStore(ctx)
	if err != nil {
		return fmt.Errorf("opening profile store: %w", err)
	}
	defer closeStore()

	svc := assistant.New(provider, registry,
		assistant.WithFallback(providers.Fallback(cfg.LLM)),
		assistant.WithRenderer(render.New(cfg.Render.Mode)),
		assistant.WithStore(store),
		assistant.WithDefaults(cfg.Profile.Defaults),
		assistant.WithLogger(logger),
	)

	logger.Info("assistant ready",
		"provider", provider.Name(),
		"model", cfg.LLM.Model,
		"use_cases", len(svc.UseCases()),
		"demo_fallback", cfg.LLM.DemoFallback,
		"profile_store", storeKind(cfg.Profile),
	)

	return server.New(svc, cfg.Server, logger).Run(ctx)
}

func storeKind(c config.ProfileConfig) string {
	if c.DSN != "" {
		return "postgres"
	}
	return "file"
}
