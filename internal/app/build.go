// Package app wires the service components together.
package app

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/smartsupport-ai/supportline/internal/catalogue"
	"github.com/smartsupport-ai/supportline/internal/config"
	"github.com/smartsupport-ai/supportline/internal/dialogue"
	"github.com/smartsupport-ai/supportline/internal/fallback"
	"github.com/smartsupport-ai/supportline/internal/httpapi"
	"github.com/smartsupport-ai/supportline/internal/memory"
	"github.com/smartsupport-ai/supportline/internal/observability"
)

// Options tweak Build for different entry points.
type Options struct {
	// Metrics disabled keeps the Prometheus default registry untouched,
	// which the REPL and one-shot CLI commands do not need.
	EnableMetrics bool
}

// BuildResult bundles the wired components.
type BuildResult struct {
	Config    config.Config
	Catalogue *catalogue.Catalogue
	Manager   *memory.Manager
	Engine    *dialogue.Engine
	API       *httpapi.Server
	Metrics   *observability.Metrics

	// Cleanup persists all memories and releases the durable store. Call
	// it on every exit path, including signal-driven ones, so that no
	// acknowledged turn is silently lost.
	Cleanup func() error
}

func Build(ctx context.Context, cfg config.Config, opts Options) (*BuildResult, error) {
	cat, err := catalogue.Load(cfg.CataloguePath)
	if err != nil {
		return nil, fmt.Errorf("catalogue init failed: %w", err)
	}

	var metrics *observability.Metrics
	if opts.EnableMetrics {
		metrics = observability.NewMetrics(cfg.MetricsNamespace)
	}

	store, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.MemoryFile)
	if err != nil {
		return nil, fmt.Errorf("memory store init failed: %w", err)
	}

	manager := memory.NewManager(store, metrics)
	if err := manager.RestoreAll(ctx); err != nil {
		// A malformed store starts the session with empty memories rather
		// than refusing to start.
		log.Printf("memory restore failed, starting fresh: %v", err)
	}

	responder, err := fallback.NewResponder(fallback.Config{
		Mode:   cfg.FallbackMode,
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.OpenAIModel,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("fallback responder init failed: %w", err)
	}

	engine := dialogue.NewEngine(cat, manager, responder, metrics, dialogue.Options{
		HistoryTurns:    cfg.HistoryContextTurns,
		FallbackTimeout: cfg.FallbackTimeout,
	})

	api := httpapi.New(cfg, engine, manager, metrics)

	cleanup := func() error {
		persistCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		persistErr := manager.PersistAll(persistCtx)
		closeErr := store.Close()
		if persistErr != nil {
			return persistErr
		}
		return closeErr
	}

	return &BuildResult{
		Config:    cfg,
		Catalogue: cat,
		Manager:   manager,
		Engine:    engine,
		API:       api,
		Metrics:   metrics,
		Cleanup:   cleanup,
	}, nil
}
