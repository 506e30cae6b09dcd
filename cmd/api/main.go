package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kbqa/internal/app"
	"kbqa/internal/config"
	"kbqa/internal/http"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions against per-user knowledge bases using retrieved,
// cited evidence, and manages the markdown documents those knowledge bases hold.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: KBQA API
//   description: |
//     Grounded question answering over knowledge bases. Answers cite the
//     passages they were generated from; questions without qualifying
//     evidence get a fixed reply instead of a generated one.
//   version: 1.0.0
// schemes:
//   - http
//   - https
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)
	slog.Debug("Logging configured", "level", cfg.Log.Level.String(), "format", cfg.Log.Format, "file", cfg.Log.File)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
	}()

	// fail fast when the embeddings model and the store disagree on dimension
	if err := a.CheckEmbedder(ctx); err != nil {
		log.Fatalf("Embedding client check failed: %v", err)
	}
	slog.Info("Embedding client validated", "vector_size", cfg.EmbeddingDimension)

	if err := a.CheckModels(ctx); err != nil {
		slog.Warn("Configured models not listed by model servers", "error", err)
	}

	router := http.NewRouter(&http.Deps{
		Engine:       a.Engine,
		Ingester:     a.Ingester,
		Deleter:      a.Retriever,
		HealthChecks: a.HealthChecks,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &nethttp.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Starting API server", "addr", srv.Addr)
	slog.Debug("LLM configuration", "base_url", cfg.LLMBaseURL, "model", cfg.LLMModelName)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		slog.Error("API server failed", "error", err)
		return
	}
	slog.Info("API server stopped")
}
