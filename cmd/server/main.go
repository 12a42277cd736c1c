package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgallion1/docusum/internal/api"
	"github.com/dgallion1/docusum/internal/config"
	"github.com/dgallion1/docusum/internal/llm"
	"github.com/dgallion1/docusum/internal/pipeline"
	"github.com/dgallion1/docusum/internal/store"
	"github.com/dgallion1/docusum/internal/textclean"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	client, err := newClient(cfg)
	if err != nil {
		log.Error("llm client init failed", "error", err)
		os.Exit(1)
	}

	rules, err := textclean.LoadRules(cfg.RulesFile)
	if err != nil {
		log.Error("load rules failed", "error", err)
		os.Exit(1)
	}

	cache, err := store.OpenCache(cfg.CachePath)
	if err != nil {
		log.Error("open result cache failed", "error", err)
		os.Exit(1)
	}
	comments, err := store.OpenComments(cfg.CommentsDBPath)
	if err != nil {
		log.Error("open comments db failed", "error", err)
		os.Exit(1)
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(cfg, client, rules, cache, log)
	orch.Start(ctx)

	// Initialize HTTP server.
	srv := api.NewServer(orch, client, comments, log, cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute, // synchronous uploads wait for every chapter
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		orch.Stop()

		client.Close()
		cache.Close()
		comments.Close()
	}()

	log.Info("starting docusum",
		"port", cfg.Port,
		"provider", cfg.LLMProvider,
		"model", client.Model(),
		"max_concurrency", cfg.MaxConcurrency,
		"smoothing", cfg.SmoothingEnabled,
	)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}

func newClient(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider == "openai" {
		return llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIBaseURL, cfg.LLMRateLimit)
	}
	return llm.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiBaseURL, cfg.LLMRateLimit), nil
}
