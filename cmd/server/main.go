package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyforge/syllabd/internal/api"
	"github.com/studyforge/syllabd/internal/catalog"
	"github.com/studyforge/syllabd/internal/config"
	"github.com/studyforge/syllabd/internal/llm"
	"github.com/studyforge/syllabd/internal/pipeline"
	"github.com/studyforge/syllabd/internal/store"
	"github.com/studyforge/syllabd/internal/tutor"
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

	// Initialize storage.
	st, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := st.Migrate(ctx); err != nil {
		log.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Initialize clients.
	client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.ChatModel, cfg.EmbedModel)

	cat, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		log.Error("loading chapter catalog failed", "path", cfg.CatalogPath, "error", err)
		os.Exit(1)
	}
	if cat.Len() > 0 {
		log.Info("chapter catalog loaded", "entries", cat.Len())
	}

	// Initialize pipeline.
	orch := pipeline.NewOrchestrator(&cfg, st, client, log)
	orch.Start(ctx)

	// Tutoring sessions with periodic TTL eviction.
	sessions := tutor.NewSessionStore(cfg.SessionTTL)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sessions.Cleanup()
			}
		}
	}()

	// Initialize HTTP server.
	srv := api.NewServer(orch, st, client, cat, sessions, log, &cfg)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		orch.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
		st.Close()
	}()

	log.Info("starting syllabd", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
