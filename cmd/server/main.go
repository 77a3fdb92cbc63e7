// Stagelink server - pairs performers and observers over WebSocket and turns
// trigger-delimited audio windows into summaries and topics
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/stagelink/platform/internal/config"
	"github.com/stagelink/platform/internal/llm"
	"github.com/stagelink/platform/internal/pipeline"
	"github.com/stagelink/platform/internal/server"
	"github.com/stagelink/platform/internal/session"
	"github.com/stagelink/platform/internal/topic"
	"github.com/stagelink/platform/internal/transcription"
)

func main() {
	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	cfg := config.Load()

	if cfg.DeepgramAPIKey == "" {
		slog.Error("DEEPGRAM_API_KEY is required")
		os.Exit(1)
	}
	if cfg.GeminiAPIKey == "" {
		slog.Error("GEMINI_API_KEY is required")
		os.Exit(1)
	}

	transcriber := transcription.New(cfg.DeepgramAPIKey, cfg.DeepgramModel)
	gemini := llm.New(cfg.GeminiAPIKey, cfg.GeminiModel)

	registry := session.NewRegistry()
	buffers := session.NewBuffers(time.Duration(cfg.BufferTTL * float64(time.Second)))
	pipe := pipeline.New(transcriber, gemini, gemini, topic.NewExtractor(gemini))

	srv := server.New(cfg, registry, buffers, pipe, transcriber)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      srv.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("stagelink server starting", "http", cfg.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			slog.Error("http server error", "error", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}
