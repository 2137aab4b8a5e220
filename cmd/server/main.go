package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"aipress/internal/broadcast"
	"aipress/internal/config"
	"aipress/internal/fetcher"
	"aipress/internal/pipeline"
	"aipress/internal/scheduler"
	"aipress/internal/server"
	"aipress/internal/storage"
	"aipress/internal/translate"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	var provider translate.Translator
	if cfg.OpenAIAPIKey != "" {
		provider = translate.NewOpenAIClient(cfg.OpenAIAPIKey)
	} else {
		log.Warn("OPENAI_API_KEY not set, translations use the glossary fallback only")
	}
	translator := translate.NewService(provider, log)

	pipe := pipeline.New(store, fetcher.New(http.DefaultClient), translator, cfg.FeedSources, cfg.TargetLang, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := pipe.WarmCache(ctx); err != nil {
		log.Error("warm processed-link cache", "error", err)
	}

	var sender broadcast.Sender
	if cfg.TelegramBotToken != "" {
		tg, err := broadcast.NewTelegram(cfg.TelegramBotToken, cfg.TelegramChannelID, log)
		if err != nil {
			log.Error("create telegram sender", "error", err)
			os.Exit(1)
		}
		sender = tg
	} else {
		log.Warn("TELEGRAM_BOT_TOKEN not set, broadcasts are logged only")
		sender = broadcast.NewLogSender(log)
	}

	sweeper := broadcast.NewSweeper(store, sender, log)
	sched := scheduler.New(pipe, time.Duration(cfg.SyncIntervalMin)*time.Minute, log)
	srv := server.New(store, pipe, log)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Handler(),
		ReadTimeout: 15 * time.Second,
		// Manual sync runs the pipeline synchronously, including its
		// throttle delays, so the write timeout must cover a full pass.
		WriteTimeout: 5 * time.Minute,
	}

	go sched.Run(ctx)
	go sweeper.Run(ctx)

	go func() {
		log.Info("http server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown http server", "error", err)
	}

	log.Info("server stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
