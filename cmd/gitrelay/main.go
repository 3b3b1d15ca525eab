// Command gitrelay is a GitHub webhook to Telegram notification relay.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	relayhttp "github.com/Strob0t/GitRelay/internal/adapter/http"
	relayotel "github.com/Strob0t/GitRelay/internal/adapter/otel"
	"github.com/Strob0t/GitRelay/internal/adapter/ristretto"
	_ "github.com/Strob0t/GitRelay/internal/adapter/telegram" // register notifier
	"github.com/Strob0t/GitRelay/internal/config"
	"github.com/Strob0t/GitRelay/internal/logger"
	"github.com/Strob0t/GitRelay/internal/port/notifier"
	"github.com/Strob0t/GitRelay/internal/resilience"
	"github.com/Strob0t/GitRelay/internal/service"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultConfigFile, "path to the TOML configuration file")
	flag.Parse()

	cfg, err := config.LoadFrom(*configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(log)
	defer logCloser.Close()

	slog.Info("config loaded",
		"version", relayhttp.Version,
		"addr", cfg.Server.Addr(),
		"default_chats", len(cfg.Telegram.SendTo),
		"repositories", len(cfg.Repositories),
		"dispatch_async", cfg.Dispatch.Async,
	)

	ctx := context.Background()

	// --- Observability ---
	otelShutdown, err := relayotel.Setup(ctx, cfg.Logging.Service, cfg.Otel.Endpoint)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := relayotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Outbound path ---
	provider, err := notifier.New(cfg.Telegram.Provider, map[string]string{
		"bot_token":  cfg.Telegram.BotToken,
		"api_server": cfg.Telegram.APIServer,
	})
	if err != nil {
		return fmt.Errorf("notifier: %w", err)
	}

	breaker := resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout.Std())
	dispatcher := service.NewDispatcher(provider, breaker, cfg.Dispatch, metrics)

	// --- Dedup ---
	var dedup *ristretto.DedupCache
	if cfg.Dedup.Enabled {
		dedup, err = ristretto.NewDedup(cfg.Dedup.MaxSizeMB<<20, cfg.Dedup.TTL.Std())
		if err != nil {
			return fmt.Errorf("dedup cache: %w", err)
		}
		defer dedup.Close()
	}

	// --- HTTP ---
	handlers := &relayhttp.Handlers{
		Config:     cfg,
		Router:     service.NewRouter(cfg),
		Dispatcher: dispatcher,
		Dedup:      dedup,
		Metrics:    metrics,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(relayhttp.Logger)
	r.Use(relayotel.HTTPMiddleware(cfg.Logging.Service))

	relayhttp.MountRoutes(r, handlers, cfg.Server)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
	}()

	<-done
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	// Let in-flight async sends finish; the payloads were already acked.
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), cfg.Dispatch.DrainTimeout.Std())
	defer cancelDrain()
	if err := dispatcher.Drain(drainCtx); err != nil {
		slog.Warn("dispatch drain incomplete", "error", err)
	}

	return nil
}
