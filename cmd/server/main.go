package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/affilifind/backend/config"
	httpDelivery "github.com/affilifind/backend/internal/delivery/http"
	"github.com/affilifind/backend/internal/domain"
	"github.com/affilifind/backend/internal/infrastructure/cache"
	"github.com/affilifind/backend/internal/infrastructure/store"
	"github.com/affilifind/backend/internal/infrastructure/upstream"
	"github.com/affilifind/backend/internal/usecase"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	initSlog(cfg.Log.Level)

	if err := run(cfg); err != nil {
		slog.Error("background service stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	slog.Info("starting AffiliFind background",
		"version", version,
		"environment", cfg.Server.Environment,
		"port", cfg.Server.Port,
		"session_cache", cfg.Cache.Session,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize infrastructure dependencies
	kv, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return err
	}
	defer kv.Close()

	memoryCache := cache.NewMemoryCache()
	defer memoryCache.Close()

	session, closeSession, err := openSession(cfg.Cache)
	if err != nil {
		return err
	}
	defer closeSession()

	configService := usecase.NewConfigService(kv, domain.ExtensionConfig{
		APIBase:    cfg.API.BaseURL,
		APIKey:     cfg.API.APIKey,
		AutoInject: cfg.API.AutoInject,
	})
	if err := configService.EnsureDefaults(ctx); err != nil {
		return fmt.Errorf("seed extension config: %w", err)
	}

	client := upstream.NewClient(configService, cfg.RateLimit.Upstream)
	if cfg.Server.Environment == "development" {
		client.SetDebug(true)
		slog.Debug("upstream client debug mode enabled")
	}
	if cfg.API.APIKey == "" {
		slog.Warn("no default API key configured; requests go out unauthenticated until SET_CONFIG provides one")
	}

	// Initialize usecase layer
	background := usecase.NewBackground(usecase.BackgroundServices{
		Deals:       usecase.NewDealService(memoryCache, session, client, usecase.DealServiceConfig{CacheTTL: cfg.Cache.TTL}),
		Intel:       usecase.NewIntelService(memoryCache, client, cfg.Cache.TTL),
		Suggestions: usecase.NewSuggestionService(client, usecase.NewQueryPreprocessor(cfg.Log.Level == "debug"), cfg.Cache.SearchSize, cfg.Cache.SearchTTL),
		History:     usecase.NewHistoryService(kv),
		Config:      configService,
		Tabs:        usecase.NewTabRegistry(session),
	})

	// Create HTTP handler and router
	router := httpDelivery.SetupRouter(cfg, httpDelivery.NewHandler(background))

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// openSession opens the session cache tier. "none" disables it; the
// returned store is then a nil interface.
func openSession(cfg config.CacheConfig) (domain.SessionStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Session {
	case "none":
		return nil, noop, nil
	case "disk":
		c, err := cache.NewSessionCache(cfg.SessionDir)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		c, err := cache.NewSessionCache("")
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	}
}

func initSlog(level string) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelInfo
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      l,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}
