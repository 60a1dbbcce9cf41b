package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vyvo/animate/pkg/api"
	"github.com/vyvo/animate/pkg/config"
	"github.com/vyvo/animate/pkg/logging"
	"github.com/vyvo/animate/pkg/poller"
	"github.com/vyvo/animate/pkg/provider"
	"github.com/vyvo/animate/pkg/submission"
	"github.com/vyvo/animate/pkg/taskcache"
	"github.com/vyvo/animate/pkg/telemetry"
)

func main() {
	cfg, err := config.LoadServer()
	if err != nil {
		baseLogger := logging.Base()
		baseLogger.Fatal().Err(err).Msg("failed to load config")
	}

	logging.Configure(logging.Config{Level: cfg.LogLevel, Service: cfg.ServiceName})
	logger := logging.WithComponent("server")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracer := telemetry.InitTracer(ctx, cfg.ServiceName, os.Stderr, logger)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	// The provider client is built on first use so the service starts, and
	// reports a clear error per request, even without credentials.
	upstream := provider.NewLazy(provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Model:   cfg.Provider.Model,
		Timeout: cfg.Provider.Timeout,
	})

	submitter := submission.New(upstream, logging.WithComponent("submission"))
	var status api.StatusChecker = poller.New(upstream, logging.WithComponent("poller"))

	if cfg.RedisURL != "" {
		cache, err := taskcache.Dial(cfg.RedisURL, status, cfg.CacheTTL, logging.WithComponent("taskcache"))
		if err != nil {
			logger.Warn().Err(err).Msg("task cache disabled")
		} else {
			defer cache.Close()
			status = cache
		}
	}

	router := api.NewRouter(submitter, status, api.Options{
		MaxBodyBytes: cfg.MaxBodyBytes,
		RateLimit:    cfg.RateLimit.Requests,
		RateWindow:   cfg.RateLimit.Window,
		Logger:       logging.WithComponent("http"),
	})

	httpSrv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("animate server listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Info().Msg("animate server stopped")
}
