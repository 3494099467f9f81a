// Command server runs the Tractor rules service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/findfriends/tractor/service/internal/auth"
	"github.com/findfriends/tractor/service/internal/cache"
	"github.com/findfriends/tractor/service/internal/config"
	"github.com/findfriends/tractor/service/internal/database"
	"github.com/findfriends/tractor/service/internal/game"
	"github.com/findfriends/tractor/service/internal/server"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("invalid configuration")
	}
	log, err := config.NewLogger(cfg, os.Stderr)
	if err != nil {
		logrus.WithError(err).Fatal("invalid log settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	opts := []game.Option{game.WithLogger(log)}

	var (
		presets game.PresetChain
		loader  *config.PresetLoader
	)
	if cfg.PresetDir != "" {
		loader = config.NewPresetLoader(cfg.PresetDir)
		if err := loader.ValidateAll(ctx); err != nil {
			return err
		}
		presets = append(presets, loader)
		log.WithField("dir", cfg.PresetDir).Info("yaml presets enabled")
	}
	if cfg.DatabaseURL != "" {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		store := database.NewPresetStore(pool)
		if err := store.Migrate(ctx); err != nil {
			return err
		}
		presets = append(presets, store)
		log.Info("stored presets enabled")
	}
	if len(presets) > 0 {
		opts = append(opts, game.WithPresets(presets))
	}

	if cfg.RedisURL != "" {
		rdb, err := cache.Dial(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		opts = append(opts, game.WithExplainCache(cache.NewRedis(rdb, cfg.ExplainCacheTTL)))
		log.WithField("ttl", cfg.ExplainCacheTTL).Info("explain cache enabled")
	}

	srv := server.New(game.NewEvaluator(opts...), auth.NewVerifier(cfg.JWTSecret, "tractor"), log)
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	if loader != nil {
		g.Go(func() error { return loader.Watch(gctx, log) })
	}
	g.Go(func() error {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
