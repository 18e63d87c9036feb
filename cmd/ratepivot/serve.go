package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/damon-houk/ratepivot/internal/application/service"
	"github.com/damon-houk/ratepivot/internal/config"
	"github.com/damon-houk/ratepivot/internal/domain/repository"
	"github.com/damon-houk/ratepivot/internal/infrastructure/cache"
	"github.com/damon-houk/ratepivot/internal/infrastructure/db"
	"github.com/damon-houk/ratepivot/internal/infrastructure/handler"
	"github.com/damon-houk/ratepivot/internal/infrastructure/logger"
	"github.com/damon-houk/ratepivot/internal/infrastructure/metrics"
)

// serve runs the HTTP mode until SIGINT/SIGTERM.
func serve(cfg *config.Config, log logger.Logger) error {
	results, closeResults, err := openResultRepository(cfg, log)
	if err != nil {
		return err
	}
	defer closeResults()

	m := metrics.NewMetrics("ratepivot")
	svc := service.NewPivotService(results, m, log, service.WithMaxFillDays(cfg.MaxFillDays))
	h := handler.NewPivotHandler(svc, log, version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler.NewRouter(h, m.Handler(), log, cfg.BodyLimit),
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info("Server started", map[string]interface{}{
		"addr":      cfg.Addr,
		"cache_dir": cfg.CacheDir,
		"cache_ttl": cfg.CacheTTL.String(),
		"version":   version,
	})

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-done:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	log.Info("Server stopped", nil)
	return nil
}

// openResultRepository picks badger when a cache directory is configured and
// the in-memory cache otherwise.
func openResultRepository(cfg *config.Config, log logger.Logger) (repository.PivotResultRepository, func(), error) {
	if cfg.CacheDir == "" {
		c := cache.NewResultCache(cfg.CacheTTL)
		ctx, cancel := context.WithCancel(context.Background())
		go c.RunJanitor(ctx, time.Minute)
		return c, cancel, nil
	}

	badgerDB, err := db.OpenBadger(cfg.CacheDir)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if err := badgerDB.Close(); err != nil {
			log.Error("Error closing BadgerDB", map[string]interface{}{"error": err.Error()})
		}
	}
	return db.NewBadgerResultRepository(badgerDB, cfg.CacheTTL), closeFn, nil
}
