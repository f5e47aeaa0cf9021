// HTTP API for the fitlog diet tracker.
// Usage: go run . (reads .env from the working directory)
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

	"github.com/gin-gonic/gin"

	"github.com/lyleguay/fitlog/internal/auth"
	"github.com/lyleguay/fitlog/internal/config"
	"github.com/lyleguay/fitlog/internal/logging"
	"github.com/lyleguay/fitlog/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fitlog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	// Production schemas are migrated explicitly with fitlogctl.
	if cfg.IsDevelopment() {
		if _, err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	h := newHandler(db, auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL), log, cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newRouter(h, cfg.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Infow("server starting", "addr", cfg.Addr, "env", cfg.Env, "storage", cfg.StorageBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
