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

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"playlister/internal/app/playlists"
	"playlister/internal/app/users"
	"playlister/internal/auth"
	"playlister/internal/config"
	"playlister/internal/httpapi"
	"playlister/internal/logging"
	"playlister/internal/store/provider"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("playlister exited")
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logging.SetGlobalLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db := provider.New(cfg.Database, logger.Zerolog())
	if err := db.Init(ctx); err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Close(closeCtx); err != nil {
			logger.Error(err, "close database")
		}
	}()

	if cfg.SeedDemoData {
		if err := ensureDemoUser(ctx, db); err != nil {
			return err
		}
	}

	tokens := auth.NewTokenManager(cfg.Security.JWTSecret, auth.DefaultTTL)
	handler := httpapi.New(users.New(db), playlists.New(db), tokens, logger, cfg.CORS.AllowedOrigins).Routes()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("API listening on " + server.Addr)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
