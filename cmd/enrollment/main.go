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

	"go.uber.org/zap"

	"service-enrollment/internal/app"
	"service-enrollment/internal/repository"
	"service-enrollment/migrations"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	logger.Debug("config loaded",
		zap.String("db_driver", string(cfg.dialect)),
		zap.String("http_addr", cfg.HTTPAddr),
		zap.String("identity_base_url", cfg.IdentityBaseURL),
		zap.Int("db_max_open", cfg.DBMaxOpenConns),
		zap.Int("db_max_idle", cfg.DBMaxIdleConns),
		zap.Duration("db_conn_max_lifetime", cfg.DBConnMaxLifetime),
		zap.String("conflict_policy", cfg.policy.String()),
	)

	db, err := repository.Open(cfg.dialect, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxIdleConns)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.Ping(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	logger.Debug("database connection successful")

	if err := migrations.Up(db, cfg.dialect); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Debug("migrations completed successfully")

	application := app.New(db, app.Options{
		Dialect:         cfg.dialect,
		StorageTimeout:  cfg.StorageTimeout,
		ConflictPolicy:  cfg.policy,
		IdentityBaseURL: cfg.IdentityBaseURL,
	}, logger)

	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           application.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-shutdownCtx.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Warn("http shutdown error", zap.Error(err))
		}
	}()

	logger.Info("service-enrollment listening", zap.String("addr", cfg.HTTPAddr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("http server error", zap.Error(err))
	}
}
