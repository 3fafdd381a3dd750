package main

import (
	"context"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"service-enrollment/internal/repository"
	"service-enrollment/internal/seed"
	"service-enrollment/migrations"
)

type config struct {
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"enrollment.db"`
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	_ = godotenv.Load()
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		logger.Fatal("config error", zap.Error(err))
	}
	dialect, err := repository.ParseDialect(cfg.DBDriver)
	if err != nil {
		logger.Fatal("config error", zap.Error(err))
	}

	db, err := repository.Open(dialect, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	if err := migrations.Up(db, dialect); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users, err := seed.Load(ctx, repository.NewSQLTxManager(db, dialect, 30*time.Second))
	if err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	for _, user := range users {
		logger.Info("seeded user",
			zap.String("username", user.Username),
			zap.String("role", string(user.Role)),
			zap.String("x_user_id", user.ID.String()),
		)
	}
}
