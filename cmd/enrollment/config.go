package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"service-enrollment/internal/repository"
	"service-enrollment/internal/schedule"
)

type config struct {
	DBDriver               string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL            string        `env:"DATABASE_URL" envDefault:"enrollment.db"`
	HTTPAddr               string        `env:"HTTP_ADDR" envDefault:":5001"`
	LogLevel               string        `env:"LOG_LEVEL" envDefault:"info"`
	IdentityBaseURL        string        `env:"IDENTITY_BASE_URL"`
	DBMaxOpenConns         int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	DBMaxIdleConns         int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	DBConnMaxLifetime      time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	StorageTimeout         time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`
	ScheduleConflictPolicy string        `env:"SCHEDULE_CONFLICT_POLICY" envDefault:"fail_open"`

	dialect repository.Dialect
	policy  schedule.ParsePolicy
}

// loadConfig reads an optional .env file and then the process environment.
func loadConfig() (config, error) {
	_ = godotenv.Load()

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	var err error
	if cfg.dialect, err = repository.ParseDialect(cfg.DBDriver); err != nil {
		return config{}, err
	}
	if cfg.policy, err = schedule.ParsePolicyFromString(cfg.ScheduleConflictPolicy); err != nil {
		return config{}, err
	}
	if cfg.StorageTimeout <= 0 {
		return config{}, fmt.Errorf("STORAGE_TIMEOUT must be positive, got %s", cfg.StorageTimeout)
	}
	return cfg, nil
}

func newLogger(level string) (*zap.Logger, error) {
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	if parsed == zapcore.DebugLevel {
		return zap.NewDevelopment()
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(parsed)
	return zapConfig.Build()
}
