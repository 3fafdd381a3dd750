package main

import (
	"os"
	"testing"
	"time"

	"service-enrollment/internal/repository"
	"service-enrollment/internal/schedule"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, key := range []string{"DB_DRIVER", "DATABASE_URL", "HTTP_ADDR", "STORAGE_TIMEOUT", "SCHEDULE_CONFLICT_POLICY"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.dialect != repository.DialectSQLite {
		t.Fatalf("dialect = %q, want %q", cfg.dialect, repository.DialectSQLite)
	}
	if cfg.HTTPAddr != ":5001" {
		t.Fatalf("http addr = %q, want %q", cfg.HTTPAddr, ":5001")
	}
	if cfg.StorageTimeout != 5*time.Second {
		t.Fatalf("storage timeout = %s, want 5s", cfg.StorageTimeout)
	}
	if cfg.policy != schedule.FailOpen {
		t.Fatalf("policy = %v, want %v", cfg.policy, schedule.FailOpen)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/enrollment")
	t.Setenv("SCHEDULE_CONFLICT_POLICY", "fail_closed")
	t.Setenv("STORAGE_TIMEOUT", "2s")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.dialect != repository.DialectPostgres {
		t.Fatalf("dialect = %q, want %q", cfg.dialect, repository.DialectPostgres)
	}
	if cfg.policy != schedule.FailClosed {
		t.Fatalf("policy = %v, want %v", cfg.policy, schedule.FailClosed)
	}
	if cfg.StorageTimeout != 2*time.Second {
		t.Fatalf("storage timeout = %s, want 2s", cfg.StorageTimeout)
	}
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "oracle")

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	if _, err := newLogger("loud"); err == nil {
		t.Fatal("expected error for unknown level")
	}
	if _, err := newLogger("warn"); err != nil {
		t.Fatalf("newLogger(warn): %v", err)
	}
}
