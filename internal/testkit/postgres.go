//go:build integration

package testkit

import (
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"service-enrollment/internal/repository"
	"service-enrollment/migrations"
)

// OpenPostgres migrates a throwaway schema on the server named by
// TEST_DATABASE_URL and drops it when the test ends. The test is skipped
// when the variable is unset.
func OpenPostgres(t testing.TB) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	admin, err := repository.Open(repository.DialectPostgres, dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = admin.Close() })

	schema := "enrollment_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	if _, err := admin.Exec("CREATE SCHEMA " + schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	t.Cleanup(func() {
		if _, err := admin.Exec("DROP SCHEMA " + schema + " CASCADE"); err != nil {
			t.Errorf("drop schema: %v", err)
		}
	})

	sqlDB, err := repository.Open(repository.DialectPostgres, withSearchPath(t, dsn, schema))
	if err != nil {
		t.Fatalf("open postgres schema: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Errorf("close postgres: %v", err)
		}
	})
	if err := migrations.UpPostgres(sqlDB); err != nil {
		t.Fatalf("migrate postgres: %v", err)
	}

	return &DB{
		SQL:       sqlDB,
		TxManager: repository.NewSQLTxManager(sqlDB, repository.DialectPostgres, 10*time.Second),
	}
}

func withSearchPath(t testing.TB, dsn, schema string) string {
	t.Helper()

	if !strings.Contains(dsn, "://") {
		return dsn + " search_path=" + schema
	}
	u, err := url.Parse(dsn)
	if err != nil {
		t.Fatalf("parse TEST_DATABASE_URL: %v", err)
	}
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	return u.String()
}

