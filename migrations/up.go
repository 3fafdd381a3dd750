package migrations

import (
	"database/sql"

	"service-enrollment/internal/repository"
)

// Up applies the migration set matching the dialect.
func Up(db *sql.DB, dialect repository.Dialect) error {
	if dialect == repository.DialectPostgres {
		return UpPostgres(db)
	}
	return UpSQLite(db)
}
