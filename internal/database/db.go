// internal/database/db.go
//
// Database helpers for the Station Guessr server.
// Responsibilities:
//   - Opening SQLite (default), PostgreSQL or MySQL through sqlx.
//   - SQLite gets safe defaults (WAL, busy timeout, foreign keys).
//   - Applying embedded migrations (idempotent, recorded in _migrations).
//
// Note: migrations are written in the common subset of the three dialects.

package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrUnsupportedDriver is returned by Open for drivers other than the three above.
var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Open connects to the database described by driver and dsn.
//
// For sqlite3 the dsn is a file path; its parent directory is created when missing
// and busy timeout / WAL / foreign keys are configured.
// MySQL DSNs should carry parseTime=true so timestamps scan into time.Time.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverSQLite:
		return openSQLite(dsn)
	case DriverPostgres, DriverMySQL:
		db, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ping %s: %w", driver, err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
}

func openSQLite(path string) (*sqlx.DB, error) {
	// Ensure directory exists for ./data/app.db, etc.
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", dir, err)
		}
	}

	db, err := sqlx.Open(DriverSQLite, path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// InsertIgnoreQuery builds an insert of cols into table that silently skips rows
// conflicting with a primary or unique key. The result is rebound for db's driver.
// RowsAffected on the result is 0 when the row was skipped.
func InsertIgnoreQuery(db *sqlx.DB, table string, cols ...string) string {
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(cols)), ",")
	body := fmt.Sprintf("%s (%s) VALUES (%s)", table, strings.Join(cols, ", "), placeholders)

	var q string
	switch db.DriverName() {
	case DriverPostgres:
		q = "INSERT INTO " + body + " ON CONFLICT DO NOTHING"
	case DriverMySQL:
		q = "INSERT IGNORE INTO " + body
	default:
		q = "INSERT OR IGNORE INTO " + body
	}
	return db.Rebind(q)
}

// Migrate applies embedded migrations in lexical order.
//
// - Uses a _migrations table to track applied files.
// - Each file runs statement by statement inside its own transaction.
// - Already applied files are skipped.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS _migrations (name VARCHAR(255) PRIMARY KEY)`); err != nil {
		return fmt.Errorf("create _migrations: %w", err)
	}

	files, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		name := filepath.Base(f)

		var done int
		err := db.QueryRowxContext(ctx, db.Rebind(`SELECT 1 FROM _migrations WHERE name=?`), name).Scan(&done)
		if err == nil {
			log.Debug().Str("migration", name).Msg("already applied")
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("query _migrations: %w", err)
		}

		sqlBytes, err := migrationsFS.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}

		tx, err := db.BeginTxx(ctx, nil)
		if err != nil {
			return err
		}
		for _, stmt := range splitStatements(string(sqlBytes)) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("apply %s: %w", name, err)
			}
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`INSERT INTO _migrations(name) VALUES (?)`), name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record %s: %w", name, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit %s: %w", name, err)
		}
		log.Info().Str("migration", name).Msg("applied")
	}
	return nil
}

// splitStatements drops "--" comment lines and splits the rest on ';'.
// Migrations must not use ';' inside literals.
func splitStatements(script string) []string {
	var lines []string
	for _, line := range strings.Split(script, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		lines = append(lines, line)
	}

	var out []string
	for _, part := range strings.Split(strings.Join(lines, "\n"), ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
