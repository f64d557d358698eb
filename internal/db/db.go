package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// OpenSQLite opens the embedded file-based engine, creating the parent
// directory if needed. A single connection avoids SQLITE_BUSY under the
// request-per-call model.
func OpenSQLite(path string) (*sqlx.DB, error) {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=8000", path)
	database, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)
	database.SetConnMaxLifetime(0)
	database.SetConnMaxIdleTime(30 * time.Second)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return database, nil
}

// OpenPostgres opens the client-server engine through the pgx stdlib
// driver, so callers see the same *sqlx.DB either way.
func OpenPostgres(databaseURL string) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("open postgres: DATABASE_URL is empty")
	}

	database, err := sqlx.Open("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	database.SetMaxOpenConns(25)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(30 * time.Minute)
	database.SetConnMaxIdleTime(5 * time.Minute)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return database, nil
}

// RunMigrations applies the SQL files under migrationsDir in name order,
// recording each in schema_migrations so reruns are no-ops, then makes
// sure the project column exists on databases that predate it.
func RunMigrations(database *sqlx.DB, migrationsDir string) error {
	if _, err := database.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name TEXT PRIMARY KEY,
			applied_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)

	for _, name := range files {
		applied, err := isMigrationApplied(database, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		path := filepath.Join(migrationsDir, name)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		tx, err := database.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", name, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("execute migration %s: %w", name, err)
		}

		if _, err := tx.Exec(
			database.Rebind(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`),
			name,
			time.Now().UTC().Format(time.RFC3339Nano),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}

	return ensureProjectColumns(database)
}

func isMigrationApplied(database *sqlx.DB, name string) (bool, error) {
	var count int
	if err := database.QueryRow(
		database.Rebind(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`),
		name,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return count > 0, nil
}

// ensureProjectColumns backfills the project column on tables created
// before it existed. Guarded by a column-existence check so it stays
// idempotent even when schema_migrations has no record of the change.
func ensureProjectColumns(database *sqlx.DB) error {
	for _, table := range []string{"work_sessions", "manual_entries"} {
		present, err := columnExists(database, table, "project")
		if err != nil {
			return err
		}
		if present {
			continue
		}
		if _, err := database.Exec(fmt.Sprintf(`ALTER TABLE %s ADD COLUMN project TEXT`, table)); err != nil {
			return fmt.Errorf("add project column to %s: %w", table, err)
		}
	}
	return nil
}

func columnExists(database *sqlx.DB, table, column string) (bool, error) {
	var query string
	switch database.DriverName() {
	case "sqlite3":
		query = fmt.Sprintf(`SELECT COUNT(1) FROM pragma_table_info('%s') WHERE name = ?`, table)
	default:
		query = `SELECT COUNT(1) FROM information_schema.columns WHERE table_name = '` + table + `' AND column_name = ?`
	}

	var count int
	if err := database.QueryRow(database.Rebind(query), column).Scan(&count); err != nil {
		return false, fmt.Errorf("check %s.%s column: %w", table, column, err)
	}
	return count > 0, nil
}
