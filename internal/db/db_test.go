package db_test

import (
	"path/filepath"
	"runtime"
	"testing"

	"timetracker/internal/db"
)

func sqliteMigrationsDir(t *testing.T) string {
	t.Helper()
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "..", "..", "migrations", "sqlite")
}

func TestRunMigrationsIsIdempotent(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	dir := sqliteMigrationsDir(t)
	if err := db.RunMigrations(database, dir); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := db.RunMigrations(database, dir); err != nil {
		t.Fatalf("second run: %v", err)
	}

	// Both tables must exist with the project column in place.
	for _, table := range []string{"work_sessions", "manual_entries"} {
		var count int
		query := `SELECT COUNT(1) FROM pragma_table_info('` + table + `') WHERE name = 'project'`
		if err := database.QueryRow(query).Scan(&count); err != nil {
			t.Fatalf("inspect %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("expected project column on %s, found %d", table, count)
		}
	}
}

func TestRunMigrationsBackfillsProjectColumn(t *testing.T) {
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "legacy.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	// Schema as it looked before the project column existed.
	legacy := []string{
		`CREATE TABLE work_sessions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			start_time TEXT NOT NULL,
			end_time TEXT,
			duration INTEGER,
			task_name TEXT,
			notes TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE manual_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			duration INTEGER NOT NULL,
			task_name TEXT NOT NULL,
			notes TEXT,
			created_at TEXT NOT NULL
		)`,
		`INSERT INTO manual_entries (date, duration, task_name, created_at)
		 VALUES ('2024-01-05', 3600, 'old work', '2024-01-05T10:00:00Z')`,
	}
	for _, stmt := range legacy {
		if _, err := database.Exec(stmt); err != nil {
			t.Fatalf("prepare legacy schema: %v", err)
		}
	}

	if err := db.RunMigrations(database, sqliteMigrationsDir(t)); err != nil {
		t.Fatalf("run migrations on legacy db: %v", err)
	}

	// Old rows survive and the new column is usable.
	var task string
	if err := database.QueryRow(`SELECT task_name FROM manual_entries WHERE id = 1`).Scan(&task); err != nil {
		t.Fatalf("read legacy row: %v", err)
	}
	if task != "old work" {
		t.Errorf("unexpected legacy task: %q", task)
	}

	if _, err := database.Exec(
		`UPDATE manual_entries SET project = 'migrated' WHERE id = 1`,
	); err != nil {
		t.Errorf("project column not usable: %v", err)
	}
}
