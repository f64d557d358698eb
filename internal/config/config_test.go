package config

import (
	"os"
	"testing"
)

func TestGetEnv(t *testing.T) {
	tests := []struct {
		name     string
		key      string
		envValue string
		fallback string
		expected string
	}{
		{"uses env value", "TT_TEST_VAR_1", "hello", "default", "hello"},
		{"uses fallback when unset", "TT_TEST_VAR_2", "", "default", "default"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.envValue != "" {
				os.Setenv(tc.key, tc.envValue)
				defer os.Unsetenv(tc.key)
			}

			if got := getEnv(tc.key, tc.fallback); got != tc.expected {
				t.Errorf("expected %q, got %q", tc.expected, got)
			}
		})
	}
}

func TestGetEnvList(t *testing.T) {
	fallback := []string{"a", "b"}

	os.Setenv("TT_TEST_LIST", "http://one, http://two ,")
	defer os.Unsetenv("TT_TEST_LIST")

	got := getEnvList("TT_TEST_LIST", fallback)
	if len(got) != 2 || got[0] != "http://one" || got[1] != "http://two" {
		t.Errorf("unexpected list: %v", got)
	}

	got = getEnvList("TT_TEST_LIST_UNSET", fallback)
	if len(got) != 2 || got[0] != "a" {
		t.Errorf("expected fallback, got %v", got)
	}
}

func TestLoadMigrationsDirFollowsDriver(t *testing.T) {
	os.Setenv("DB_DRIVER", DriverPostgres)
	defer os.Unsetenv("DB_DRIVER")

	cfg := Load()
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("expected postgres driver, got %s", cfg.DBDriver)
	}
	if cfg.MigrationsDir != "./migrations/postgres" {
		t.Errorf("unexpected migrations dir: %s", cfg.MigrationsDir)
	}
}
