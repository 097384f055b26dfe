package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"STORE_DRIVER", "DATABASE_URL", "POSTGRES_PASSWORD", "POSTGRES_USER", "POSTGRES_DB",
		"SQLITE_PATH", "MAX_CONCURRENCY", "RATE_LIMIT_MS", "MISSING_LOCATION_POLICY",
	} {
		t.Setenv(k, "")
	}
	// Point at a file that does not exist so a stray .env never leaks in.
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()

	if cfg.StoreDriver != DriverPostgres {
		t.Errorf("StoreDriver: got %q, want %q", cfg.StoreDriver, DriverPostgres)
	}
	if cfg.MaxConcurrency != 1 {
		t.Errorf("MaxConcurrency: got %d, want 1", cfg.MaxConcurrency)
	}
	if cfg.MissingLocationPolicy != "placeholder" {
		t.Errorf("MissingLocationPolicy: got %q", cfg.MissingLocationPolicy)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("STORE_DRIVER=SQLite\nRATE_LIMIT_MS=250\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ENV_FILE", path)
	// godotenv does not override variables that are already set, even empty ones.
	os.Unsetenv("STORE_DRIVER")
	os.Unsetenv("RATE_LIMIT_MS")
	t.Cleanup(func() {
		os.Unsetenv("STORE_DRIVER")
		os.Unsetenv("RATE_LIMIT_MS")
	})

	cfg := Load()
	if cfg.StoreDriver != DriverSQLite {
		t.Errorf("StoreDriver: got %q, want %q", cfg.StoreDriver, DriverSQLite)
	}
	if cfg.RateLimitMs != 250 {
		t.Errorf("RateLimitMs: got %d, want 250", cfg.RateLimitMs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"postgres without credentials", Config{StoreDriver: DriverPostgres, PostgresUser: "u", PostgresDB: "d"}, true},
		{"postgres with password", Config{StoreDriver: DriverPostgres, PostgresUser: "u", PostgresDB: "d", PostgresPassword: "p"}, false},
		{"postgres with url", Config{StoreDriver: DriverPostgres, DatabaseURL: "postgres://u:p@h/d"}, false},
		{"sqlite with path", Config{StoreDriver: DriverSQLite, SQLitePath: "x.db"}, false},
		{"sqlite without path", Config{StoreDriver: DriverSQLite}, true},
		{"unknown driver", Config{StoreDriver: "mongo"}, true},
	}
	for _, tt := range tests {
		err := tt.cfg.Validate()
		if tt.wantErr && !errors.Is(err, ErrMissingConfig) {
			t.Errorf("%s: expected ErrMissingConfig, got %v", tt.name, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
	}
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	cfg := Config{DatabaseURL: "postgres://u:p@db/medindex", PostgresHost: "ignored"}
	if got := cfg.DSN(); got != "postgres://u:p@db/medindex" {
		t.Errorf("DSN() = %q", got)
	}
}
