package config

import (
	"net/url"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DB_DRIVER", "DATABASE_URL", "DB_USER", "DB_PASSWORD", "DB_HOST", "DB_PORT", "DB_NAME",
		"DB_SSLMODE", "DATABASE_PATH", "DB_MAX_CONNS", "JWT_SECRET", "TOKEN_TTL",
		"ALLOWED_ORIGINS", "ADMIN_USERS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":8000" {
		t.Errorf("expected default addr :8000, got %q", cfg.Addr)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Errorf("expected postgres by default, got %q", cfg.DBDriver)
	}
	if cfg.DBMaxConns != 10 || cfg.DBConnLifetime != time.Hour {
		t.Errorf("unexpected pool settings %d / %s", cfg.DBMaxConns, cfg.DBConnLifetime)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("expected 24h token ttl, got %s", cfg.TokenTTL)
	}
	if cfg.JWTSecret == "" {
		t.Error("expected the development secret to be filled in")
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Errorf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.InitDB || cfg.Seed {
		t.Error("init-db and seed must be opt-in")
	}
}

func TestLoadFromEnvironmentAndFlags(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DB_USER", "quiz")
	t.Setenv("DB_PASSWORD", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "bugs")
	t.Setenv("TOKEN_TTL", "90m")
	t.Setenv("ADMIN_USERS", " alice , bob,,")

	cfg, err := Load([]string{"-db-driver", "sqlite3", "-db-path", "/tmp/q.db", "-seed"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("expected :9000, got %q", cfg.Addr)
	}
	if cfg.DBDriver != DriverSQLite || cfg.DBPath != "/tmp/q.db" || !cfg.Seed {
		t.Errorf("flags not applied: %+v", cfg)
	}
	if cfg.TokenTTL != 90*time.Minute {
		t.Errorf("expected 90m, got %s", cfg.TokenTTL)
	}
	if len(cfg.AdminUsers) != 2 || cfg.AdminUsers[0] != "alice" || cfg.AdminUsers[1] != "bob" {
		t.Errorf("unexpected admin list %v", cfg.AdminUsers)
	}

	want := "postgres://quiz:pw@db:5432/bugs?sslmode=disable"
	if got := cfg.PostgresURL(); got != want {
		t.Errorf("PostgresURL() = %q, want %q", got, want)
	}
}

func TestPostgresURLEscapesCredentials(t *testing.T) {
	cfg := &Config{
		DBUser:     "quiz",
		DBPassword: "p@ss/w:rd",
		DBHost:     "db",
		DBPort:     "5432",
		DBName:     "bugs",
		DBSSLMode:  "require",
	}

	u, err := url.Parse(cfg.PostgresURL())
	if err != nil {
		t.Fatalf("PostgresURL() is not a valid URL: %v", err)
	}
	password, _ := u.User.Password()
	if u.User.Username() != "quiz" || password != "p@ss/w:rd" {
		t.Errorf("credentials did not survive: %q / %q", u.User.Username(), password)
	}
	if u.Host != "db:5432" || u.Path != "/bugs" || u.Query().Get("sslmode") != "require" {
		t.Errorf("unexpected URL %s", u)
	}

	cfg.DatabaseURL = "postgres://other/db"
	if got := cfg.PostgresURL(); got != "postgres://other/db" {
		t.Errorf("DATABASE_URL not preferred, got %q", got)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		args []string
	}{
		{name: "driver", args: []string{"-db-driver", "mysql"}},
		{name: "max conns", env: map[string]string{"DB_MAX_CONNS": "zero"}},
		{name: "ttl", env: map[string]string{"TOKEN_TTL": "forever"}},
		{name: "unknown flag", args: []string{"-nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(tt.args); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}
