package config

import (
	"flag"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	Addr string

	DBDriver       string
	DatabaseURL    string
	DBUser         string
	DBPassword     string
	DBHost         string
	DBPort         string
	DBName         string
	DBSSLMode      string
	DBPath         string
	DBMaxConns     int32
	DBConnLifetime time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	AllowedOrigins []string
	AdminUsers     []string

	// InitDB drops and recreates the schema before serving.
	InitDB bool
	// Seed loads the built-in questions when the question table is empty.
	Seed bool
}

const defaultJWTSecret = "change-me-tupilaqs-development-secret"

// Load reads .env (if present) and the environment, then applies command
// line flags from args on top.
func Load(args []string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: no .env file loaded, using environment only")
	}

	cfg := &Config{
		Addr:           ":" + getenv("PORT", "8000"),
		DBDriver:       getenv("DB_DRIVER", DriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBUser:         getenv("DB_USER", "postgres"),
		DBPassword:     os.Getenv("DB_PASSWORD"),
		DBHost:         getenv("DB_HOST", "localhost"),
		DBPort:         getenv("DB_PORT", "5432"),
		DBName:         getenv("DB_NAME", "tupilaqs"),
		DBSSLMode:      getenv("DB_SSLMODE", "disable"),
		DBPath:         getenv("DATABASE_PATH", "./tupilaqs.db"),
		DBConnLifetime: time.Hour,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: splitList(getenv("ALLOWED_ORIGINS", "http://localhost:3000")),
		AdminUsers:     splitList(os.Getenv("ADMIN_USERS")),
	}

	maxConns, err := strconv.Atoi(getenv("DB_MAX_CONNS", "10"))
	if err != nil || maxConns <= 0 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", os.Getenv("DB_MAX_CONNS"))
	}
	cfg.DBMaxConns = int32(maxConns)

	cfg.TokenTTL, err = time.ParseDuration(getenv("TOKEN_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}

	fs := flag.NewFlagSet("tupilaqs", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "address to listen on")
	fs.StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "database driver: postgres or sqlite3")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database file")
	fs.BoolVar(&cfg.InitDB, "init-db", false, "drop and recreate all tables")
	fs.BoolVar(&cfg.Seed, "seed", false, "load the built-in questions into an empty database")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}

	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
		log.Println("warning: JWT_SECRET not set, using the development secret")
	}

	return cfg, nil
}

// PostgresURL is the connection string for pgxpool: DATABASE_URL when set,
// otherwise one built from the DB_* settings.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, c.DBPort),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
