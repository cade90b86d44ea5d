package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"

	"tupilaqs/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// Store is the quiz database. It speaks plain SQL over database/sql so the
// same queries run against PostgreSQL and SQLite.
type Store struct {
	db      *sql.DB
	driver  string
	closers []func()
}

// Connect opens the database named by cfg and makes sure the schema exists.
func Connect(ctx context.Context, cfg *config.Config) (*Store, error) {
	var (
		s   *Store
		err error
	)
	switch cfg.DBDriver {
	case config.DriverSQLite:
		s, err = OpenSQLite(ctx, cfg.DBPath)
	default:
		s, err = openPostgres(ctx, cfg)
	}
	if err != nil {
		return nil, err
	}

	if cfg.InitDB {
		log.Println("dropping and recreating all tables")
		err = s.Reset(ctx)
	} else {
		err = s.Migrate(ctx)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.PostgresURL())
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = cfg.DBMaxConns
	poolConfig.MaxConnLifetime = cfg.DBConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	return &Store{
		db:     sqlDB,
		driver: config.DriverPostgres,
		closers: []func(){
			func() { sqlDB.Close() },
			pool.Close,
		},
	}, nil
}

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writers from tripping over SQLite's file lock.
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &Store{
		db:      sqlDB,
		driver:  config.DriverSQLite,
		closers: []func(){func() { sqlDB.Close() }},
	}, nil
}

func (s *Store) Close() {
	for _, c := range s.closers {
		c()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range s.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Reset drops every table and recreates the schema.
func (s *Store) Reset(ctx context.Context) error {
	for _, table := range dropOrder {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			return fmt.Errorf("drop %s: %w", table, err)
		}
	}
	return s.Migrate(ctx)
}

func (s *Store) schema() []string {
	if s.driver == config.DriverSQLite {
		return sqliteSchema
	}
	return postgresSchema
}

var placeholder = regexp.MustCompile(`\$(\d+)`)

// q adapts a query written with $N placeholders to the store's driver.
func (s *Store) q(query string) string {
	if s.driver == config.DriverSQLite {
		return placeholder.ReplaceAllString(query, "?$1")
	}
	return query
}
