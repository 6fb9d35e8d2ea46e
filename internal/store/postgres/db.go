package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
)

// DefaultQueryTimeout is applied to individual non-transactional queries to
// prevent runaway SQL from holding connections indefinitely.
const DefaultQueryTimeout = 30 * time.Second

type DB struct {
	*sql.DB
}

type Config struct {
	URL                string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	StatementTimeoutMS int
}

func New(cfg Config) (*DB, error) {
	connURL := cfg.URL
	if cfg.StatementTimeoutMS > 0 {
		connURL = appendStatementTimeout(connURL, cfg.StatementTimeoutMS)
	}

	db, err := sql.Open("postgres", connURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(2 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return &DB{db}, nil
}

// appendStatementTimeout appends statement_timeout to the connection URL so
// it applies to all connections in the pool, not just one session.
func appendStatementTimeout(url string, timeoutMS int) string {
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "options=-c%20statement_timeout%3D" + strconv.Itoa(timeoutMS)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// RunMigrations reads *.up.sql files from dir and executes them in sorted
// order, using a schema_migrations table so each migration runs at most once.
func (db *DB) RunMigrations(dir string) error {
	if _, err := db.ExecContext(context.Background(), `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	files, err := filepath.Glob(filepath.Join(dir, "*.up.sql"))
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		version := filepath.Base(f)

		var exists bool
		if err := db.QueryRowContext(context.Background(), `
			SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE version = $1)
		`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", version, err)
		}
		if exists {
			continue
		}

		if err := db.applyMigration(f, version); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) applyMigration(path, version string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", version, err)
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", version, err)
	}
	if _, err := tx.Exec(string(payload)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("apply migration %s: %w", version, err)
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", version, err)
	}
	return nil
}
