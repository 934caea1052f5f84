package sqlitestore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB is a SQLite database holding the subscriptions table.
type DB struct {
	db *sqlx.DB
}

type migration struct {
	version int
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		sql: `
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);
			CREATE TABLE IF NOT EXISTS subscriptions (
				endpoint        TEXT PRIMARY KEY,
				p256dh          TEXT NOT NULL,
				auth            TEXT NOT NULL,
				created_at_ms   INTEGER NOT NULL,
				expiration_ms   INTEGER NULL
			);
			INSERT INTO schema_version (version) VALUES (1);`,
	},
}

// Open opens (or creates) the database at path, enables WAL and a busy
// timeout, and applies pending migrations.
func Open(path string) (*DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// One writer connection; SQLite serializes writes anyway and this keeps
	// BUSY errors out of the conditional insert path.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	s := &DB{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *DB) runMigrations() error {
	current := 0
	var tables int
	err := s.db.Get(&tables, "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'")
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}
	if tables > 0 {
		if err := s.db.Get(&current, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// X exposes the sqlx handle to repositories built on this database.
func (s *DB) X() *sqlx.DB { return s.db }

// Ping checks the connection.
func (s *DB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the underlying connection pool.
func (s *DB) Close() error { return s.db.Close() }
