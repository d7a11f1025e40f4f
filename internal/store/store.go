// Package store keeps the local SQLite database: the model-call event log
// and the saved API keys.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	_ "modernc.org/sqlite"
)

// pragmas run on the single pooled connection right after it opens.
var pragmas = []string{
	"journal_mode = WAL",
	"busy_timeout = 5000",
	"foreign_keys = ON",
	"synchronous = NORMAL",
}

type Store struct {
	db  *sql.DB
	drv *entsql.Driver
}

// Open connects to the database at dsn, which may be a file path or a
// sqlite URI, and creates any missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection keeps the pragmas and a shared in-memory database
	// consistent.
	db.SetMaxOpenConns(1)

	for _, p := range pragmas {
		if _, err := db.Exec("PRAGMA " + p); err != nil {
			db.Close()
			return nil, fmt.Errorf("PRAGMA %s: %w", p, err)
		}
	}

	drv := entsql.OpenDB(dialect.SQLite, db)
	if err := migrate(context.Background(), drv); err != nil {
		drv.Close()
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return &Store{db: db, drv: drv}, nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.drv.Close() }

func (s *Store) EventRepo() *LLMEventRepo { return &LLMEventRepo{db: s.db} }

// CredentialRepo returns the API key slots.
func (s *Store) CredentialRepo() *SettingsRepo { return &SettingsRepo{db: s.db} }

// DefaultDBPath is $MATHSHEET_DB when set, otherwise mathsheet.db under
// $XDG_DATA_HOME/mathsheet (default ~/.local/share). The parent directory
// is created.
func DefaultDBPath() (string, error) {
	p := os.Getenv("MATHSHEET_DB")
	if p == "" {
		base := os.Getenv("XDG_DATA_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("resolve home dir: %w", err)
			}
			base = filepath.Join(home, ".local", "share")
		}
		p = filepath.Join(base, "mathsheet", "mathsheet.db")
	}
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}
