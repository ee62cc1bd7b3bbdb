package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// pragmas are applied to every connection through the DSN.
const pragmas = "_pragma=journal_mode(wal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"

const schema = `
CREATE TABLE IF NOT EXISTS cards (
	id               TEXT PRIMARY KEY,
	word             TEXT NOT NULL CHECK (word <> ''),
	reading          TEXT NOT NULL,
	meaning          TEXT NOT NULL DEFAULT '',
	word_key         TEXT NOT NULL CHECK (word_key <> ''),
	reading_key      TEXT NOT NULL CHECK (reading_key <> ''),
	interval_days    INTEGER NOT NULL DEFAULT 0 CHECK (interval_days >= 0),
	due_at           INTEGER NOT NULL,
	difficulty       REAL NOT NULL CHECK (difficulty > 1.0),
	repetitions      INTEGER NOT NULL DEFAULT 0 CHECK (repetitions >= 0),
	last_reviewed_at INTEGER,
	version          INTEGER NOT NULL DEFAULT 1 CHECK (version >= 1),
	created_at       INTEGER NOT NULL,
	updated_at       INTEGER NOT NULL,
	CONSTRAINT cards_identity_key UNIQUE (word_key, reading_key)
);
CREATE INDEX IF NOT EXISTS idx_cards_due ON cards (due_at, id);
`

// Open opens or creates the database file at path and applies the schema.
//
// Times are stored as UTC unix nanoseconds so that due_at sorts numerically.
// The pool holds a single connection; concurrent callers queue on it.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?"+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return db, nil
}
