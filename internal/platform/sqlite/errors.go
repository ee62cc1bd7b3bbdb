package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/phrazzld/yomu-api/internal/store"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// MapError maps a SQLite error onto the store sentinels. Unrecognised
// failures, including SQLITE_BUSY, are reported as ErrStoreUnavailable.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		msg := sqliteErr.Error()
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return duplicateError(msg, err)
		case sqlite3.SQLITE_CONSTRAINT_CHECK,
			sqlite3.SQLITE_CONSTRAINT_NOTNULL,
			sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		case sqlite3.SQLITE_CONSTRAINT:
			// Primary result code only; fall back to the message.
			if strings.Contains(msg, "UNIQUE constraint failed") {
				return duplicateError(msg, err)
			}
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, store.ErrInvalidEntity) ||
		errors.Is(err, store.ErrStaleCardState) ||
		errors.Is(err, store.ErrStoreUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, err)
}

func duplicateError(msg string, err error) error {
	if strings.Contains(msg, "cards.word_key") {
		return fmt.Errorf("%w: %v", store.ErrDuplicateIdentity, err)
	}
	return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
}
