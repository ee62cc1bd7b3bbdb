package postgres

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/yomu-api/internal/store"
)

// PostgreSQL error codes
const (
	// uniqueViolationCode is the PostgreSQL error code for unique constraint violations
	uniqueViolationCode = "23505"

	// foreignKeyViolationCode is the PostgreSQL error code for foreign key violations
	foreignKeyViolationCode = "23503"

	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"

	// notNullViolationCode is the PostgreSQL error code for not null violations
	notNullViolationCode = "23502"
)

// identityConstraint is the unique constraint over the normalized identity key.
const identityConstraint = "cards_identity_key"

// MapError maps a database error onto the store sentinels.
//
// Constraint violations become ErrDuplicate or ErrInvalidEntity, a violation of
// the identity constraint becomes ErrDuplicateIdentity, sql.ErrNoRows becomes
// ErrNotFound, and anything else is reported as ErrStoreUnavailable with the
// original error still reachable through errors.Is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %v", store.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == identityConstraint {
				return fmt.Errorf("%w: %v", store.ErrDuplicateIdentity, err)
			}
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case foreignKeyViolationCode:
			return fmt.Errorf(
				"%w: foreign key violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case checkViolationCode:
			return fmt.Errorf(
				"%w: check constraint violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ConstraintName,
				err,
			)
		case notNullViolationCode:
			return fmt.Errorf(
				"%w: not null violation (%s): %v",
				store.ErrInvalidEntity,
				pgErr.ColumnName,
				err,
			)
		}
	}

	// Errors already expressed in store terms pass through.
	if errors.Is(err, store.ErrNotFound) ||
		errors.Is(err, store.ErrDuplicate) ||
		errors.Is(err, store.ErrInvalidEntity) ||
		errors.Is(err, store.ErrStaleCardState) ||
		errors.Is(err, store.ErrStoreUnavailable) {
		return err
	}

	return fmt.Errorf("%w: %w", store.ErrStoreUnavailable, err)
}

// rowsAffected returns the number of rows a statement changed.
func rowsAffected(result sql.Result) (int64, error) {
	if result == nil {
		return 0, fmt.Errorf("%w: nil result", store.ErrStoreUnavailable)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get rows affected: %w", store.ErrStoreUnavailable, err)
	}

	return n, nil
}
