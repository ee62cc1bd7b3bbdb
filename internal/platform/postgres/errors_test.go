package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/yomu-api/internal/platform/postgres"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func newPgError(code, constraint string) *pgconn.PgError {
	return &pgconn.PgError{
		Code:           code,
		Message:        "error message",
		TableName:      "cards",
		ColumnName:     "word",
		ConstraintName: constraint,
	}
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		err     error
		wantIs  []error
		wantNot []error
	}{
		{
			name:   "no rows",
			err:    sql.ErrNoRows,
			wantIs: []error{store.ErrNotFound},
		},
		{
			name:    "identity unique violation",
			err:     newPgError("23505", "cards_identity_key"),
			wantIs:  []error{store.ErrDuplicateIdentity, store.ErrDuplicate},
			wantNot: []error{store.ErrStoreUnavailable},
		},
		{
			name:    "other unique violation",
			err:     newPgError("23505", "cards_pkey"),
			wantIs:  []error{store.ErrDuplicate},
			wantNot: []error{store.ErrDuplicateIdentity},
		},
		{
			name:   "check violation",
			err:    newPgError("23514", "cards_difficulty_check"),
			wantIs: []error{store.ErrInvalidEntity},
		},
		{
			name:   "not null violation",
			err:    newPgError("23502", ""),
			wantIs: []error{store.ErrInvalidEntity},
		},
		{
			name:   "foreign key violation",
			err:    fmt.Errorf("wrapped: %w", newPgError("23503", "fk")),
			wantIs: []error{store.ErrInvalidEntity},
		},
		{
			name:   "unknown driver error",
			err:    errors.New("connection reset by peer"),
			wantIs: []error{store.ErrStoreUnavailable},
		},
		{
			name:   "context deadline stays visible",
			err:    context.DeadlineExceeded,
			wantIs: []error{store.ErrStoreUnavailable, context.DeadlineExceeded},
		},
		{
			name:    "store errors pass through",
			err:     store.ErrStaleCardState,
			wantIs:  []error{store.ErrStaleCardState},
			wantNot: []error{store.ErrStoreUnavailable},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := postgres.MapError(tt.err)
			for _, want := range tt.wantIs {
				assert.ErrorIs(t, got, want)
			}
			for _, not := range tt.wantNot {
				assert.NotErrorIs(t, got, not)
			}
		})
	}

	assert.NoError(t, postgres.MapError(nil))
}
