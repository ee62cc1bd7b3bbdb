package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
)

// CardStore defines the interface for card persistence.
//
// Every method is atomic: it either applies its complete effect or none.
// Implementations map driver failures onto the sentinels in errors.go.
type CardStore interface {
	// FindByIdentity returns the card whose normalized identity matches
	// word and reading, or ErrCardNotFound. Normalization is applied by the
	// store, so callers may pass the text exactly as captured.
	FindByIdentity(ctx context.Context, word, reading string) (*domain.Card, error)

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Insert persists a new card.
	// Returns ErrDuplicateIdentity if a card with the same identity key exists,
	// including when a concurrent insert wins the race.
	Insert(ctx context.Context, card *domain.Card) error

	// Update writes the card's meaning and scheduling state, provided the
	// stored version still equals card.Version. On success the version is
	// incremented both in the store and on card.
	// Returns ErrCardNotFound if the card does not exist and
	// ErrStaleCardState if it was modified since it was read.
	Update(ctx context.Context, card *domain.Card) error

	// ListDue returns every card with due_at <= now, ordered by due_at
	// ascending and then by id ascending.
	ListDue(ctx context.Context, now time.Time) ([]*domain.Card, error)

	// Count returns the number of stored cards.
	Count(ctx context.Context) (int, error)

	// WithTx returns a CardStore bound to the provided transaction.
	//
	// Example usage:
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return cardStore.WithTx(tx).Insert(ctx, card)
	//   })
	WithTx(tx *sql.Tx) CardStore
}
