package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/stretchr/testify/mock"
)

// MockCardStore implements store.CardStore for testing.
type MockCardStore struct {
	mock.Mock
}

// FindByIdentity implements store.CardStore.
func (m *MockCardStore) FindByIdentity(ctx context.Context, word, reading string) (*domain.Card, error) {
	args := m.Called(ctx, word, reading)
	card, _ := args.Get(0).(*domain.Card)
	return card, args.Error(1)
}

// GetByID implements store.CardStore.
func (m *MockCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	args := m.Called(ctx, id)
	card, _ := args.Get(0).(*domain.Card)
	return card, args.Error(1)
}

// Insert implements store.CardStore.
func (m *MockCardStore) Insert(ctx context.Context, card *domain.Card) error {
	return m.Called(ctx, card).Error(0)
}

// Update implements store.CardStore. On success the card's version is
// bumped, mirroring the real stores.
func (m *MockCardStore) Update(ctx context.Context, card *domain.Card) error {
	err := m.Called(ctx, card).Error(0)
	if err == nil {
		card.Version++
	}
	return err
}

// ListDue implements store.CardStore.
func (m *MockCardStore) ListDue(ctx context.Context, now time.Time) ([]*domain.Card, error) {
	args := m.Called(ctx, now)
	cards, _ := args.Get(0).([]*domain.Card)
	return cards, args.Error(1)
}

// Count implements store.CardStore.
func (m *MockCardStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// WithTx implements store.CardStore and returns the mock itself.
func (m *MockCardStore) WithTx(*sql.Tx) store.CardStore {
	return m
}

var _ store.CardStore = (*MockCardStore)(nil)
