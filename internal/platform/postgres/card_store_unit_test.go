package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/platform/postgres"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cardColumnNames = []string{
	"id", "word", "reading", "meaning", "word_key", "reading_key",
	"interval_days", "due_at", "difficulty", "repetitions", "last_reviewed_at",
	"version", "created_at", "updated_at",
}

func newMockStore(t *testing.T) (*postgres.PostgresCardStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return postgres.NewPostgresCardStore(db, nil), mock
}

func newTestCard(t *testing.T) *domain.Card {
	t.Helper()
	card, err := domain.NewCard("食べる", "たべる", "to eat", time.Now(), 2.5)
	require.NoError(t, err)
	return card
}

func cardRow(card *domain.Card) []driver.Value {
	return []driver.Value{
		card.ID.String(), card.Word, card.Reading, card.Meaning, card.WordKey, card.ReadingKey,
		int64(card.Scheduling.Interval), card.Scheduling.DueAt, card.Scheduling.Difficulty,
		int64(card.Scheduling.Repetitions), nil, int64(card.Version), card.CreatedAt, card.UpdatedAt,
	}
}

func TestNewPostgresCardStore_NilDB(t *testing.T) {
	assert.Panics(t, func() { postgres.NewPostgresCardStore(nil, nil) })
}

func TestPostgresCardStore_Insert(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		s, mock := newMockStore(t)
		card := newTestCard(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cards")).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Insert(ctx, card))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate identity", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cards")).
			WillReturnError(newPgError("23505", "cards_identity_key"))

		err := s.Insert(ctx, newTestCard(t))
		assert.ErrorIs(t, err, store.ErrDuplicateIdentity)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("connection failure", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cards")).
			WillReturnError(errors.New("dial tcp: connection refused"))

		err := s.Insert(ctx, newTestCard(t))
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	})

	t.Run("invalid card never reaches the database", func(t *testing.T) {
		s, mock := newMockStore(t)
		card := newTestCard(t)
		card.WordKey = ""

		err := s.Insert(ctx, card)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrCardKeyEmpty)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresCardStore_Update(t *testing.T) {
	ctx := context.Background()
	updateSQL := regexp.QuoteMeta("UPDATE cards SET")
	existsSQL := regexp.QuoteMeta("SELECT EXISTS")

	t.Run("success bumps version", func(t *testing.T) {
		s, mock := newMockStore(t)
		card := newTestCard(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, s.Update(ctx, card))
		assert.Equal(t, 2, card.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stale version", func(t *testing.T) {
		s, mock := newMockStore(t)
		card := newTestCard(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectRollback()

		err := s.Update(ctx, card)
		assert.ErrorIs(t, err, store.ErrStaleCardState)
		assert.Equal(t, 1, card.Version)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing card", func(t *testing.T) {
		s, mock := newMockStore(t)
		card := newTestCard(t)
		mock.ExpectBegin()
		mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		err := s.Update(ctx, card)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

		err := s.Update(ctx, newTestCard(t))
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
	})
}

func TestPostgresCardStore_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s, mock := newMockStore(t)
		card := newTestCard(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM cards WHERE id = $1")).
			WithArgs(card.ID).
			WillReturnRows(sqlmock.NewRows(cardColumnNames).AddRow(cardRow(card)...))

		got, err := s.GetByID(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.ID, got.ID)
		assert.Equal(t, "たべる", got.ReadingKey)
		assert.True(t, got.Scheduling.LastReviewedAt.IsZero())
	})

	t.Run("not found", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta("FROM cards WHERE id = $1")).
			WillReturnRows(sqlmock.NewRows(cardColumnNames))

		_, err := s.GetByID(ctx, newTestCard(t).ID)
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})
}

func TestPostgresCardStore_FindByIdentity_NormalizesInput(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE word_key = $1 AND reading_key = $2")).
		WithArgs("食べる", "たべる").
		WillReturnError(sql.ErrNoRows)

	_, err := s.FindByIdentity(context.Background(), " 食べる", "タベル")
	assert.ErrorIs(t, err, store.ErrCardNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCardStore_ListDue(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now()
	a, b := newTestCard(t), newTestCard(t)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY due_at ASC, id ASC")).
		WithArgs(now.UTC()).
		WillReturnRows(sqlmock.NewRows(cardColumnNames).
			AddRow(cardRow(a)...).
			AddRow(cardRow(b)...))

	cards, err := s.ListDue(context.Background(), now)
	require.NoError(t, err)
	require.Len(t, cards, 2)
	assert.Equal(t, a.ID, cards[0].ID)
	assert.Equal(t, b.ID, cards[1].ID)
}
