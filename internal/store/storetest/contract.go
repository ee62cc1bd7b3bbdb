// Package storetest holds the behavioral contract every store.CardStore
// backend must satisfy. Backend test files call RunCardStoreContract with a
// factory that returns an empty store.
package storetest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns an empty CardStore for one subtest.
type Factory func(t *testing.T) store.CardStore

// timeTolerance absorbs backends that store microseconds only.
const timeTolerance = time.Millisecond

// NewCard builds a valid card due at dueAt.
func NewCard(t *testing.T, word, reading string, dueAt time.Time) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(word, reading, "", dueAt, 2.5)
	require.NoError(t, err)
	return card
}

// RunCardStoreContract runs the shared CardStore behavior tests.
func RunCardStoreContract(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("insert then find by identity", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		card := NewCard(t, "食べる", "たべる", time.Now())
		card.Meaning = "to eat"
		require.NoError(t, s.Insert(ctx, card))

		found, err := s.FindByIdentity(ctx, "食べる", "タベル")
		require.NoError(t, err)
		assert.Equal(t, card.ID, found.ID)
		assert.Equal(t, "たべる", found.Reading)
		assert.Equal(t, "to eat", found.Meaning)
		assert.Equal(t, 1, found.Version)
		assert.WithinDuration(t, card.Scheduling.DueAt, found.Scheduling.DueAt, timeTolerance)

		_, err = s.FindByIdentity(ctx, "食べる", "くべる")
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("duplicate identity is rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Insert(ctx, NewCard(t, "食べる", "たべる", time.Now())))

		err := s.Insert(ctx, NewCard(t, "食べる", "タベル", time.Now()))
		assert.ErrorIs(t, err, store.ErrDuplicateIdentity)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("concurrent inserts of one identity yield one card", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const writers = 8
		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			card := NewCard(t, "猫", "ねこ", time.Now())
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = s.Insert(ctx, card)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.ErrorIs(t, err, store.ErrDuplicateIdentity)
		}
		assert.Equal(t, 1, succeeded)

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("get by id", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		card := NewCard(t, "水", "みず", time.Now())
		require.NoError(t, s.Insert(ctx, card))

		got, err := s.GetByID(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, card.Word, got.Word)

		_, err = s.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("update writes schedule and bumps version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.Now().UTC()
		card := NewCard(t, "山", "やま", now)
		require.NoError(t, s.Insert(ctx, card))

		card.ApplySchedule(domain.SchedulingState{
			Interval:       4,
			DueAt:          now.AddDate(0, 0, 4),
			Difficulty:     2.65,
			Repetitions:    1,
			LastReviewedAt: now,
		}, now)
		card.SetMeaning("mountain", now)
		require.NoError(t, s.Update(ctx, card))
		assert.Equal(t, 2, card.Version)

		got, err := s.GetByID(ctx, card.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Version)
		assert.Equal(t, "mountain", got.Meaning)
		assert.Equal(t, 4, got.Scheduling.Interval)
		assert.Equal(t, 1, got.Scheduling.Repetitions)
		assert.InDelta(t, 2.65, got.Scheduling.Difficulty, 1e-9)
		assert.WithinDuration(t, now.AddDate(0, 0, 4), got.Scheduling.DueAt, timeTolerance)
		assert.WithinDuration(t, now, got.Scheduling.LastReviewedAt, timeTolerance)
	})

	t.Run("update with stale version", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		card := NewCard(t, "川", "かわ", time.Now())
		require.NoError(t, s.Insert(ctx, card))

		stale := *card
		require.NoError(t, s.Update(ctx, card))

		err := s.Update(ctx, &stale)
		assert.ErrorIs(t, err, store.ErrStaleCardState)
		assert.Equal(t, 1, stale.Version, "a failed update leaves the version alone")
	})

	t.Run("update of missing card", func(t *testing.T) {
		s := newStore(t)
		err := s.Update(context.Background(), NewCard(t, "空", "そら", time.Now()))
		assert.ErrorIs(t, err, store.ErrCardNotFound)
	})

	t.Run("concurrent updates from one read", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		card := NewCard(t, "花", "はな", time.Now())
		require.NoError(t, s.Insert(ctx, card))

		const writers = 6
		errs := make([]error, writers)
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			copyOf := *card
			copyOf.SetMeaning("flower", time.Now())
			wg.Add(1)
			go func(i int, c *domain.Card) {
				defer wg.Done()
				errs[i] = s.Update(ctx, c)
			}(i, &copyOf)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
				continue
			}
			assert.True(t, errors.Is(err, store.ErrStaleCardState), "unexpected error: %v", err)
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("list due is filtered and ordered", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		now := time.Now().UTC().Truncate(time.Second)

		early := NewCard(t, "一", "いち", now.Add(-48*time.Hour))
		tieA := NewCard(t, "二", "に", now.Add(-time.Hour))
		tieB := NewCard(t, "三", "さん", now.Add(-time.Hour))
		boundary := NewCard(t, "四", "よん", now)
		future := NewCard(t, "五", "ご", now.Add(time.Hour))

		for _, c := range []*domain.Card{future, tieB, boundary, early, tieA} {
			require.NoError(t, s.Insert(ctx, c))
		}

		ties := []*domain.Card{tieA, tieB}
		sort.Slice(ties, func(i, j int) bool { return ties[i].ID.String() < ties[j].ID.String() })
		want := []uuid.UUID{early.ID, ties[0].ID, ties[1].ID, boundary.ID}

		due, err := s.ListDue(ctx, now)
		require.NoError(t, err)

		got := make([]uuid.UUID, 0, len(due))
		for _, c := range due {
			got = append(got, c.ID)
		}
		assert.Equal(t, want, got)

		// Same input, same order.
		again, err := s.ListDue(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, len(due), len(again))
		for i := range again {
			assert.Equal(t, due[i].ID, again[i].ID)
		}
	})

	t.Run("list due on empty store", func(t *testing.T) {
		s := newStore(t)
		due, err := s.ListDue(context.Background(), time.Now())
		require.NoError(t, err)
		assert.Empty(t, due)
	})
}
