package capture_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/events"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/mocks"
	"github.com/phrazzld/yomu-api/internal/platform/sqlite"
	"github.com/phrazzld/yomu-api/internal/service/capture"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, cards store.CardStore, emitter events.EventEmitter) *capture.Service {
	t.Helper()
	svc, err := capture.NewService(cards, emitter, 2.5, nil, capture.WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return svc
}

func TestNewService_NilStore(t *testing.T) {
	_, err := capture.NewService(nil, nil, 2.5, nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCapture_Success(t *testing.T) {
	ctx := context.Background()
	cards := &mocks.MockCardStore{}
	cards.On("FindByIdentity", ctx, "食べる", "たべる").Return(nil, store.ErrCardNotFound)
	cards.On("Insert", ctx, mock.AnythingOfType("*domain.Card")).Return(nil)
	emitter := &mocks.RecordingEmitter{}

	svc := newService(t, cards, emitter)
	card, err := svc.Capture(ctx, capture.Request{Word: " 食べる ", Reading: "たべる", Meaning: "to eat", Lemma: "食べる"})
	require.NoError(t, err)

	assert.Equal(t, "食べる", card.Word)
	assert.Equal(t, "to eat", card.Meaning)
	assert.Equal(t, 0, card.Scheduling.Interval)
	assert.Equal(t, 0, card.Scheduling.Repetitions)
	assert.Equal(t, 2.5, card.Scheduling.Difficulty)
	assert.True(t, fixedNow.Equal(card.Scheduling.DueAt), "new cards are due immediately")
	assert.True(t, card.IsDue(fixedNow))
	cards.AssertExpectations(t)

	captured := emitter.OfType(events.TypeCardCaptured)
	require.Len(t, captured, 1)
	var payload events.CardCapturedPayload
	require.NoError(t, captured[0].UnmarshalPayload(&payload))
	assert.Equal(t, card.ID, payload.CardID)
	assert.Equal(t, "食べる", payload.Lemma)
	assert.True(t, payload.HasMeaning)
}

func TestCapture_PlaceholderMeaningStoredEmpty(t *testing.T) {
	ctx := context.Background()
	cards := &mocks.MockCardStore{}
	cards.On("FindByIdentity", ctx, "猫", "ネコ").Return(nil, store.ErrCardNotFound)
	cards.On("Insert", ctx, mock.MatchedBy(func(c *domain.Card) bool {
		return c.Meaning == ""
	})).Return(nil)
	emitter := &mocks.RecordingEmitter{}

	svc := newService(t, cards, emitter)
	card, err := svc.Capture(ctx, capture.Request{
		Word:    "猫",
		Reading: "ネコ",
		Meaning: " " + lexicon.NotFoundDefinition + " ",
	})
	require.NoError(t, err)
	assert.Empty(t, card.Meaning)
	cards.AssertExpectations(t)

	captured := emitter.OfType(events.TypeCardCaptured)
	require.Len(t, captured, 1)
	var payload events.CardCapturedPayload
	require.NoError(t, captured[0].UnmarshalPayload(&payload))
	assert.False(t, payload.HasMeaning)
}

func TestCapture_AlreadyCaptured(t *testing.T) {
	ctx := context.Background()
	existing, err := domain.NewCard("食べる", "たべる", "to eat", fixedNow, 2.5)
	require.NoError(t, err)

	cards := &mocks.MockCardStore{}
	cards.On("FindByIdentity", ctx, "食べる", "タベル").Return(existing, nil)
	emitter := &mocks.RecordingEmitter{}

	svc := newService(t, cards, emitter)
	_, err = svc.Capture(ctx, capture.Request{Word: "食べる", Reading: "タベル"})
	assert.ErrorIs(t, err, capture.ErrAlreadyCaptured)
	assert.ErrorIs(t, err, store.ErrDuplicateIdentity)

	cards.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	assert.Empty(t, emitter.Events())
}

func TestCapture_LostInsertRace(t *testing.T) {
	ctx := context.Background()
	cards := &mocks.MockCardStore{}
	cards.On("FindByIdentity", ctx, "猫", "ねこ").Return(nil, store.ErrCardNotFound)
	cards.On("Insert", ctx, mock.Anything).Return(store.ErrDuplicateIdentity)

	svc := newService(t, cards, nil)
	_, err := svc.Capture(ctx, capture.Request{Word: "猫", Reading: "ねこ"})
	assert.ErrorIs(t, err, capture.ErrAlreadyCaptured)
}

func TestCapture_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  capture.Request
	}{
		{"missing word", capture.Request{Reading: "ねこ"}},
		{"blank word", capture.Request{Word: "   "}},
		{"word too long", capture.Request{Word: string(make([]rune, 65))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cards := &mocks.MockCardStore{}
			svc := newService(t, cards, nil)

			_, err := svc.Capture(context.Background(), tt.req)
			assert.ErrorIs(t, err, capture.ErrInvalidRequest)
			assert.ErrorIs(t, err, domain.ErrValidation)
			cards.AssertNotCalled(t, "FindByIdentity", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCapture_StoreFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("lookup", func(t *testing.T) {
		cards := &mocks.MockCardStore{}
		cards.On("FindByIdentity", ctx, "猫", "ねこ").Return(nil, store.ErrStoreUnavailable)

		_, err := newService(t, cards, nil).Capture(ctx, capture.Request{Word: "猫", Reading: "ねこ"})
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
		cards.AssertNotCalled(t, "Insert", mock.Anything, mock.Anything)
	})

	t.Run("insert", func(t *testing.T) {
		cards := &mocks.MockCardStore{}
		cards.On("FindByIdentity", ctx, "猫", "ねこ").Return(nil, store.ErrCardNotFound)
		cards.On("Insert", ctx, mock.Anything).Return(store.ErrStoreUnavailable)
		emitter := &mocks.RecordingEmitter{}

		_, err := newService(t, cards, emitter).Capture(ctx, capture.Request{Word: "猫", Reading: "ねこ"})
		assert.ErrorIs(t, err, store.ErrStoreUnavailable)
		assert.NotErrorIs(t, err, capture.ErrAlreadyCaptured)
		assert.Empty(t, emitter.Events())
	})
}

func TestCapture_EmitterFailureDoesNotFailCapture(t *testing.T) {
	ctx := context.Background()
	cards := &mocks.MockCardStore{}
	cards.On("FindByIdentity", ctx, "猫", "ねこ").Return(nil, store.ErrCardNotFound)
	cards.On("Insert", ctx, mock.Anything).Return(nil)

	svc := newService(t, cards, &mocks.RecordingEmitter{Err: errors.New("handler exploded")})
	card, err := svc.Capture(ctx, capture.Request{Word: "猫", Reading: "ねこ"})
	require.NoError(t, err)
	assert.NotNil(t, card)
}

// TestCapture_ConcurrentSameIdentity exercises the dedup rule against a real
// store: of many simultaneous captures, exactly one succeeds.
func TestCapture_ConcurrentSameIdentity(t *testing.T) {
	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "capture.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cards := sqlite.NewSQLiteCardStore(db, nil)
	svc, err := capture.NewService(cards, nil, 2.5, nil)
	require.NoError(t, err)

	const writers = 10
	errs := make([]error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reading := "たべる"
			if i%2 == 1 {
				reading = "タベル"
			}
			_, errs[i] = svc.Capture(ctx, capture.Request{Word: "食べる", Reading: reading})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, capture.ErrAlreadyCaptured)
	}
	assert.Equal(t, 1, succeeded)

	n, err := cards.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
