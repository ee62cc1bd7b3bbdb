package task

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/mocks"
	"github.com/phrazzld/yomu-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCard(t *testing.T, word, meaning string) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(word, "", meaning, time.Now(), 2.5)
	require.NoError(t, err)
	return card
}

// copyOf returns a distinct copy so each store read hands out its own card.
func copyOf(card *domain.Card) *domain.Card {
	c := *card
	return &c
}

func TestNewEnrichMeaningTask_Validation(t *testing.T) {
	cards := &mocks.MockCardStore{}
	dict := &mocks.MockDictionary{}

	_, err := NewEnrichMeaningTask(uuid.New(), "", nil, dict, nil)
	assert.ErrorIs(t, err, ErrNilCardStore)

	_, err = NewEnrichMeaningTask(uuid.New(), "", cards, nil, nil)
	assert.ErrorIs(t, err, ErrNilDictionary)

	_, err = NewEnrichMeaningTask(uuid.Nil, "", cards, dict, nil)
	assert.ErrorIs(t, err, ErrEmptyCardID)

	task, err := NewEnrichMeaningTask(uuid.New(), " 食べる ", cards, dict, nil)
	require.NoError(t, err)
	assert.Equal(t, TaskTypeEnrichMeaning, task.Type())
	assert.NotEqual(t, uuid.Nil, task.ID())
	assert.Equal(t, "食べる", task.lemma)
}

func TestEnrichMeaningTask_WritesMeaningOnly(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "食べた", "")
	before := card.Scheduling

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(card, nil).Once()
	cards.On("Update", ctx, mock.MatchedBy(func(c *domain.Card) bool {
		return c.Meaning == "to eat" && c.Scheduling == before
	})).Return(nil).Once()

	dict := &mocks.MockDictionary{}
	dict.On("Define", ctx, "食べる").Return("to eat", nil).Once()

	task, err := NewEnrichMeaningTask(card.ID, "食べる", cards, dict, setupTestLogger())
	require.NoError(t, err)

	require.NoError(t, task.Execute(ctx))
	assert.Equal(t, TaskStatusCompleted, task.Status())
	assert.Equal(t, 2, card.Version)
	cards.AssertExpectations(t)
	dict.AssertExpectations(t)
}

func TestEnrichMeaningTask_FallsBackToWord(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "猫", "")

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(card, nil)
	cards.On("Update", ctx, card).Return(nil)

	dict := &mocks.MockDictionary{}
	dict.On("Define", ctx, "猫").Return("cat", nil).Once()

	task, err := NewEnrichMeaningTask(card.ID, "", cards, dict, nil)
	require.NoError(t, err)
	require.NoError(t, task.Execute(ctx))
	assert.Equal(t, "cat", card.Meaning)
}

func TestEnrichMeaningTask_SkipsCardWithMeaning(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "猫", "cat")

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(card, nil)
	dict := &mocks.MockDictionary{}

	task, err := NewEnrichMeaningTask(card.ID, "", cards, dict, nil)
	require.NoError(t, err)
	require.NoError(t, task.Execute(ctx))

	dict.AssertNotCalled(t, "Define", mock.Anything, mock.Anything)
	cards.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEnrichMeaningTask_ReplacesPlaceholderMeaning(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "犬", lexicon.NotFoundDefinition)

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(card, nil)
	cards.On("Update", ctx, card).Return(nil).Once()

	dict := &mocks.MockDictionary{}
	dict.On("Define", ctx, "犬").Return("dog", nil).Once()

	// "*" is the analyzer's marker for an unknown lemma.
	task, err := NewEnrichMeaningTask(card.ID, "*", cards, dict, nil)
	require.NoError(t, err)
	require.NoError(t, task.Execute(ctx))
	assert.Equal(t, "dog", card.Meaning)
	cards.AssertExpectations(t)
}

func TestEnrichMeaningTask_DefinitionNotFound(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "ぴえん", "")

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(card, nil)
	dict := &mocks.MockDictionary{}
	dict.On("Define", ctx, "ぴえん").Return("", lexicon.ErrDefinitionNotFound)

	task, err := NewEnrichMeaningTask(card.ID, "", cards, dict, nil)
	require.NoError(t, err)
	require.NoError(t, task.Execute(ctx))
	assert.Equal(t, TaskStatusCompleted, task.Status())
	cards.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestEnrichMeaningTask_RetriesOnceOnStale(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "犬", "")
	reviewed := *card
	reviewed.Version = 2
	reviewed.Scheduling.Repetitions = 1

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(copyOf(card), nil).Once()
	cards.On("GetByID", ctx, card.ID).Return(&reviewed, nil).Once()
	cards.On("Update", ctx, mock.MatchedBy(func(c *domain.Card) bool { return c.Version == 1 })).
		Return(store.ErrStaleCardState).Once()
	cards.On("Update", ctx, mock.MatchedBy(func(c *domain.Card) bool {
		return c.Version == 2 && c.Scheduling.Repetitions == 1 && c.Meaning == "dog"
	})).Return(nil).Once()

	dict := &mocks.MockDictionary{}
	dict.On("Define", ctx, "犬").Return("dog", nil).Once()

	task, err := NewEnrichMeaningTask(card.ID, "", cards, dict, nil)
	require.NoError(t, err)
	require.NoError(t, task.Execute(ctx))

	assert.Equal(t, 3, reviewed.Version)
	cards.AssertExpectations(t)
}

func TestEnrichMeaningTask_GivesUpAfterSecondStale(t *testing.T) {
	ctx := context.Background()
	card := newTestCard(t, "鳥", "")

	cards := &mocks.MockCardStore{}
	cards.On("GetByID", ctx, card.ID).Return(copyOf(card), nil).Once()
	cards.On("GetByID", ctx, card.ID).Return(copyOf(card), nil).Once()
	cards.On("Update", ctx, mock.Anything).Return(store.ErrStaleCardState)
	dict := &mocks.MockDictionary{}
	dict.On("Define", ctx, "鳥").Return("bird", nil)

	task, err := NewEnrichMeaningTask(card.ID, "", cards, dict, nil)
	require.NoError(t, err)

	err = task.Execute(ctx)
	assert.ErrorIs(t, err, store.ErrStaleCardState)
	assert.Equal(t, TaskStatusFailed, task.Status())
	cards.AssertNumberOfCalls(t, "Update", enrichAttempts)
}

func TestEnrichMeaningTask_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("card missing", func(t *testing.T) {
		id := uuid.New()
		cards := &mocks.MockCardStore{}
		cards.On("GetByID", ctx, id).Return(nil, store.ErrCardNotFound)

		task, err := NewEnrichMeaningTask(id, "", cards, &mocks.MockDictionary{}, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, task.Execute(ctx), store.ErrCardNotFound)
	})

	t.Run("lookup failure", func(t *testing.T) {
		card := newTestCard(t, "魚", "")
		cards := &mocks.MockCardStore{}
		cards.On("GetByID", ctx, card.ID).Return(card, nil)
		dict := &mocks.MockDictionary{}
		dict.On("Define", ctx, "魚").Return("", errors.Join(lexicon.ErrLookupFailed, errors.New("503")))

		task, err := NewEnrichMeaningTask(card.ID, "", cards, dict, nil)
		require.NoError(t, err)
		assert.ErrorIs(t, task.Execute(ctx), lexicon.ErrLookupFailed)
		assert.Empty(t, card.Meaning)
	})
}
