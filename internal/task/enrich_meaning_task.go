package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/redact"
	"github.com/phrazzld/yomu-api/internal/store"
)

// Common errors
var (
	ErrNilCardStore  = errors.New("card store cannot be nil")
	ErrNilDictionary = errors.New("dictionary cannot be nil")
	ErrEmptyCardID   = errors.New("card ID cannot be empty")
)

// enrichAttempts bounds how often a meaning write is retried after losing
// an optimistic-concurrency race.
const enrichAttempts = 2

// EnrichMeaningTask looks up the meaning of a captured card and stores it.
// Only the meaning is written; the scheduling state read from the store is
// written back unchanged.
type EnrichMeaningTask struct {
	id     uuid.UUID
	cardID uuid.UUID
	lemma  string
	cards  store.CardStore
	dict   lexicon.Dictionary
	now    func() time.Time
	logger *slog.Logger

	mu     sync.RWMutex
	status TaskStatus
}

// NewEnrichMeaningTask creates a task for cardID. lemma is the dictionary
// form to look up; when empty the card's word is used.
func NewEnrichMeaningTask(
	cardID uuid.UUID,
	lemma string,
	cards store.CardStore,
	dict lexicon.Dictionary,
	logger *slog.Logger,
) (*EnrichMeaningTask, error) {
	if cards == nil {
		return nil, ErrNilCardStore
	}
	if dict == nil {
		return nil, ErrNilDictionary
	}
	if cardID == uuid.Nil {
		return nil, ErrEmptyCardID
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &EnrichMeaningTask{
		id:     uuid.New(),
		cardID: cardID,
		lemma:  strings.TrimSpace(lemma),
		cards:  cards,
		dict:   dict,
		now:    time.Now,
		logger: logger.With(
			slog.String("task_type", TaskTypeEnrichMeaning),
			slog.String("card_id", cardID.String())),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *EnrichMeaningTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *EnrichMeaningTask) Type() string {
	return TaskTypeEnrichMeaning
}

// CardID returns the card this task enriches.
func (t *EnrichMeaningTask) CardID() uuid.UUID {
	return t.cardID
}

// Status returns the current task status
func (t *EnrichMeaningTask) Status() TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *EnrichMeaningTask) setStatus(s TaskStatus) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// Execute runs the lookup and write.
func (t *EnrichMeaningTask) Execute(ctx context.Context) error {
	t.setStatus(TaskStatusProcessing)

	if err := t.execute(ctx); err != nil {
		t.setStatus(TaskStatusFailed)
		return err
	}

	t.setStatus(TaskStatusCompleted)
	return nil
}

func (t *EnrichMeaningTask) execute(ctx context.Context) error {
	card, err := t.cards.GetByID(ctx, t.cardID)
	if err != nil {
		return fmt.Errorf("load card: %w", err)
	}
	if card.Meaning != "" && !lexicon.IsPlaceholder(card.Meaning) {
		t.logger.DebugContext(ctx, "card already has a meaning, skipping")
		return nil
	}

	word := lexicon.Token{Surface: card.Word, Lemma: t.lemma}.DictionaryForm()

	meaning, err := t.dict.Define(ctx, word)
	if errors.Is(err, lexicon.ErrDefinitionNotFound) {
		t.logger.InfoContext(ctx, "no definition found, leaving meaning empty",
			slog.String("word", word))
		return nil
	}
	if err != nil {
		return fmt.Errorf("define %q: %w", word, err)
	}

	for attempt := 1; ; attempt++ {
		card.SetMeaning(meaning, t.now())
		err = t.cards.Update(ctx, card)
		if err == nil {
			t.logger.InfoContext(ctx, "card meaning enriched", slog.Int("version", card.Version))
			return nil
		}
		if !errors.Is(err, store.ErrStaleCardState) || attempt >= enrichAttempts {
			return fmt.Errorf("store meaning: %w", err)
		}

		t.logger.DebugContext(ctx, "card changed during enrichment, re-reading",
			redact.ErrorAttr(err))

		card, err = t.cards.GetByID(ctx, t.cardID)
		if err != nil {
			return fmt.Errorf("reload card: %w", err)
		}
		if card.Meaning != "" {
			return nil
		}
	}
}

var _ Task = (*EnrichMeaningTask)(nil)
