// Package capture stores a vocabulary selection as a new card.
package capture

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/events"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
	"github.com/phrazzld/yomu-api/internal/redact"
	"github.com/phrazzld/yomu-api/internal/service"
	"github.com/phrazzld/yomu-api/internal/store"
)

var (
	// ErrAlreadyCaptured is returned when a card with the same identity key
	// already exists. It matches store.ErrDuplicateIdentity with errors.Is.
	ErrAlreadyCaptured = fmt.Errorf("%w: word already captured", store.ErrDuplicateIdentity)

	// ErrInvalidRequest is returned when a capture request fails validation.
	ErrInvalidRequest = fmt.Errorf("%w: invalid capture request", domain.ErrValidation)
)

// Request is a capture of one token. Word and Reading come from the
// tokenizer (surface form and phonetic reading), Meaning from a dictionary
// lookup and may be empty. Lemma is the dictionary form used to enrich an
// empty meaning later.
type Request struct {
	Word    string `json:"word" validate:"required,max=64"`
	Reading string `json:"reading" validate:"max=128"`
	Meaning string `json:"meaning" validate:"max=1000"`
	Lemma   string `json:"lemma" validate:"max=64"`
}

// Service captures vocabulary.
type Service struct {
	cards             store.CardStore
	emitter           events.EventEmitter
	validate          *validator.Validate
	defaultDifficulty float64
	now               func() time.Time
	logger            *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of capture timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a capture service. emitter may be nil, in which case
// no events are emitted.
func NewService(
	cards store.CardStore,
	emitter events.EventEmitter,
	defaultDifficulty float64,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if cards == nil {
		return nil, fmt.Errorf("%w: card store cannot be nil", domain.ErrValidation)
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cards:             cards,
		emitter:           emitter,
		validate:          validator.New(),
		defaultDifficulty: defaultDifficulty,
		now:               time.Now,
		logger:            logger.With(slog.String("component", "capture_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Capture stores a new card for req.
//
// It returns ErrAlreadyCaptured when the normalized word and reading are
// already stored, including when a concurrent capture of the same identity
// wins the insert. On any error no card is created.
func (s *Service) Capture(ctx context.Context, req Request) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	// Clients echo the /definition placeholder back as the meaning.
	meaning := req.Meaning
	if lexicon.IsPlaceholder(meaning) {
		meaning = ""
	}

	card, err := domain.NewCard(req.Word, req.Reading, meaning, s.now(), s.defaultDifficulty)
	if err != nil {
		if errors.Is(err, domain.ErrCardWordEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return nil, service.NewServiceError("capture", "capture", "failed to build card", err)
	}

	existing, err := s.cards.FindByIdentity(ctx, card.Word, card.Reading)
	switch {
	case err == nil:
		log.DebugContext(ctx, "word already captured",
			slog.String("card_id", existing.ID.String()))
		return nil, ErrAlreadyCaptured
	case !errors.Is(err, store.ErrNotFound):
		log.ErrorContext(ctx, "failed to look up card identity", redact.ErrorAttr(err))
		return nil, service.NewServiceError("capture", "capture", "failed to look up identity", err)
	}

	if err := s.cards.Insert(ctx, card); err != nil {
		if errors.Is(err, store.ErrDuplicateIdentity) {
			log.DebugContext(ctx, "lost capture race for identity")
			return nil, ErrAlreadyCaptured
		}
		log.ErrorContext(ctx, "failed to insert card", redact.ErrorAttr(err))
		return nil, service.NewServiceError("capture", "capture", "failed to insert card", err)
	}

	log.InfoContext(ctx, "card captured",
		slog.String("card_id", card.ID.String()),
		slog.Bool("has_meaning", card.Meaning != ""))

	s.emit(ctx, card, req.Lemma)
	return card, nil
}

// emit publishes card.captured. Failures are logged and never undo the capture.
func (s *Service) emit(ctx context.Context, card *domain.Card, lemma string) {
	event, err := events.NewEvent(events.TypeCardCaptured, events.CardCapturedPayload{
		CardID:     card.ID,
		Word:       card.Word,
		Reading:    card.Reading,
		Lemma:      lemma,
		HasMeaning: card.Meaning != "",
	}, s.now())
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "failed to emit capture event",
			slog.String("card_id", card.ID.String()),
			redact.ErrorAttr(err))
	}
}
