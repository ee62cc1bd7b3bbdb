package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/domain/srs"
	"github.com/phrazzld/yomu-api/internal/events"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
	"github.com/phrazzld/yomu-api/internal/redact"
	"github.com/phrazzld/yomu-api/internal/service"
	"github.com/phrazzld/yomu-api/internal/store"
)

// Rater applies one rating to one card and returns the updated card.
type Rater interface {
	RateCard(ctx context.Context, cardID uuid.UUID, rating domain.Rating) (*domain.Card, error)
}

// Service builds review queues and records ratings.
type Service struct {
	cards     store.CardStore
	scheduler srs.Service
	emitter   events.EventEmitter
	now       func() time.Time
	logger    *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now as the source of "now" for due checks and
// scheduling.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a review service. A nil scheduler uses the default
// parameters; a nil emitter emits nothing.
func NewService(
	cards store.CardStore,
	scheduler srs.Service,
	emitter events.EventEmitter,
	logger *slog.Logger,
	opts ...Option,
) (*Service, error) {
	if cards == nil {
		return nil, fmt.Errorf("%w: card store cannot be nil", domain.ErrValidation)
	}
	if scheduler == nil {
		scheduler = srs.NewDefaultService()
	}
	if emitter == nil {
		emitter = events.NopEmitter{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Service{
		cards:     cards,
		scheduler: scheduler,
		emitter:   emitter,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "review_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time {
	return s.now()
}

// BuildQueue returns every card due now, ordered by due time and then by
// id. The store's order is returned unchanged; an empty queue is not an
// error.
func (s *Service) BuildQueue(ctx context.Context) ([]*domain.Card, error) {
	cards, err := s.cards.ListDue(ctx, s.now())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).ErrorContext(ctx, "failed to list due cards",
			redact.ErrorAttr(err))
		return nil, service.NewServiceError("review", "build queue", "failed to list due cards", err)
	}
	return cards, nil
}

// GetCard returns the card with the given id, or store.ErrCardNotFound.
func (s *Service) GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error) {
	card, err := s.cards.GetByID(ctx, cardID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, err
		}
		return nil, service.NewServiceError("review", "get card", "failed to load card", err)
	}
	return card, nil
}

// Preview returns the interval, in days, each rating would give card now.
func (s *Service) Preview(card *domain.Card) map[domain.Rating]int {
	return s.scheduler.Preview(card.Scheduling)
}

// RateCard schedules the card's next review from rating and persists it.
//
// An invalid rating is rejected with domain.ErrInvalidRating before the
// store is touched. A card changed since it was loaded yields
// store.ErrStaleCardState and nothing is written.
func (s *Service) RateCard(ctx context.Context, cardID uuid.UUID, rating domain.Rating) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("card_id", cardID.String()),
		slog.String("rating", string(rating)))

	if !rating.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	card, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	next, err := s.scheduler.Schedule(card.Scheduling, rating, now)
	if err != nil {
		return nil, service.NewServiceError("review", "rate", "failed to schedule card", err)
	}
	card.ApplySchedule(next, now)

	if err := s.cards.Update(ctx, card); err != nil {
		if errors.Is(err, store.ErrStaleCardState) || errors.Is(err, store.ErrNotFound) {
			log.InfoContext(ctx, "rating not applied", redact.ErrorAttr(err))
			return nil, err
		}
		log.ErrorContext(ctx, "failed to persist rating", redact.ErrorAttr(err))
		return nil, service.NewServiceError("review", "rate", "failed to persist rating", err)
	}

	log.InfoContext(ctx, "card rated",
		slog.Int("interval", next.Interval),
		slog.Time("due_at", next.DueAt))

	s.emit(ctx, card, rating)
	return card, nil
}

func (s *Service) emit(ctx context.Context, card *domain.Card, rating domain.Rating) {
	event, err := events.NewEvent(events.TypeCardReviewed, events.CardReviewedPayload{
		CardID:   card.ID,
		Rating:   string(rating),
		Interval: card.Scheduling.Interval,
		DueAt:    card.Scheduling.DueAt,
	}, s.now())
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).WarnContext(ctx, "failed to emit review event",
			slog.String("card_id", card.ID.String()),
			redact.ErrorAttr(err))
	}
}

var _ Rater = (*Service)(nil)
