package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/api/shared"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
	"github.com/phrazzld/yomu-api/internal/service/capture"
)

// CardCapturer creates cards from captured words.
type CardCapturer interface {
	Capture(ctx context.Context, req capture.Request) (*domain.Card, error)
}

// CardReviewer is the review surface the HTTP layer needs.
type CardReviewer interface {
	BuildQueue(ctx context.Context) ([]*domain.Card, error)
	GetCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)
	RateCard(ctx context.Context, cardID uuid.UUID, rating domain.Rating) (*domain.Card, error)
	Preview(card *domain.Card) map[domain.Rating]int
}

// CardHandler serves card capture, lookup and single-card review.
type CardHandler struct {
	capturer CardCapturer
	reviewer CardReviewer
	logger   *slog.Logger
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(capturer CardCapturer, reviewer CardReviewer, logger *slog.Logger) *CardHandler {
	if capturer == nil || reviewer == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("capturer and reviewer cannot be nil for CardHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CardHandler{
		capturer: capturer,
		reviewer: reviewer,
		logger:   logger.With(slog.String("component", "card_handler")),
	}
}

// CaptureCard handles POST /cards.
func (h *CardHandler) CaptureCard(w http.ResponseWriter, r *http.Request) {
	var req CaptureCardRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	card, err := h.capturer.Capture(r.Context(), capture.Request{
		Word:    req.Word,
		Reading: req.Reading,
		Meaning: req.Meaning,
		Lemma:   req.Lemma,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to capture word")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).DebugContext(r.Context(), "card captured",
		slog.String("card_id", card.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, cardToResponse(card))
}

// GetCard handles GET /cards/{id}.
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	id, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	card, err := h.reviewer.GetCard(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}

// ListDue handles GET /reviews. An empty queue is a 200 with [].
func (h *CardHandler) ListDue(w http.ResponseWriter, r *http.Request) {
	cards, err := h.reviewer.BuildQueue(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build review queue")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardsToQueue(cards))
}

// Review handles POST /review.
func (h *CardHandler) Review(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	id, err := parseUUID(req.CardID, "card_id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	rating, err := domain.ParseRating(req.Rating)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	card, err := h.reviewer.RateCard(r.Context(), id, rating)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, cardToResponse(card))
}
