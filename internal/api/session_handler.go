package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/api/shared"
	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/platform/logger"
	"github.com/phrazzld/yomu-api/internal/service/review"
)

// SessionHandler serves server-held review sessions.
type SessionHandler struct {
	reviewer CardReviewer
	sessions *review.SessionRegistry
	logger   *slog.Logger
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(reviewer CardReviewer, sessions *review.SessionRegistry, logger *slog.Logger) *SessionHandler {
	if reviewer == nil || sessions == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("reviewer and session registry cannot be nil for SessionHandler")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionHandler{
		reviewer: reviewer,
		sessions: sessions,
		logger:   logger.With(slog.String("component", "session_handler")),
	}
}

// Start handles POST /sessions. The session covers the cards due at the
// moment it starts; an empty queue starts complete and is not kept.
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	cards, err := h.reviewer.BuildQueue(r.Context())
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build review queue")
		return
	}

	queue := make([]uuid.UUID, 0, len(cards))
	for _, c := range cards {
		queue = append(queue, c.ID)
	}
	id, session := h.sessions.Start(queue)

	logger.FromContextOrDefault(r.Context(), h.logger).InfoContext(r.Context(), "review session started",
		slog.String("session_id", id),
		slog.Int("cards", len(queue)))

	resp, err := h.describe(r, id, session.State(), nil)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load card")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusCreated, resp)
}

// Get handles GET /sessions/{id}.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	session, err := h.sessions.Get(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respond(w, r, http.StatusOK, id, session.State(), nil)
}

// Reveal handles POST /sessions/{id}/reveal.
func (h *SessionHandler) Reveal(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	state, err := h.sessions.Reveal(id)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.respond(w, r, http.StatusOK, id, state, nil)
}

// Rate handles POST /sessions/{id}/rate.
func (h *SessionHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req RateSessionRequest
	if err := shared.DecodeAndValidate(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	rating, err := domain.ParseRating(req.Rating)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	state, card, err := h.sessions.Rate(r.Context(), id, rating)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	rated := schedulingToResponse(card.Scheduling)
	h.respond(w, r, http.StatusOK, id, state, &rated)
}

// Delete handles DELETE /sessions/{id}.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.sessions.Delete(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respond(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	id string,
	state review.State,
	rated *SchedulingResponse,
) {
	resp, err := h.describe(r, id, state, rated)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load card")
		return
	}
	shared.RespondWithJSON(w, r, status, resp)
}

// describe loads the card the session is presenting, if any.
func (h *SessionHandler) describe(
	r *http.Request,
	id string,
	state review.State,
	rated *SchedulingResponse,
) (SessionResponse, error) {
	resp := SessionResponse{SessionID: id, State: state, Rated: rated}
	if state.Complete {
		return resp, nil
	}
	card, err := h.reviewer.GetCard(r.Context(), state.Current)
	if err != nil {
		return SessionResponse{}, err
	}
	var preview map[domain.Rating]int
	if state.Revealed {
		preview = h.reviewer.Preview(card)
	}
	resp.Card = sessionCard(card, state.Revealed, preview)
	return resp, nil
}
