package api

import (
	"time"

	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/phrazzld/yomu-api/internal/lexicon"
	"github.com/phrazzld/yomu-api/internal/service/review"
)

// AnalyzeRequest is the body of POST /analyze.
type AnalyzeRequest struct {
	Content string `json:"content" validate:"required,max=20000"`
}

// AnalyzeResponse lists tokens in reading order.
type AnalyzeResponse struct {
	Tokens []lexicon.Token `json:"tokens"`
}

// DefinitionResponse is the body of GET /definition.
type DefinitionResponse struct {
	Word       string `json:"word"`
	Definition string `json:"definition"`
	Found      bool   `json:"found"`
}

// CaptureCardRequest is the body of POST /cards.
type CaptureCardRequest struct {
	Word    string `json:"word" validate:"required,max=64"`
	Reading string `json:"reading" validate:"max=128"`
	Meaning string `json:"meaning" validate:"max=1000"`
	Lemma   string `json:"lemma" validate:"max=64"`
}

// ReviewRequest is the body of POST /review.
type ReviewRequest struct {
	CardID string `json:"card_id" validate:"required"`
	Rating string `json:"rating" validate:"required"`
}

// RateSessionRequest is the body of POST /sessions/{id}/rate.
type RateSessionRequest struct {
	Rating string `json:"rating" validate:"required"`
}

// SchedulingResponse is a card's schedule.
type SchedulingResponse struct {
	Interval       int        `json:"interval"`
	DueAt          time.Time  `json:"due_at"`
	Difficulty     float64    `json:"difficulty"`
	Repetitions    int        `json:"repetitions"`
	LastReviewedAt *time.Time `json:"last_reviewed_at,omitempty"`
}

// CardResponse is a full card.
type CardResponse struct {
	ID         string             `json:"id"`
	Word       string             `json:"word"`
	Reading    string             `json:"reading"`
	Meaning    string             `json:"meaning"`
	Scheduling SchedulingResponse `json:"scheduling"`
	Version    int                `json:"version"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// QueueItem is one entry of GET /reviews.
type QueueItem struct {
	ID      string `json:"id"`
	Word    string `json:"word"`
	Reading string `json:"reading"`
	Meaning string `json:"meaning"`
}

// SessionCard is the card a session is presenting. Reading, meaning and the
// per-rating intervals are omitted until the card is revealed.
type SessionCard struct {
	ID        string         `json:"id"`
	Word      string         `json:"word"`
	Reading   string         `json:"reading,omitempty"`
	Meaning   string         `json:"meaning,omitempty"`
	Intervals map[string]int `json:"intervals,omitempty"`
}

// SessionResponse describes a server-held review session.
type SessionResponse struct {
	SessionID string              `json:"session_id"`
	State     review.State        `json:"state"`
	Card      *SessionCard        `json:"card,omitempty"`
	Rated     *SchedulingResponse `json:"rated,omitempty"`
}

func schedulingToResponse(s domain.SchedulingState) SchedulingResponse {
	resp := SchedulingResponse{
		Interval:    s.Interval,
		DueAt:       s.DueAt,
		Difficulty:  s.Difficulty,
		Repetitions: s.Repetitions,
	}
	if !s.LastReviewedAt.IsZero() {
		t := s.LastReviewedAt
		resp.LastReviewedAt = &t
	}
	return resp
}

func cardToResponse(card *domain.Card) CardResponse {
	return CardResponse{
		ID:         card.ID.String(),
		Word:       card.Word,
		Reading:    card.Reading,
		Meaning:    card.Meaning,
		Scheduling: schedulingToResponse(card.Scheduling),
		Version:    card.Version,
		CreatedAt:  card.CreatedAt,
		UpdatedAt:  card.UpdatedAt,
	}
}

func cardsToQueue(cards []*domain.Card) []QueueItem {
	items := make([]QueueItem, 0, len(cards))
	for _, c := range cards {
		items = append(items, QueueItem{
			ID:      c.ID.String(),
			Word:    c.Word,
			Reading: c.Reading,
			Meaning: c.Meaning,
		})
	}
	return items
}

func sessionCard(card *domain.Card, revealed bool, preview map[domain.Rating]int) *SessionCard {
	sc := &SessionCard{ID: card.ID.String(), Word: card.Word}
	if revealed {
		sc.Reading = card.Reading
		sc.Meaning = card.Meaning
		sc.Intervals = make(map[string]int, len(preview))
		for rating, days := range preview {
			sc.Intervals[string(rating)] = days
		}
	}
	return sc
}
