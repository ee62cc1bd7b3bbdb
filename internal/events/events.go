package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	// TypeCardCaptured is emitted after a new card has been stored.
	TypeCardCaptured = "card.captured"

	// TypeCardReviewed is emitted after a rating has been persisted.
	TypeCardReviewed = "card.reviewed"
)

// Event is a notification that something happened to a card.
// Payload holds a type-specific document serialized as JSON.
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// CardCapturedPayload describes a freshly captured card.
type CardCapturedPayload struct {
	CardID  uuid.UUID `json:"card_id"`
	Word    string    `json:"word"`
	Reading string    `json:"reading"`
	// Lemma is the dictionary form reported by the tokenizer, if any.
	Lemma      string `json:"lemma,omitempty"`
	HasMeaning bool   `json:"has_meaning"`
}

// CardReviewedPayload describes a persisted rating.
type CardReviewedPayload struct {
	CardID   uuid.UUID `json:"card_id"`
	Rating   string    `json:"rating"`
	Interval int       `json:"interval"`
	DueAt    time.Time `json:"due_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *Event) UnmarshalPayload(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// NewEvent creates an Event with the specified type and payload.
func NewEvent(eventType string, payload any, now time.Time) (*Event, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: now.UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	HandleEvent(ctx context.Context, event *Event) error
}

// EventEmitter defines an interface for components that can emit events.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *Event) error
}

// NopEmitter discards every event.
type NopEmitter struct{}

// EmitEvent implements EventEmitter.
func (NopEmitter) EmitEvent(context.Context, *Event) error { return nil }
