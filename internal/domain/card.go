package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Card-specific validation errors
var (
	// ErrCardIDEmpty is returned when a card ID is empty or nil.
	ErrCardIDEmpty = errors.New("card ID cannot be empty")

	// ErrCardWordEmpty is returned when a card has no surface form.
	ErrCardWordEmpty = errors.New("card word cannot be empty")

	// ErrCardKeyEmpty is returned when a card's identity key was never computed.
	ErrCardKeyEmpty = errors.New("card identity key cannot be empty")

	// ErrCardVersionInvalid is returned when a card carries a version below 1.
	ErrCardVersionInvalid = errors.New("card version must be at least 1")
)

// Card is a captured vocabulary item together with its review schedule.
//
// Word and Reading hold the text as the learner captured it. WordKey and
// ReadingKey hold the normalized identity used for deduplication; two cards
// with equal keys are the same vocabulary item. Version is incremented on
// every successful write and is used for optimistic concurrency.
type Card struct {
	ID         uuid.UUID       `json:"id"`
	Word       string          `json:"word"`
	Reading    string          `json:"reading"`
	Meaning    string          `json:"meaning"`
	WordKey    string          `json:"-"`
	ReadingKey string          `json:"-"`
	Scheduling SchedulingState `json:"scheduling"`
	Version    int             `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewCard creates a new Card for the given word, reading and meaning.
// The card receives a time-ordered UUID, its identity key, and an initial
// schedule that makes it due immediately.
func NewCard(word, reading, meaning string, now time.Time, defaultDifficulty float64) (*Card, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, ErrCardWordEmpty
	}

	reading = strings.TrimSpace(reading)
	if reading == "" {
		reading = word
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, err
	}

	key := IdentityKey(word, reading)
	now = now.UTC()

	card := &Card{
		ID:         id,
		Word:       word,
		Reading:    reading,
		Meaning:    strings.TrimSpace(meaning),
		WordKey:    key.Word,
		ReadingKey: key.Reading,
		Scheduling: NewSchedulingState(now, defaultDifficulty),
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Identity returns the card's normalized identity key.
func (c *Card) Identity() Key {
	return Key{Word: c.WordKey, Reading: c.ReadingKey}
}

// Validate checks if the Card has valid data.
// Returns an error if any field fails validation.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if strings.TrimSpace(c.Word) == "" {
		return ErrCardWordEmpty
	}

	if c.WordKey == "" || c.ReadingKey == "" {
		return ErrCardKeyEmpty
	}

	if c.Version < 1 {
		return ErrCardVersionInvalid
	}

	return c.Scheduling.Validate()
}

// IsDue reports whether the card should be presented for review at now.
func (c *Card) IsDue(now time.Time) bool {
	return !c.Scheduling.DueAt.After(now)
}

// ApplySchedule replaces the scheduling state and touches UpdatedAt.
// Version is left alone; the store bumps it when the write succeeds.
func (c *Card) ApplySchedule(state SchedulingState, now time.Time) {
	c.Scheduling = state
	c.UpdatedAt = now.UTC()
}

// SetMeaning replaces the card's meaning and touches UpdatedAt.
func (c *Card) SetMeaning(meaning string, now time.Time) {
	c.Meaning = strings.TrimSpace(meaning)
	c.UpdatedAt = now.UTC()
}
