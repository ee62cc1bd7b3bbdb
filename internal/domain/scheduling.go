package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Rating is the learner's self-assessment after revealing a card.
type Rating string

// Possible rating values
const (
	RatingForgot Rating = "forgot"
	RatingHard   Rating = "hard"
	RatingEasy   Rating = "easy"
)

// Ratings lists every valid rating from weakest to strongest recall.
var Ratings = []Rating{RatingForgot, RatingHard, RatingEasy}

// Validation errors for SchedulingState
var (
	ErrInvalidInterval    = errors.New("interval must be greater than or equal to 0")
	ErrInvalidDifficulty  = errors.New("difficulty must be greater than 1.0")
	ErrInvalidRepetitions = errors.New("repetitions must be greater than or equal to 0")
	ErrEmptyDueAt         = errors.New("due time cannot be empty")
)

// Valid reports whether r is one of the known ratings.
func (r Rating) Valid() bool {
	switch r {
	case RatingForgot, RatingHard, RatingEasy:
		return true
	}
	return false
}

// ParseRating converts user input into a Rating. Leading and trailing space
// and letter case are ignored.
func ParseRating(s string) (Rating, error) {
	r := Rating(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return r, nil
}

// SchedulingState is the per-card review state maintained by the scheduler.
//
// Interval is the number of days between the last review and DueAt.
// Difficulty is an ease factor: higher values grow intervals faster.
// Repetitions counts consecutive successful recalls since the last lapse.
type SchedulingState struct {
	Interval       int       `json:"interval"`
	DueAt          time.Time `json:"due_at"`
	Difficulty     float64   `json:"difficulty"`
	Repetitions    int       `json:"repetitions"`
	LastReviewedAt time.Time `json:"last_reviewed_at,omitempty"`
}

// NewSchedulingState returns the state of a card that has never been reviewed.
// New cards are due immediately.
func NewSchedulingState(now time.Time, difficulty float64) SchedulingState {
	return SchedulingState{
		Interval:    0,
		DueAt:       now.UTC(),
		Difficulty:  difficulty,
		Repetitions: 0,
	}
}

// Validate checks if the SchedulingState has valid data.
func (s SchedulingState) Validate() error {
	if s.Interval < 0 {
		return ErrInvalidInterval
	}

	if s.Difficulty <= 1.0 {
		return ErrInvalidDifficulty
	}

	if s.Repetitions < 0 {
		return ErrInvalidRepetitions
	}

	if s.DueAt.IsZero() {
		return ErrEmptyDueAt
	}

	return nil
}
