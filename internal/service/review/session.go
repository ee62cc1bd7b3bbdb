package review

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/yomu-api/internal/domain"
)

var (
	// ErrSessionComplete is returned when acting on a session whose queue is
	// exhausted.
	ErrSessionComplete = errors.New("review session complete")

	// ErrNotRevealed is returned when rating a card whose answer has not
	// been revealed yet.
	ErrNotRevealed = errors.New("card not revealed")

	// ErrSessionNotFound is returned for unknown or expired session ids.
	ErrSessionNotFound = errors.New("review session not found")
)

// State is a snapshot of a session's progress.
type State struct {
	Cursor    int       `json:"cursor"`
	Revealed  bool      `json:"revealed"`
	Complete  bool      `json:"complete"`
	Total     int       `json:"total"`
	Remaining int       `json:"remaining"`
	Current   uuid.UUID `json:"current"`
}

// Session steps through a fixed queue of card ids. A session is either
// presenting the card at Cursor (revealed or not) or complete. It is safe
// for concurrent use.
type Session struct {
	mu       sync.Mutex
	queue    []uuid.UUID
	cursor   int
	revealed bool
	rater    Rater
}

// NewSession starts a session over queue. An empty queue starts complete.
func NewSession(queue []uuid.UUID, rater Rater) *Session {
	q := make([]uuid.UUID, len(queue))
	copy(q, queue)
	return &Session{queue: q, rater: rater}
}

// State returns the current progress.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Cursor:    s.cursor,
		Revealed:  s.revealed,
		Total:     len(s.queue),
		Remaining: len(s.queue) - s.cursor,
		Complete:  s.cursor >= len(s.queue),
	}
	if !st.Complete {
		st.Current = s.queue[s.cursor]
	}
	return st
}

// Reveal shows the answer for the current card. Revealing twice is a no-op.
func (s *Session) Reveal() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.queue) {
		return s.stateLocked(), ErrSessionComplete
	}
	s.revealed = true
	return s.stateLocked(), nil
}

// Rate records rating for the current card and advances. The card must be
// revealed first. When the rater fails the session does not move, so the
// same card can be rated again.
func (s *Session) Rate(ctx context.Context, rating domain.Rating) (State, *domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= len(s.queue) {
		return s.stateLocked(), nil, ErrSessionComplete
	}
	if !rating.Valid() {
		return s.stateLocked(), nil, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}
	if !s.revealed {
		return s.stateLocked(), nil, ErrNotRevealed
	}

	card, err := s.rater.RateCard(ctx, s.queue[s.cursor], rating)
	if err != nil {
		return s.stateLocked(), nil, err
	}

	s.cursor++
	s.revealed = false
	return s.stateLocked(), card, nil
}
