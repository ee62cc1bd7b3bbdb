package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/patrickmn/go-cache"
	"github.com/phrazzld/yomu-api/internal/domain"
)

// DefaultSessionTTL is how long an untouched session survives.
const DefaultSessionTTL = 30 * time.Minute

// SessionRegistry holds server-side sessions keyed by ULID. Sessions idle
// longer than the TTL are evicted; completed sessions are dropped as soon
// as their last card is rated.
type SessionRegistry struct {
	sessions *cache.Cache
	rater    Rater
	ttl      time.Duration
}

// NewSessionRegistry creates a registry whose sessions rate through rater.
// A non-positive ttl uses DefaultSessionTTL.
func NewSessionRegistry(rater Rater, ttl time.Duration) *SessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionRegistry{
		sessions: cache.New(ttl, ttl/2),
		rater:    rater,
		ttl:      ttl,
	}
}

// Start registers a new session over queue and returns its id.
func (r *SessionRegistry) Start(queue []uuid.UUID) (string, *Session) {
	id := ulid.Make().String()
	s := NewSession(queue, r.rater)
	if !s.State().Complete {
		r.sessions.Set(id, s, r.ttl)
	}
	return id, s
}

// Get returns the session with id and refreshes its expiry. A session
// that completed is reported as ErrSessionNotFound.
func (r *SessionRegistry) Get(id string) (*Session, error) {
	v, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	s := v.(*Session)
	if s.State().Complete {
		r.sessions.Delete(id)
		return nil, ErrSessionNotFound
	}
	// Replace fails when a concurrent Rate or Delete removed the entry,
	// so a finished session is never put back.
	if err := r.sessions.Replace(id, s, r.ttl); err != nil {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Reveal reveals the current card of session id.
func (r *SessionRegistry) Reveal(id string) (State, error) {
	s, err := r.Get(id)
	if err != nil {
		return State{}, err
	}
	return s.Reveal()
}

// Rate rates the current card of session id. The session is removed once
// it completes.
func (r *SessionRegistry) Rate(ctx context.Context, id string, rating domain.Rating) (State, *domain.Card, error) {
	s, err := r.Get(id)
	if err != nil {
		return State{}, nil, err
	}
	st, card, err := s.Rate(ctx, rating)
	if err == nil && st.Complete {
		r.sessions.Delete(id)
	}
	return st, card, err
}

// Delete abandons session id. Unknown ids are ignored.
func (r *SessionRegistry) Delete(id string) {
	r.sessions.Delete(id)
}

// Len reports the number of live sessions.
func (r *SessionRegistry) Len() int {
	return r.sessions.ItemCount()
}
