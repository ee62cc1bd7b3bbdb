package srs

import (
	"fmt"
	"time"

	"github.com/phrazzld/yomu-api/internal/domain"
)

// Service defines the interface for scheduling operations
type Service interface {
	// Schedule computes the next scheduling state for a rating.
	// It returns domain.ErrInvalidRating for unknown ratings.
	Schedule(
		state domain.SchedulingState,
		rating domain.Rating,
		now time.Time,
	) (domain.SchedulingState, error)

	// Preview returns the interval, in days, each rating would produce.
	Preview(state domain.SchedulingState) map[domain.Rating]int

	// DefaultDifficulty is the difficulty assigned to new cards.
	DefaultDifficulty() float64
}

// defaultService is the standard implementation of the Service interface
type defaultService struct {
	params *Params
}

// NewDefaultService creates a new scheduling service with default parameters
func NewDefaultService() Service {
	return &defaultService{
		params: NewDefaultParams(),
	}
}

// NewServiceWithParams creates a new scheduling service with custom parameters
func NewServiceWithParams(params *Params) Service {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultService{
		params: params,
	}
}

// Schedule implements Service.
func (s *defaultService) Schedule(
	state domain.SchedulingState,
	rating domain.Rating,
	now time.Time,
) (domain.SchedulingState, error) {
	if !rating.Valid() {
		return domain.SchedulingState{}, fmt.Errorf("%w: %q", domain.ErrInvalidRating, rating)
	}

	return calculateNextState(state, rating, now, s.params), nil
}

// Preview implements Service.
func (s *defaultService) Preview(state domain.SchedulingState) map[domain.Rating]int {
	preview := make(map[domain.Rating]int, len(domain.Ratings))
	for _, r := range domain.Ratings {
		preview[r] = calculateNewInterval(state.Interval, state.Difficulty, r, s.params)
	}
	return preview
}

// DefaultDifficulty implements Service.
func (s *defaultService) DefaultDifficulty() float64 {
	return s.params.DefaultDifficulty
}
