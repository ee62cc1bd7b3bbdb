package srs

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/phrazzld/yomu-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateNewInterval(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		prev     int
		ef       float64
		rating   domain.Rating
		expected int
	}{
		{name: "forgot resets to one day", prev: 40, ef: 2.5, rating: domain.RatingForgot, expected: 1},
		{name: "forgot on new card", prev: 0, ef: 2.5, rating: domain.RatingForgot, expected: 1},
		{name: "hard on new card uses floor", prev: 0, ef: 2.5, rating: domain.RatingHard, expected: 2},
		{name: "easy on new card uses floor", prev: 0, ef: 2.5, rating: domain.RatingEasy, expected: 4},
		{name: "hard grows slowly", prev: 10, ef: 2.5, rating: domain.RatingHard, expected: 12},  // 10 * 2.35 * 0.5
		{name: "easy grows quickly", prev: 10, ef: 2.5, rating: domain.RatingEasy, expected: 34}, // 10 * 2.65 * 1.3
		{name: "hard after easy", prev: 4, ef: 2.65, rating: domain.RatingHard, expected: 5},
		{name: "easy after easy", prev: 4, ef: 2.65, rating: domain.RatingEasy, expected: 15},
		{name: "hard at min difficulty", prev: 1, ef: 1.3, rating: domain.RatingHard, expected: 2},
		{name: "easy at min difficulty", prev: 1, ef: 1.3, rating: domain.RatingEasy, expected: 4},
		{name: "hard is capped below max", prev: 36000, ef: 3.0, rating: domain.RatingHard, expected: 36499},
		{name: "easy is capped at max", prev: 36000, ef: 3.0, rating: domain.RatingEasy, expected: 36500},
		{name: "negative interval treated as zero", prev: -7, ef: 2.5, rating: domain.RatingHard, expected: 2},
		{name: "NaN difficulty uses default", prev: 10, ef: math.NaN(), rating: domain.RatingEasy, expected: 34},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := calculateNewInterval(tc.prev, tc.ef, tc.rating, params)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCalculateNewDifficulty(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	testCases := []struct {
		name     string
		current  float64
		rating   domain.Rating
		expected float64
	}{
		{name: "forgot", current: 2.5, rating: domain.RatingForgot, expected: 2.3},
		{name: "hard", current: 2.5, rating: domain.RatingHard, expected: 2.35},
		{name: "easy", current: 2.5, rating: domain.RatingEasy, expected: 2.65},
		{name: "floored", current: 1.35, rating: domain.RatingForgot, expected: 1.3},
		{name: "capped", current: 2.95, rating: domain.RatingEasy, expected: 3.0},
		{name: "below range is clamped first", current: -4, rating: domain.RatingEasy, expected: 1.45},
		{name: "positive infinity", current: math.Inf(1), rating: domain.RatingHard, expected: 2.85},
		{name: "NaN", current: math.NaN(), rating: domain.RatingHard, expected: 2.35},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, calculateNewDifficulty(tc.current, tc.rating, params), 1e-9)
		})
	}
}

func TestCalculateNextState(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 5, 10, 22, 30, 0, 0, time.UTC)

	state := domain.SchedulingState{
		Interval:    10,
		DueAt:       now.Add(-time.Hour),
		Difficulty:  2.5,
		Repetitions: 3,
	}

	t.Run("easy", func(t *testing.T) {
		next := calculateNextState(state, domain.RatingEasy, now, params)
		assert.Equal(t, 34, next.Interval)
		assert.Equal(t, 4, next.Repetitions)
		assert.InDelta(t, 2.65, next.Difficulty, 1e-9)
		assert.Equal(t, now.AddDate(0, 0, 34), next.DueAt)
		assert.Equal(t, now, next.LastReviewedAt)
	})

	t.Run("forgot", func(t *testing.T) {
		next := calculateNextState(state, domain.RatingForgot, now, params)
		assert.Equal(t, 1, next.Interval)
		assert.Equal(t, 0, next.Repetitions)
		assert.Equal(t, now.AddDate(0, 0, 1), next.DueAt)
	})

	t.Run("input is not modified", func(t *testing.T) {
		before := state
		_ = calculateNextState(state, domain.RatingHard, now, params)
		assert.Equal(t, before, state)
	})

	t.Run("negative repetitions are treated as zero", func(t *testing.T) {
		odd := state
		odd.Repetitions = -3
		next := calculateNextState(odd, domain.RatingHard, now, params)
		assert.Equal(t, 1, next.Repetitions)
	})

	t.Run("due time is in UTC", func(t *testing.T) {
		tokyo := now.In(time.FixedZone("JST", 9*60*60))
		next := calculateNextState(state, domain.RatingHard, tokyo, params)
		assert.Equal(t, time.UTC, next.DueAt.Location())
		assert.True(t, next.DueAt.Equal(now.AddDate(0, 0, next.Interval)))
	})
}

// TestScheduleOrdering checks interval(easy) > interval(hard) > interval(forgot) == 1
// over a grid of odd and ordinary states plus random samples.
func TestScheduleOrdering(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	intervals := []int{math.MinInt, -5, 0, 1, 2, 3, 4, 5, 7, 10, 30, 100, 1000, 36498, 36499, 36500, 100000, math.MaxInt}
	difficulties := []float64{math.NaN(), math.Inf(-1), -1, 0, 1.0, 1.3, 1.31, 2.0, 2.5, 2.99, 3.0, 5, math.Inf(1)}

	check := func(t *testing.T, state domain.SchedulingState) {
		t.Helper()
		forgot := calculateNextState(state, domain.RatingForgot, now, params)
		hard := calculateNextState(state, domain.RatingHard, now, params)
		easy := calculateNextState(state, domain.RatingEasy, now, params)

		require.Equal(t, 1, forgot.Interval, "state %+v", state)
		require.Greater(t, hard.Interval, forgot.Interval, "state %+v", state)
		require.Greater(t, easy.Interval, hard.Interval, "state %+v", state)
		require.LessOrEqual(t, easy.Interval, params.MaxInterval, "state %+v", state)

		for _, next := range []domain.SchedulingState{forgot, hard, easy} {
			require.GreaterOrEqual(t, next.Difficulty, params.MinDifficulty)
			require.LessOrEqual(t, next.Difficulty, params.MaxDifficulty)
			require.Equal(t, now.AddDate(0, 0, next.Interval), next.DueAt)
			require.NoError(t, next.Validate())
		}
	}

	for _, iv := range intervals {
		for _, d := range difficulties {
			check(t, domain.SchedulingState{Interval: iv, Difficulty: d, DueAt: now})
		}
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5000; i++ {
		check(t, domain.SchedulingState{
			Interval:    rng.Intn(40000) - 100,
			Difficulty:  rng.Float64() * 4,
			Repetitions: rng.Intn(50),
			DueAt:       now,
		})
	}
}

// TestRepeatedEasyReachesCap walks a card through many easy reviews.
func TestRepeatedEasyReachesCap(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	state := domain.NewSchedulingState(now, params.DefaultDifficulty)
	prev := 0
	for i := 0; i < 40; i++ {
		state = calculateNextState(state, domain.RatingEasy, now, params)
		require.GreaterOrEqual(t, state.Interval, prev)
		prev = state.Interval
	}
	assert.Equal(t, params.MaxInterval, state.Interval)
	assert.Equal(t, params.MaxDifficulty, state.Difficulty)
}
