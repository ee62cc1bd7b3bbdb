package srs

import (
	"math"
	"time"

	"github.com/phrazzld/yomu-api/internal/domain"
)

// sanitizeDifficulty maps any stored difficulty onto the configured range.
//
// Rows written by older code or edited by hand may carry values outside the
// range, or even NaN. The scheduler must still produce a schedule for them, so
// NaN falls back to the default and everything else is clamped.
func sanitizeDifficulty(d float64, params *Params) float64 {
	if math.IsNaN(d) {
		return params.DefaultDifficulty
	}
	return clampDifficulty(d, params)
}

func clampDifficulty(d float64, params *Params) float64 {
	if d < params.MinDifficulty {
		return params.MinDifficulty
	}
	if d > params.MaxDifficulty {
		return params.MaxDifficulty
	}
	return d
}

// calculateNewDifficulty determines the new difficulty based on the rating.
//
// Difficulty behaves as an ease factor: higher values mean the card is easier
// and its intervals grow faster.
//
// Algorithm behavior:
//   - "forgot" decreases the difficulty the most (typically -0.20)
//   - "hard" decreases it moderately (typically -0.15)
//   - "easy" increases it (typically +0.15)
//   - The result is always clamped to [MinDifficulty, MaxDifficulty]
func calculateNewDifficulty(current float64, rating domain.Rating, params *Params) float64 {
	current = sanitizeDifficulty(current, params)
	return clampDifficulty(current+params.DifficultyAdjustment[rating], params)
}

// scaleInterval multiplies the previous interval by difficulty and growth,
// rounds, and clamps the result into [floor, ceiling] without overflowing.
func scaleInterval(prev int, difficulty, growth float64, floor, ceiling int) int {
	scaled := math.Round(float64(prev) * difficulty * growth)
	if scaled >= float64(ceiling) {
		return ceiling
	}
	if scaled <= float64(floor) {
		return floor
	}
	return int(scaled)
}

// hardInterval returns the interval a "hard" rating produces.
// It is capped one day below MaxInterval so that "easy" can always exceed it.
func hardInterval(prev int, difficulty float64, params *Params) int {
	newDifficulty := calculateNewDifficulty(difficulty, domain.RatingHard, params)
	return scaleInterval(
		prev,
		newDifficulty,
		params.IntervalGrowth[domain.RatingHard],
		params.MinInterval[domain.RatingHard],
		params.MaxInterval-1,
	)
}

// calculateNewInterval determines the new interval in days.
//
// Parameters:
//   - prev: The current interval in days; negative values are treated as 0
//   - difficulty: The card's difficulty before this review
//   - rating: The learner's rating
//   - params: Configuration parameters for the algorithm
//
// Algorithm behavior:
//   - "forgot": resets to MinInterval[forgot] (1 day)
//   - "hard": prev × newDifficulty × HardGrowth, at least MinInterval[hard]
//   - "easy": prev × newDifficulty × EasyGrowth, at least MinInterval[easy] and
//     at least one day longer than the "hard" result for the same input
//
// For any input the result is strictly ordered forgot < hard < easy.
func calculateNewInterval(prev int, difficulty float64, rating domain.Rating, params *Params) int {
	if prev < 0 {
		prev = 0
	}

	switch rating {
	case domain.RatingHard:
		return hardInterval(prev, difficulty, params)
	case domain.RatingEasy:
		floor := params.MinInterval[domain.RatingEasy]
		if h := hardInterval(prev, difficulty, params) + 1; h > floor {
			floor = h
		}
		newDifficulty := calculateNewDifficulty(difficulty, domain.RatingEasy, params)
		return scaleInterval(
			prev,
			newDifficulty,
			params.IntervalGrowth[domain.RatingEasy],
			floor,
			params.MaxInterval,
		)
	default:
		return params.MinInterval[domain.RatingForgot]
	}
}

// calculateNextReviewDate converts an interval into the next due time.
func calculateNextReviewDate(interval int, now time.Time) time.Time {
	return now.UTC().AddDate(0, 0, interval)
}

// calculateNextState returns the scheduling state after a review.
//
// The input is never modified. Repetitions reset on "forgot" and increment
// otherwise; LastReviewedAt is set to now.
func calculateNextState(
	state domain.SchedulingState,
	rating domain.Rating,
	now time.Time,
	params *Params,
) domain.SchedulingState {
	next := state
	now = now.UTC()

	next.LastReviewedAt = now
	next.Difficulty = calculateNewDifficulty(state.Difficulty, rating, params)

	if rating == domain.RatingForgot {
		next.Repetitions = 0
	} else {
		reps := state.Repetitions
		if reps < 0 {
			reps = 0
		}
		if reps < math.MaxInt {
			reps++
		}
		next.Repetitions = reps
	}

	next.Interval = calculateNewInterval(state.Interval, state.Difficulty, rating, params)
	next.DueAt = calculateNextReviewDate(next.Interval, now)

	return next
}
