package srs

import (
	"errors"
	"fmt"

	"github.com/phrazzld/yomu-api/internal/domain"
)

// ErrInvalidParams is returned when a ParamsConfig would produce a policy that
// breaks the ordering forgot < hard < easy.
var ErrInvalidParams = errors.New("invalid scheduler parameters")

const (
	// forgotInterval is the only interval a forgotten card may get.
	forgotInterval = 1

	// minEasyInterval is the lowest floor allowed for an easy rating.
	minEasyInterval = 4
)

// Params defines all configurable parameters for the scheduling algorithm
type Params struct {
	// Core limits
	DefaultDifficulty float64
	MinDifficulty     float64
	MaxDifficulty     float64
	MaxInterval       int

	// Adjustments for different ratings
	DifficultyAdjustment map[domain.Rating]float64
	IntervalGrowth       map[domain.Rating]float64

	// Smallest interval, in days, each rating may produce
	MinInterval map[domain.Rating]int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance.
// Zero values keep the default.
type ParamsConfig struct {
	DefaultDifficulty float64 `mapstructure:"default_difficulty"`
	MinDifficulty     float64 `mapstructure:"min_difficulty"`
	MaxDifficulty     float64 `mapstructure:"max_difficulty"`
	MaxInterval       int     `mapstructure:"max_interval"`

	// Penalties are subtracted from the difficulty, the bonus is added.
	ForgotPenalty float64 `mapstructure:"forgot_penalty"`
	HardPenalty   float64 `mapstructure:"hard_penalty"`
	EasyBonus     float64 `mapstructure:"easy_bonus"`

	HardGrowth float64 `mapstructure:"hard_growth"`
	EasyGrowth float64 `mapstructure:"easy_growth"`

	ForgotInterval  int `mapstructure:"forgot_interval"`
	HardMinInterval int `mapstructure:"hard_min_interval"`
	EasyMinInterval int `mapstructure:"easy_min_interval"`
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		DefaultDifficulty: 2.5,
		MinDifficulty:     1.3,
		MaxDifficulty:     3.0,
		MaxInterval:       36500,

		DifficultyAdjustment: map[domain.Rating]float64{
			domain.RatingForgot: -0.20,
			domain.RatingHard:   -0.15,
			domain.RatingEasy:   0.15,
		},

		IntervalGrowth: map[domain.Rating]float64{
			domain.RatingForgot: 0.0, // Reset
			domain.RatingHard:   0.5,
			domain.RatingEasy:   1.3,
		},

		MinInterval: map[domain.Rating]int{
			domain.RatingForgot: 1,
			domain.RatingHard:   2,
			domain.RatingEasy:   4,
		},
	}
}

// NewParams creates a new Params instance with custom configuration.
// It returns ErrInvalidParams if the resulting policy is inconsistent.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if config.DefaultDifficulty != 0 {
		params.DefaultDifficulty = config.DefaultDifficulty
	}
	if config.MinDifficulty != 0 {
		params.MinDifficulty = config.MinDifficulty
	}
	if config.MaxDifficulty != 0 {
		params.MaxDifficulty = config.MaxDifficulty
	}
	if config.MaxInterval != 0 {
		params.MaxInterval = config.MaxInterval
	}

	if config.ForgotPenalty != 0 {
		params.DifficultyAdjustment[domain.RatingForgot] = -config.ForgotPenalty
	}
	if config.HardPenalty != 0 {
		params.DifficultyAdjustment[domain.RatingHard] = -config.HardPenalty
	}
	if config.EasyBonus != 0 {
		params.DifficultyAdjustment[domain.RatingEasy] = config.EasyBonus
	}

	if config.HardGrowth != 0 {
		params.IntervalGrowth[domain.RatingHard] = config.HardGrowth
	}
	if config.EasyGrowth != 0 {
		params.IntervalGrowth[domain.RatingEasy] = config.EasyGrowth
	}

	if config.ForgotInterval != 0 {
		params.MinInterval[domain.RatingForgot] = config.ForgotInterval
	}
	if config.HardMinInterval != 0 {
		params.MinInterval[domain.RatingHard] = config.HardMinInterval
	}
	if config.EasyMinInterval != 0 {
		params.MinInterval[domain.RatingEasy] = config.EasyMinInterval
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}

	return params, nil
}

// Validate checks the ordering constraints the algorithm relies on.
func (p *Params) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...)
	}

	if p.MinDifficulty <= 1.0 {
		return invalid("min difficulty %.2f must be greater than 1.0", p.MinDifficulty)
	}
	if p.DefaultDifficulty <= p.MinDifficulty || p.DefaultDifficulty > p.MaxDifficulty {
		return invalid("default difficulty %.2f must be in (%.2f, %.2f]",
			p.DefaultDifficulty, p.MinDifficulty, p.MaxDifficulty)
	}

	forgotAdj := p.DifficultyAdjustment[domain.RatingForgot]
	hardAdj := p.DifficultyAdjustment[domain.RatingHard]
	easyAdj := p.DifficultyAdjustment[domain.RatingEasy]
	if forgotAdj > 0 || hardAdj > 0 || easyAdj < 0 {
		return invalid("penalties and bonus must be non-negative")
	}
	if forgotAdj > hardAdj {
		return invalid("forgot penalty must be at least the hard penalty")
	}

	hardGrowth := p.IntervalGrowth[domain.RatingHard]
	easyGrowth := p.IntervalGrowth[domain.RatingEasy]
	if hardGrowth <= 0 || easyGrowth <= hardGrowth {
		return invalid("growth must satisfy 0 < hard (%.2f) < easy (%.2f)", hardGrowth, easyGrowth)
	}

	forgot := p.MinInterval[domain.RatingForgot]
	hard := p.MinInterval[domain.RatingHard]
	easy := p.MinInterval[domain.RatingEasy]
	if forgot != forgotInterval {
		return invalid("forgot interval %d must be %d", forgot, forgotInterval)
	}
	if easy < minEasyInterval {
		return invalid("easy min interval %d must be at least %d", easy, minEasyInterval)
	}
	if forgot >= hard || hard >= easy || easy > p.MaxInterval {
		return invalid("intervals must satisfy forgot (%d) < hard (%d) < easy (%d) <= max (%d)",
			forgot, hard, easy, p.MaxInterval)
	}

	return nil
}
