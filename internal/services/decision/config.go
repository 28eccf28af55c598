package decision

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned for malformed scoring configuration.
var ErrInvalidConfig = errors.New("decision: invalid config")

const weightEpsilon = 1e-6

// PolicyKind selects the decision strategy.
type PolicyKind string

const (
	PolicySingle PolicyKind = "single"
	PolicyDual   PolicyKind = "dual"
)

// Weights of the sub-scores in the total. They must sum to 1.
type Weights struct {
	Trending  float64 `yaml:"trending"`
	MarketCap float64 `yaml:"market_cap"`
	Liquidity float64 `yaml:"liquidity"`
	Stability float64 `yaml:"stability"`
}

func (w Weights) sum() float64 {
	return w.Trending + w.MarketCap + w.Liquidity + w.Stability
}

// Thresholds used by the policies. Buy is read by the single policy, the rest by the dual one.
type Thresholds struct {
	Buy              float64 `yaml:"buy"`
	High             float64 `yaml:"high"`
	StabilityFloor   float64 `yaml:"stability_floor"`
	StabilityCeiling float64 `yaml:"stability_ceiling"`
}

// Config holds the scoring constants.
type Config struct {
	RankCeiling      float64
	MarketCapCeiling float64
	VolumeCeiling    float64
	Weights          Weights
	Thresholds       Thresholds
	Policy           PolicyKind
	// ClampTrending bounds the trending score to [0, 100]. Off by default.
	ClampTrending bool
}

// Option configures Config.
type Option func(*Config)

// DefaultConfig returns the stock constants: 1B market cap ceiling, 10M volume ceiling,
// 0.5/0.25/0.25 weights and an inclusive buy threshold of 50.
func DefaultConfig() Config {
	return Config{
		RankCeiling:      500,
		MarketCapCeiling: 1_000_000_000,
		VolumeCeiling:    10_000_000,
		Weights: Weights{
			Trending:  0.5,
			MarketCap: 0.25,
			Liquidity: 0.25,
		},
		Thresholds: Thresholds{
			Buy:              50,
			High:             70,
			StabilityFloor:   70,
			StabilityCeiling: 50,
		},
		Policy: PolicySingle,
	}
}

// NewConfig builds a validated Config from defaults and options.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ceilings, weights and policy.
func (c Config) Validate() error {
	if !positive(c.RankCeiling) {
		return fmt.Errorf("%w: rank ceiling must be > 0, got %v", ErrInvalidConfig, c.RankCeiling)
	}
	if !positive(c.MarketCapCeiling) {
		return fmt.Errorf("%w: market cap ceiling must be > 0, got %v", ErrInvalidConfig, c.MarketCapCeiling)
	}
	if !positive(c.VolumeCeiling) {
		return fmt.Errorf("%w: volume ceiling must be > 0, got %v", ErrInvalidConfig, c.VolumeCeiling)
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"trending":   w.Trending,
		"market_cap": w.MarketCap,
		"liquidity":  w.Liquidity,
		"stability":  w.Stability,
	} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: weight %s must be >= 0, got %v", ErrInvalidConfig, name, v)
		}
	}
	if s := w.sum(); math.Abs(s-1) > weightEpsilon {
		return fmt.Errorf("%w: weights must sum to 1, got %v", ErrInvalidConfig, s)
	}
	switch c.Policy {
	case PolicySingle, PolicyDual:
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, c.Policy)
	}
	return nil
}

// WithRankCeiling sets the default rank ceiling used when a persona has none.
func WithRankCeiling(v float64) Option {
	return func(c *Config) {
		c.RankCeiling = v
	}
}

// WithCeilings sets market cap and volume ceilings.
func WithCeilings(marketCap, volume float64) Option {
	return func(c *Config) {
		c.MarketCapCeiling = marketCap
		c.VolumeCeiling = volume
	}
}

// WithWeights sets the combination weights.
func WithWeights(w Weights) Option {
	return func(c *Config) {
		c.Weights = w
	}
}

// WithSingleThreshold selects the single-threshold policy.
func WithSingleThreshold(buy float64) Option {
	return func(c *Config) {
		c.Policy = PolicySingle
		c.Thresholds.Buy = buy
	}
}

// WithDualThreshold selects the dual-threshold policy.
func WithDualThreshold(high, stabilityFloor, stabilityCeiling float64) Option {
	return func(c *Config) {
		c.Policy = PolicyDual
		c.Thresholds.High = high
		c.Thresholds.StabilityFloor = stabilityFloor
		c.Thresholds.StabilityCeiling = stabilityCeiling
	}
}

// WithClampTrending toggles clamping of the trending score.
func WithClampTrending(clamp bool) Option {
	return func(c *Config) {
		c.ClampTrending = clamp
	}
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
