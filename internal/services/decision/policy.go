package decision

import (
	"fmt"

	"CoinSense/internal/domain/models"
)

// Policy maps a score set to an outcome.
type Policy interface {
	Decide(s models.ScoreSet) models.Outcome
	Name() PolicyKind
}

// SingleThreshold buys when the total reaches Buy, inclusive.
type SingleThreshold struct {
	Buy float64
}

func (p SingleThreshold) Decide(s models.ScoreSet) models.Outcome {
	if s.Total >= p.Buy {
		return models.OutcomeBuy
	}
	return models.OutcomeAvoid
}

func (SingleThreshold) Name() PolicyKind { return PolicySingle }

// DualThreshold buys on a high total with enough stability, avoids on a low total with
// poor stability and leaves everything else INDETERMINATE.
type DualThreshold struct {
	High             float64
	StabilityFloor   float64
	StabilityCeiling float64
}

func (p DualThreshold) Decide(s models.ScoreSet) models.Outcome {
	switch {
	case s.Total >= p.High && s.Stability >= p.StabilityFloor:
		return models.OutcomeBuy
	case s.Total < p.High && s.Stability < p.StabilityCeiling:
		return models.OutcomeAvoid
	default:
		return models.OutcomeIndeterminate
	}
}

func (DualThreshold) Name() PolicyKind { return PolicyDual }

// NewPolicy returns the policy selected by cfg.
func NewPolicy(cfg Config) (Policy, error) {
	t := cfg.Thresholds
	switch cfg.Policy {
	case PolicySingle:
		return SingleThreshold{Buy: t.Buy}, nil
	case PolicyDual:
		return DualThreshold{High: t.High, StabilityFloor: t.StabilityFloor, StabilityCeiling: t.StabilityCeiling}, nil
	default:
		return nil, fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, cfg.Policy)
	}
}
