package decision

import (
	"fmt"

	"CoinSense/internal/domain/models"
)

// Engine turns market metrics into a decision. It holds no mutable state besides
// the explainer's locked random source and is safe for concurrent use.
type Engine struct {
	cfg       Config
	policy    Policy
	personas  *Personas
	explainer *Explainer
}

// NewEngine validates cfg and wires the policy it selects.
func NewEngine(cfg Config, personas *Personas, explainer *Explainer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	if personas == nil {
		personas = BuiltinPersonas()
	}
	if explainer == nil {
		explainer = NewExplainer(personas, nil)
	}
	return &Engine{cfg: cfg, policy: policy, personas: personas, explainer: explainer}, nil
}

// MustEngine is NewEngine for static configuration. It panics on error.
func MustEngine(cfg Config, personas *Personas, explainer *Explainer) *Engine {
	e, err := NewEngine(cfg, personas, explainer)
	if err != nil {
		panic(fmt.Sprintf("decision engine: %v", err))
	}
	return e
}

// Evaluate resolves the persona ceiling, normalizes in, scores, decides and explains.
func (e *Engine) Evaluate(in models.MetricsInput, persona string) models.DecisionResult {
	p := e.personas.Resolve(persona)
	cfg := e.configFor(p)

	metrics := in.Normalize(cfg.RankCeiling)
	scores := Score(metrics, cfg)
	outcome := e.policy.Decide(scores)

	return models.DecisionResult{
		Outcome:   outcome,
		Scores:    scores,
		Metrics:   metrics,
		Persona:   p.Name,
		Reasoning: e.explainer.Explain(outcome, p.Name, scores),
	}
}

// Score scores already-normalized metrics for persona without deciding.
func (e *Engine) Score(m models.MarketMetrics, persona string) models.ScoreSet {
	return Score(m, e.configFor(e.personas.Resolve(persona)))
}

// Decide applies the configured policy.
func (e *Engine) Decide(s models.ScoreSet) models.Outcome {
	return e.policy.Decide(s)
}

// Explain delegates to the explainer.
func (e *Engine) Explain(outcome models.Outcome, persona string, s models.ScoreSet) string {
	return e.explainer.Explain(outcome, persona, s)
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Personas returns the registry the engine resolves against.
func (e *Engine) Personas() *Personas { return e.personas }

func (e *Engine) configFor(p *Persona) Config {
	cfg := e.cfg
	if p != nil && p.RankCeiling > 0 {
		cfg.RankCeiling = p.RankCeiling
	}
	return cfg
}
