package decision

import (
	"math/rand"
	"sync"
	"time"

	"CoinSense/internal/domain/models"
)

// Explainer picks a reasoning line for an outcome. Selection is uniform over the
// persona's candidates for that outcome and never affects the outcome itself.
type Explainer struct {
	personas *Personas
	mu       sync.Mutex
	rng      *rand.Rand
}

// NewExplainer creates an explainer. A nil src seeds from the clock.
func NewExplainer(personas *Personas, src rand.Source) *Explainer {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Explainer{personas: personas, rng: rand.New(src)}
}

// Explain renders one candidate template for outcome with scores interpolated.
// An unknown outcome yields an empty string.
func (e *Explainer) Explain(outcome models.Outcome, persona string, scores models.ScoreSet) string {
	p := e.personas.Resolve(persona)
	candidates := p.templates[outcome]
	if len(candidates) == 0 {
		return ""
	}

	e.mu.Lock()
	idx := e.rng.Intn(len(candidates))
	e.mu.Unlock()

	tpl := candidates[idx]
	text, err := render(tpl, scores)
	if err != nil {
		return tpl.Root.String()
	}
	return text
}
