package decision

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
)

func candidateTexts(t *testing.T, p *Persona, oc models.Outcome, s models.ScoreSet) map[string]bool {
	t.Helper()
	out := map[string]bool{}
	for _, tpl := range p.templates[oc] {
		text, err := render(tpl, s)
		require.NoError(t, err)
		out[text] = true
	}
	return out
}

func TestExplainStaysInCategory(t *testing.T) {
	personas := BuiltinPersonas()
	e := NewExplainer(personas, rand.NewSource(1))
	s := models.ScoreSet{Trending: 80, MarketCap: 70, Liquidity: 60, Stability: 50, Total: 72.5}

	for _, name := range []string{"murad", "bizyugo"} {
		p := personas.Resolve(name)
		for _, oc := range outcomes {
			allowed := candidateTexts(t, p, oc, s)
			for i := 0; i < 200; i++ {
				got := e.Explain(oc, name, s)
				require.NotEmpty(t, got)
				assert.True(t, allowed[got], "%s/%s produced %q", name, oc, got)
			}
		}
	}
}

func TestExplainSeededIsReproducible(t *testing.T) {
	personas := BuiltinPersonas()
	a := NewExplainer(personas, rand.NewSource(99))
	b := NewExplainer(personas, rand.NewSource(99))
	s := models.ScoreSet{Total: 55}

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Explain(models.OutcomeBuy, "bizyugo", s), b.Explain(models.OutcomeBuy, "bizyugo", s))
	}
}

func TestExplainCoversAllCandidates(t *testing.T) {
	personas := BuiltinPersonas()
	e := NewExplainer(personas, rand.NewSource(3))
	p := personas.Resolve("murad")
	want := candidateTexts(t, p, models.OutcomeAvoid, models.ScoreSet{})

	seen := map[string]bool{}
	for i := 0; i < 2000; i++ {
		seen[e.Explain(models.OutcomeAvoid, "murad", models.ScoreSet{})] = true
	}
	assert.Equal(t, want, seen)
}

func TestExplainInterpolatesScores(t *testing.T) {
	personas, err := NewPersonas("solo", PersonaSpec{
		Name:        "solo",
		RankCeiling: 100,
		Templates: map[models.Outcome][]string{
			models.OutcomeBuy:           {"buy at {{f .Total}}"},
			models.OutcomeAvoid:         {"avoid at {{f .Liquidity}}"},
			models.OutcomeIndeterminate: {"wait"},
		},
	})
	require.NoError(t, err)
	e := NewExplainer(personas, rand.NewSource(1))

	assert.Equal(t, "buy at 61.3", e.Explain(models.OutcomeBuy, "solo", models.ScoreSet{Total: 61.26}))
	assert.Equal(t, "avoid at 12.0", e.Explain(models.OutcomeAvoid, "unknown", models.ScoreSet{Liquidity: 12}))
	assert.Empty(t, e.Explain(models.Outcome("HOLD"), "solo", models.ScoreSet{}))
}

func TestNewPersonasValidation(t *testing.T) {
	full := map[models.Outcome][]string{
		models.OutcomeBuy:           {"y"},
		models.OutcomeAvoid:         {"n"},
		models.OutcomeIndeterminate: {"?"},
	}

	_, err := NewPersonas("missing", PersonaSpec{Name: "a", RankCeiling: 1, Templates: full})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPersonas("a", PersonaSpec{Name: "a", RankCeiling: 0, Templates: full})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPersonas("a", PersonaSpec{Name: "a", RankCeiling: 1, Templates: map[models.Outcome][]string{
		models.OutcomeBuy: {"y"},
	}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPersonas("a", PersonaSpec{Name: "a", RankCeiling: 1, Templates: map[models.Outcome][]string{
		models.OutcomeBuy:           {"{{.NoSuchField}}"},
		models.OutcomeAvoid:         {"n"},
		models.OutcomeIndeterminate: {"?"},
	}})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewPersonas("a", PersonaSpec{Name: "a", RankCeiling: 1, Templates: map[models.Outcome][]string{
		models.OutcomeBuy:           {"   "},
		models.OutcomeAvoid:         {"n"},
		models.OutcomeIndeterminate: {"?"},
	}})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestWithRankCeilings(t *testing.T) {
	specs := WithRankCeilings(BuiltinPersonaSpecs(), map[string]float64{"murad": 900})
	personas, err := NewPersonas(DefaultPersona, specs...)
	require.NoError(t, err)

	assert.Equal(t, 900.0, personas.Resolve("MURAD").RankCeiling)
	assert.Equal(t, 500.0, personas.Resolve("bizyugo").RankCeiling)
	assert.Equal(t, []string{"Murad", "bizyugo"}, personas.Names())
	assert.Equal(t, 700.0, BuiltinPersonas().Resolve("murad").RankCeiling)
}
