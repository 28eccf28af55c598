package decision

import (
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	cfg, err := NewConfig(opts...)
	require.NoError(t, err)
	personas := BuiltinPersonas()
	e, err := NewEngine(cfg, personas, NewExplainer(personas, rand.NewSource(7)))
	require.NoError(t, err)
	return e
}

func TestEvaluateUsesPersonaCeiling(t *testing.T) {
	e := newTestEngine(t)
	in := models.MetricsInput{
		RankSignal:   models.Float(50),
		MarketCapUSD: models.Float(2_000_000_000),
		Volume24hUSD: models.Float(15_000_000),
	}

	murad := e.Evaluate(in, "Murad")
	assert.Equal(t, "Murad", murad.Persona)
	assert.InDelta(t, 92.86, murad.Scores.Trending, tol)
	assert.InDelta(t, 96.43, murad.Scores.Total, tol)
	assert.Equal(t, models.OutcomeBuy, murad.Outcome)
	assert.NotEmpty(t, murad.Reasoning)

	biz := e.Evaluate(in, "bizyugo")
	assert.InDelta(t, 90.0, biz.Scores.Trending, tol)
}

func TestEvaluateUnknownPersonaFallsBack(t *testing.T) {
	e := newTestEngine(t)
	res := e.Evaluate(models.MetricsInput{RankSignal: models.Float(0)}, "someone else")

	assert.Equal(t, DefaultPersona, res.Persona)
	assert.Equal(t, 100.0, res.Scores.Trending)
}

func TestEvaluateMissingMetrics(t *testing.T) {
	e := newTestEngine(t)
	res := e.Evaluate(models.MetricsInput{}, "murad")

	assert.Equal(t, 0.0, res.Scores.Trending)
	assert.Equal(t, 0.0, res.Scores.MarketCap)
	assert.Equal(t, 0.0, res.Scores.Liquidity)
	assert.Equal(t, 0.0, res.Scores.Stability)
	assert.Equal(t, models.OutcomeAvoid, res.Outcome)
}

func TestEvaluateDualIndeterminate(t *testing.T) {
	e := newTestEngine(t,
		WithWeights(Weights{Trending: 0.25, MarketCap: 0.25, Liquidity: 0.25, Stability: 0.25}),
		WithDualThreshold(70, 70, 50),
	)
	// trending 40, market cap 60, liquidity 80, stability 60: total 60
	in := models.MetricsInput{
		RankSignal:    models.Float(300),
		MarketCapUSD:  models.Float(600_000_000),
		Volume24hUSD:  models.Float(8_000_000),
		VolatilityPct: models.Float(40),
	}
	res := e.Evaluate(in, "bizyugo")

	assert.InDelta(t, 60.0, res.Scores.Total, 1e-9)
	assert.InDelta(t, 60.0, res.Scores.Stability, 1e-9)
	assert.Equal(t, models.OutcomeIndeterminate, res.Outcome)
	assert.NotEmpty(t, res.Reasoning)
}

func TestEvaluateClampedVariant(t *testing.T) {
	e := newTestEngine(t, WithClampTrending(true))
	res := e.Evaluate(models.MetricsInput{RankSignal: models.Float(-400)}, "bizyugo")
	assert.Equal(t, 100.0, res.Scores.Trending)

	raw := newTestEngine(t)
	res = raw.Evaluate(models.MetricsInput{RankSignal: models.Float(-400)}, "bizyugo")
	assert.InDelta(t, 180.0, res.Scores.Trending, 1e-9)
}

func TestEvaluateConcurrent(t *testing.T) {
	e := newTestEngine(t)
	in := models.MetricsInput{RankSignal: models.Float(10), MarketCapUSD: models.Float(5e8)}
	want := e.Evaluate(in, "murad").Scores

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, e.Evaluate(in, "murad").Scores)
		}()
	}
	wg.Wait()
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VolumeCeiling = 0
	_, err := NewEngine(cfg, nil, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
}

func TestDecisionIgnoresExplainerSeed(t *testing.T) {
	in := models.MetricsInput{RankSignal: models.Float(690), MarketCapUSD: models.Float(2e9), Volume24hUSD: models.Float(1.5e7)}
	cfg := DefaultConfig()
	personas := BuiltinPersonas()
	for seed := int64(0); seed < 20; seed++ {
		e := MustEngine(cfg, personas, NewExplainer(personas, rand.NewSource(seed)))
		res := e.Evaluate(in, "murad")
		assert.Equal(t, models.OutcomeBuy, res.Outcome)
		assert.True(t, strings.TrimSpace(res.Reasoning) != "")
	}
}
