package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinSense/internal/domain/models"
	"CoinSense/internal/service/upstream"
)

func TestAssembleMarketCapRank(t *testing.T) {
	m := sampleMarket()
	got, err := NewMetricsAssembler(m, "").Assemble(context.Background(), "bitcoin")
	require.NoError(t, err)

	require.NotNil(t, got.Input.RankSignal)
	assert.Equal(t, 1.0, *got.Input.RankSignal)
	assert.Equal(t, 1.2e12, *got.Input.MarketCapUSD)
	assert.Equal(t, 3e10, *got.Input.Volume24hUSD)
	assert.Equal(t, 2.5, *got.Input.VolatilityPct)
	assert.Equal(t, 0, m.count("trending"))
}

func TestAssembleTrendingRank(t *testing.T) {
	m := sampleMarket()
	m.trending = []models.TrendingCoin{{ID: "dogwifhat", Position: 1}, {ID: "pepe", Position: 2}}
	a := NewMetricsAssembler(m, RankSourceTrending)

	got, err := a.Assemble(context.Background(), "pepe")
	require.NoError(t, err)
	require.NotNil(t, got.Input.RankSignal)
	assert.Equal(t, 2.0, *got.Input.RankSignal)

	got, err = a.Assemble(context.Background(), "bitcoin")
	require.NoError(t, err)
	assert.Nil(t, got.Input.RankSignal, "a coin off the trending list has no rank signal")
}

func TestAssembleFallsBackToMarketListing(t *testing.T) {
	m := sampleMarket()
	delete(m.quotes, "pepe-fork")
	got, err := NewMetricsAssembler(m, RankSourceMarketCap).Assemble(context.Background(), "pepe-fork")
	require.NoError(t, err)

	assert.Nil(t, got.Quote)
	assert.Equal(t, 1e5, *got.Input.MarketCapUSD)
	assert.Nil(t, got.Input.Volume24hUSD)
	assert.Nil(t, got.Input.VolatilityPct)
	assert.Equal(t, 4000.0, *got.Input.RankSignal)
}

func TestAssembleError(t *testing.T) {
	m := sampleMarket()
	m.err = upstream.ErrUpstreamUnavailable
	_, err := NewMetricsAssembler(m, "").Assemble(context.Background(), "bitcoin")
	assert.ErrorIs(t, err, upstream.ErrUpstreamUnavailable)
}
