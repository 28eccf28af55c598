package decision

import (
	"math"

	"CoinSense/internal/domain/models"
)

// Score computes the sub-scores and the weighted total.
//
// The trending score is (ceiling - rank) / ceiling * 100 and is not bounded:
// a negative rank pushes it above 100 and a rank past the ceiling drives it negative.
// Set Config.ClampTrending to bound it to [0, 100].
func Score(m models.MarketMetrics, cfg Config) models.ScoreSet {
	s := models.ScoreSet{
		Trending:  TrendingScore(m.RankSignal, cfg.RankCeiling, cfg.ClampTrending),
		MarketCap: saturating(m.MarketCapUSD, cfg.MarketCapCeiling),
		Liquidity: saturating(m.Volume24hUSD, cfg.VolumeCeiling),
		Stability: StabilityScore(m.VolatilityPct),
	}
	w := cfg.Weights
	s.Total = w.Trending*s.Trending +
		w.MarketCap*s.MarketCap +
		w.Liquidity*s.Liquidity +
		w.Stability*s.Stability
	return s
}

// TrendingScore rewards proximity to rank zero.
func TrendingScore(rank, ceiling float64, clamp bool) float64 {
	v := (ceiling - rank) / ceiling * 100
	if clamp {
		return math.Max(0, math.Min(100, v))
	}
	return v
}

// StabilityScore is 100 minus the volatility percentage, floored at 0.
func StabilityScore(volatilityPct float64) float64 {
	return 100 - math.Min(100, volatilityPct)
}

func saturating(v, ceiling float64) float64 {
	return math.Min(100, v/ceiling*100)
}
