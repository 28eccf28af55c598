package models

import (
	"math"
	"time"
)

// Outcome is the categorical result of a decision evaluation.
type Outcome string

const (
	OutcomeBuy           Outcome = "BUY"
	OutcomeAvoid         Outcome = "AVOID"
	OutcomeIndeterminate Outcome = "INDETERMINATE"
)

// Label is the word shown to users. An indeterminate call reads as HOLD OFF.
func (o Outcome) Label() string {
	if o == OutcomeIndeterminate {
		return "HOLD OFF"
	}
	return string(o)
}

// MetricsInput carries upstream metrics as fetched. Nil means the provider had no value.
type MetricsInput struct {
	RankSignal    *float64 `json:"rank_signal,omitempty"`
	MarketCapUSD  *float64 `json:"market_cap_usd,omitempty"`
	Volume24hUSD  *float64 `json:"volume_24h_usd,omitempty"`
	VolatilityPct *float64 `json:"volatility_pct,omitempty"`
}

// MarketMetrics is the normalized input of a single evaluation.
type MarketMetrics struct {
	RankSignal    float64 `json:"rank_signal"`
	MarketCapUSD  float64 `json:"market_cap_usd"`
	Volume24hUSD  float64 `json:"volume_24h_usd"`
	VolatilityPct float64 `json:"volatility_pct"`
}

// Normalize substitutes safe defaults for absent or malformed metrics.
// Missing rank maps to rankCeiling so the trending contribution is zero,
// missing volatility maps to 100 (maximally volatile), missing market cap and volume map to 0.
func (in MetricsInput) Normalize(rankCeiling float64) MarketMetrics {
	m := MarketMetrics{
		RankSignal:    rankCeiling,
		VolatilityPct: 100,
	}
	if usable(in.RankSignal) {
		m.RankSignal = *in.RankSignal
	}
	if usable(in.MarketCapUSD) && *in.MarketCapUSD > 0 {
		m.MarketCapUSD = *in.MarketCapUSD
	}
	if usable(in.Volume24hUSD) && *in.Volume24hUSD > 0 {
		m.Volume24hUSD = *in.Volume24hUSD
	}
	if usable(in.VolatilityPct) {
		m.VolatilityPct = math.Abs(*in.VolatilityPct)
	}
	return m
}

func usable(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}

// Float returns a pointer to v. Handy for building MetricsInput literals.
func Float(v float64) *float64 { return &v }

// ScoreSet holds the sub-scores and the weighted total of one evaluation.
type ScoreSet struct {
	Trending  float64 `json:"trending_score"`
	MarketCap float64 `json:"market_cap_score"`
	Liquidity float64 `json:"liquidity_score"`
	Stability float64 `json:"stability_score"`
	Total     float64 `json:"total_score"`
}

// DecisionResult is what the engine hands back to callers.
type DecisionResult struct {
	Outcome   Outcome       `json:"decision"`
	Scores    ScoreSet      `json:"scores"`
	Metrics   MarketMetrics `json:"metrics"`
	Persona   string        `json:"persona"`
	Reasoning string        `json:"reasoning,omitempty"`
}

// DecisionRecord is a persisted or published decision.
type DecisionRecord struct {
	ID        string    `json:"id"`
	CoinID    string    `json:"coin_id"`
	Symbol    string    `json:"symbol"`
	Persona   string    `json:"persona"`
	Outcome   Outcome   `json:"decision"`
	Scores    ScoreSet  `json:"scores"`
	Reasoning string    `json:"reasoning"`
	CreatedAt time.Time `json:"created_at"`
}

// CoinDecision is a decision for a resolved coin.
type CoinDecision struct {
	Coin     Coin           `json:"coin"`
	Result   DecisionResult `json:"result"`
	Quote    *PriceQuote    `json:"quote,omitempty"`
	RecordID string         `json:"record_id,omitempty"`
}
