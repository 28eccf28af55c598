package usecase

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
)

// Rank sources for the trending signal.
const (
	RankSourceMarketCap = "market_cap"
	RankSourceTrending  = "trending"
)

// Assembled is the engine input plus the raw data it came from.
type Assembled struct {
	Input  models.MetricsInput
	Quote  *models.PriceQuote
	Market *models.MarketCoin
}

// MetricsAssembler gathers the engine inputs for one coin.
type MetricsAssembler struct {
	market     drepo.MarketData
	rankSource string
}

func NewMetricsAssembler(market drepo.MarketData, rankSource string) *MetricsAssembler {
	if rankSource == "" {
		rankSource = RankSourceMarketCap
	}
	return &MetricsAssembler{market: market, rankSource: rankSource}
}

// Assemble fetches the quote and the rank signal concurrently. Values the provider
// does not report are left nil for the engine to normalize.
func (a *MetricsAssembler) Assemble(ctx context.Context, coinID string) (*Assembled, error) {
	out := &Assembled{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		quotes, err := a.market.SimplePrice(gctx, []string{coinID})
		if err != nil {
			return fmt.Errorf("price: %w", err)
		}
		if q, ok := quotes[coinID]; ok {
			out.Quote = &q
		}
		return nil
	})

	g.Go(func() error {
		markets, err := a.market.Markets(gctx, models.MarketsQuery{IDs: []string{coinID}, Limit: 1})
		if err != nil {
			return fmt.Errorf("market rank: %w", err)
		}
		for i := range markets {
			if markets[i].ID == coinID {
				out.Market = &markets[i]
				break
			}
		}
		return nil
	})

	var rankSignal *float64
	if a.rankSource == RankSourceTrending {
		g.Go(func() error {
			trending, err := a.market.Trending(gctx)
			if err != nil {
				return fmt.Errorf("trending: %w", err)
			}
			for _, t := range trending {
				if t.ID == coinID {
					rankSignal = models.Float(float64(t.Position))
					break
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("assemble %s: %w", coinID, err)
	}

	in := models.MetricsInput{RankSignal: rankSignal}
	if a.rankSource != RankSourceTrending && out.Market != nil && out.Market.MarketCapRank > 0 {
		in.RankSignal = models.Float(float64(out.Market.MarketCapRank))
	}
	if q := out.Quote; q != nil {
		in.MarketCapUSD = q.MarketCap
		in.Volume24hUSD = q.Volume24h
		if q.Change24hPct != nil {
			in.VolatilityPct = models.Float(math.Abs(*q.Change24hPct))
		}
	}
	// /simple/price omits fields for thin coins; the market listing often still has them.
	if m := out.Market; m != nil {
		if in.MarketCapUSD == nil && m.MarketCap > 0 {
			in.MarketCapUSD = models.Float(m.MarketCap)
		}
		if in.Volume24hUSD == nil && m.TotalVolume > 0 {
			in.Volume24hUSD = models.Float(m.TotalVolume)
		}
	}
	out.Input = in
	return out, nil
}
