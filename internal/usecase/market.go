package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
	"CoinSense/internal/service/upstream"
	"CoinSense/pkg/util"
)

// List sizes when the user asks for everything.
const (
	DefaultListLimit = 10
	AllPools         = 100
	AllNewCoins      = 50
	AllTrending      = 15
	AllMovers        = 30
)

// MarketUseCase serves price and listing lookups.
type MarketUseCase struct {
	market   drepo.MarketData
	resolver *CoinResolver
}

func NewMarketUseCase(market drepo.MarketData, resolver *CoinResolver) *MarketUseCase {
	return &MarketUseCase{market: market, resolver: resolver}
}

// Price quotes a coin given by name, symbol, id or contract address.
func (u *MarketUseCase) Price(ctx context.Context, query string) (*models.Reply, error) {
	coin, err := u.resolver.Resolve(ctx, query)
	if err != nil {
		return nil, err
	}
	quotes, err := u.market.SimplePrice(ctx, []string{coin.ID})
	if err != nil {
		return nil, fmt.Errorf("price %s: %w", coin.ID, err)
	}
	q, ok := quotes[coin.ID]
	if !ok {
		return nil, fmt.Errorf("price %s: %w", coin.ID, ErrNoResults)
	}

	text := fmt.Sprintf("%s (%s): %s", coin.Name, strings.ToUpper(coin.Symbol), quoteLine(q))
	return &models.Reply{Action: models.ActionPrice, Text: text, Content: q}, nil
}

// PriceByAddress quotes a token contract on a chain.
func (u *MarketUseCase) PriceByAddress(ctx context.Context, chain, address string) (*models.Reply, error) {
	q, err := u.market.TokenPrice(ctx, chain, address)
	if errors.Is(err, upstream.ErrNotFound) {
		return nil, fmt.Errorf("token %s on %s: %w", address, chain, ErrCoinNotFound)
	}
	if err != nil {
		return nil, err
	}
	text := fmt.Sprintf("Token %s on %s: %s", address, chain, quoteLine(*q))
	return &models.Reply{Action: models.ActionPricePerAddress, Text: text, Content: q}, nil
}

// Trending lists the search-trending coins.
func (u *MarketUseCase) Trending(ctx context.Context, limit int) (*models.Reply, error) {
	coins, err := u.market.Trending(ctx)
	if err != nil {
		return nil, err
	}
	coins = head(coins, limit)
	if len(coins) == 0 {
		return nil, fmt.Errorf("trending: %w", ErrNoResults)
	}

	var b strings.Builder
	b.WriteString("Trending coins:\n")
	for _, c := range coins {
		fmt.Fprintf(&b, "%d. %s (%s)", c.Position, c.Name, strings.ToUpper(c.Symbol))
		if c.MarketCapRank > 0 {
			fmt.Fprintf(&b, " - market cap rank #%d", c.MarketCapRank)
		}
		b.WriteByte('\n')
	}
	return &models.Reply{Action: models.ActionTrending, Text: strings.TrimRight(b.String(), "\n"), Content: coins}, nil
}

// TrendingPools lists trending liquidity pools.
func (u *MarketUseCase) TrendingPools(ctx context.Context, limit int) (*models.Reply, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	pools, err := u.market.TrendingPools(ctx, limit)
	if err != nil {
		return nil, err
	}
	pools = head(pools, limit)
	if len(pools) == 0 {
		return nil, fmt.Errorf("trending pools: %w", ErrNoResults)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Top %d trending pools:\n", len(pools))
	for i, p := range pools {
		fmt.Fprintf(&b, "%d. %s | price %s | 24h vol %s | 24h %s | liquidity %s\n",
			i+1, p.Name, util.FormatPrice(p.BaseTokenPrice), util.FormatCompact(p.Volume24h),
			util.FormatPercent(p.Change24hPct), util.FormatCompact(p.ReserveUSD))
	}
	return &models.Reply{Action: models.ActionTrendingPools, Text: strings.TrimRight(b.String(), "\n"), Content: pools}, nil
}

// Markets lists coins by market cap, optionally within a category.
func (u *MarketUseCase) Markets(ctx context.Context, category string, limit int) (*models.Reply, error) {
	coins, err := u.market.Markets(ctx, models.MarketsQuery{Category: category, Limit: limit})
	if err != nil {
		return nil, err
	}
	if len(coins) == 0 {
		return nil, fmt.Errorf("markets %q: %w", category, ErrNoResults)
	}

	var b strings.Builder
	if category != "" {
		fmt.Fprintf(&b, "Top %s coins by market cap:\n", category)
	} else {
		b.WriteString("Top coins by market cap:\n")
	}
	for i, c := range coins {
		fmt.Fprintf(&b, "%d. %s (%s) %s | mcap %s | 24h %s\n",
			i+1, c.Name, strings.ToUpper(c.Symbol), util.FormatPrice(c.CurrentPrice),
			util.FormatCompact(c.MarketCap), util.FormatPercent(c.PriceChangePercentage24h))
	}
	return &models.Reply{Action: models.ActionMarkets, Text: strings.TrimRight(b.String(), "\n"), Content: coins}, nil
}

// TopGainersLosers lists the biggest 24h movers, limit per side.
func (u *MarketUseCase) TopGainersLosers(ctx context.Context, limit int) (*models.Reply, error) {
	movers, err := u.market.TopGainersLosers(ctx, "24h")
	if err != nil {
		return nil, err
	}
	out := models.Movers{Gainers: head(movers.Gainers, limit), Losers: head(movers.Losers, limit)}
	if len(out.Gainers) == 0 && len(out.Losers) == 0 {
		return nil, fmt.Errorf("movers: %w", ErrNoResults)
	}

	var b strings.Builder
	writeMovers(&b, "Top gainers (24h):", out.Gainers)
	b.WriteByte('\n')
	writeMovers(&b, "Top losers (24h):", out.Losers)
	return &models.Reply{Action: models.ActionMovers, Text: strings.TrimRight(b.String(), "\n"), Content: out}, nil
}

// NewlyListed lists the latest coin listings.
func (u *MarketUseCase) NewlyListed(ctx context.Context, limit int) (*models.Reply, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	coins, err := u.market.NewlyListed(ctx, limit)
	if err != nil {
		return nil, err
	}
	coins = head(coins, limit)
	if len(coins) == 0 {
		return nil, fmt.Errorf("new coins: %w", ErrNoResults)
	}

	var b strings.Builder
	b.WriteString("Newly listed coins:\n")
	for i, c := range coins {
		fmt.Fprintf(&b, "%d. %s (%s) listed %s\n", i+1, c.Name, strings.ToUpper(c.Symbol), c.ActivatedAt.Format("2006-01-02 15:04 UTC"))
	}
	return &models.Reply{Action: models.ActionNewCoins, Text: strings.TrimRight(b.String(), "\n"), Content: coins}, nil
}

// Categories lists the coin categories usable with Markets.
func (u *MarketUseCase) Categories(ctx context.Context) ([]models.Category, error) {
	return u.market.Categories(ctx)
}

func quoteLine(q models.PriceQuote) string {
	parts := []string{util.FormatPrice(q.Price)}
	if q.Change24hPct != nil {
		parts = append(parts, "24h "+util.FormatPercent(*q.Change24hPct))
	}
	if q.MarketCap != nil {
		parts = append(parts, "mcap "+util.FormatCompact(*q.MarketCap))
	}
	if q.Volume24h != nil {
		parts = append(parts, "vol "+util.FormatCompact(*q.Volume24h))
	}
	return strings.Join(parts, " | ")
}

func writeMovers(b *strings.Builder, title string, movers []models.Mover) {
	b.WriteString(title)
	b.WriteByte('\n')
	for i, m := range movers {
		fmt.Fprintf(b, "%d. %s (%s) %s %s\n", i+1, m.Name, strings.ToUpper(m.Symbol), util.FormatPrice(m.PriceUSD), util.FormatPercent(m.ChangePct))
	}
}

func head[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
