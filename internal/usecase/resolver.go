package usecase

import (
	"context"
	"fmt"
	"strings"

	"CoinSense/internal/domain/models"
	drepo "CoinSense/internal/domain/repository"
	"CoinSense/internal/services/intent"
)

// Solana style base58 mints are at least this long.
const minNonEVMAddressLen = 32

// CoinResolver maps free text to a catalogue coin.
type CoinResolver struct {
	market drepo.MarketData
}

func NewCoinResolver(market drepo.MarketData) *CoinResolver {
	return &CoinResolver{market: market}
}

// Resolve tries, in order: contract address on any platform, exact symbol, exact id, exact name.
// Several coins sharing a symbol resolve to the one with the largest market cap.
func (r *CoinResolver) Resolve(ctx context.Context, query string) (*models.Coin, error) {
	q := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(query), "$")))
	if q == "" {
		return nil, ErrCoinNotFound
	}

	coins, err := r.market.CoinsList(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve %q: %w", query, err)
	}

	addr, isEVM := intent.ExtractAddress(q)
	if !isEVM && len(q) >= minNonEVMAddressLen && !strings.ContainsAny(q, " -") {
		addr = q
	}
	if addr != "" {
		for i := range coins {
			for _, a := range coins[i].Platforms {
				if strings.EqualFold(a, addr) {
					return &coins[i], nil
				}
			}
		}
		if isEVM {
			return nil, fmt.Errorf("resolve %q: %w", query, ErrCoinNotFound)
		}
	}

	var bySymbol []models.Coin
	for _, c := range coins {
		if c.Symbol == q {
			bySymbol = append(bySymbol, c)
		}
	}
	switch len(bySymbol) {
	case 0:
	case 1:
		return &bySymbol[0], nil
	default:
		return r.largest(ctx, query, bySymbol)
	}

	for i := range coins {
		if coins[i].ID == q {
			return &coins[i], nil
		}
	}
	for i := range coins {
		if strings.ToLower(coins[i].Name) == q {
			return &coins[i], nil
		}
	}
	return nil, fmt.Errorf("resolve %q: %w", query, ErrCoinNotFound)
}

// largest picks the candidate the market listing ranks first by market cap.
func (r *CoinResolver) largest(ctx context.Context, query string, candidates []models.Coin) (*models.Coin, error) {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	markets, err := r.market.Markets(ctx, models.MarketsQuery{IDs: ids, Limit: len(ids)})
	if err != nil {
		return nil, fmt.Errorf("resolve %q: rank candidates: %w", query, err)
	}

	best := -1
	var bestCap float64
	for _, m := range markets {
		for i := range candidates {
			if candidates[i].ID == m.ID && (best < 0 || m.MarketCap > bestCap) {
				best, bestCap = i, m.MarketCap
			}
		}
	}
	if best < 0 {
		return &candidates[0], nil
	}
	return &candidates[best], nil
}
