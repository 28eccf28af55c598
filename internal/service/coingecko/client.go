// Package coingecko reads the coin catalogue, prices and market listings from the CoinGecko API.
package coingecko

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"CoinSense/internal/domain/models"
	"CoinSense/internal/service/upstream"
	"CoinSense/pkg/cache"
)

const (
	DemoBaseURL = "https://api.coingecko.com/api/v3"
	ProBaseURL  = "https://pro-api.coingecko.com/api/v3"

	demoKeyHeader = "x-cg-demo-api-key"
	proKeyHeader  = "x-cg-pro-api-key"

	vsCurrency    = "usd"
	maxMarketPage = 250
	poolsPageSize = 20
	maxPoolPages  = 5
)

type Config struct {
	APIKey   string
	Pro      bool
	BaseURL  string // overrides the demo/pro default
	Timeout  time.Duration
	RPS      float64
	Burst    int
	ListTTL  time.Duration
	PriceTTL time.Duration
}

// Client implements repository.MarketData.
type Client struct {
	base     *upstream.Base
	cache    cache.Service
	listTTL  time.Duration
	priceTTL time.Duration
}

// New builds a client. A nil cache disables caching.
func New(cfg Config, c cache.Service, opts ...upstream.Option) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DemoBaseURL
		if cfg.Pro {
			baseURL = ProBaseURL
		}
	}
	headers := map[string]string{}
	if cfg.APIKey != "" {
		if cfg.Pro {
			headers[proKeyHeader] = cfg.APIKey
		} else {
			headers[demoKeyHeader] = cfg.APIKey
		}
	}
	if cfg.ListTTL <= 0 {
		cfg.ListTTL = time.Hour
	}
	if cfg.PriceTTL <= 0 {
		cfg.PriceTTL = 30 * time.Second
	}

	return &Client{
		base: upstream.New(upstream.Config{
			Name:    "coingecko",
			BaseURL: baseURL,
			Timeout: cfg.Timeout,
			RPS:     cfg.RPS,
			Burst:   cfg.Burst,
			Headers: headers,
		}, opts...),
		cache:    c,
		listTTL:  cfg.ListTTL,
		priceTTL: cfg.PriceTTL,
	}
}

// CoinsList returns the full catalogue including contract addresses per platform.
func (c *Client) CoinsList(ctx context.Context) ([]models.Coin, error) {
	return cache.Remember(ctx, c.cache, "coingecko:coins:list", c.listTTL, func(ctx context.Context) ([]models.Coin, error) {
		var coins []models.Coin
		q := url.Values{"include_platform": {"true"}}
		if err := c.base.GetJSON(ctx, "/coins/list", q, &coins); err != nil {
			return nil, err
		}
		return coins, nil
	})
}

// Markets lists coins with market data ordered by market cap.
func (c *Client) Markets(ctx context.Context, mq models.MarketsQuery) ([]models.MarketCoin, error) {
	limit := mq.Limit
	if limit <= 0 || limit > maxMarketPage {
		limit = maxMarketPage
	}
	ids := normalizeIDs(mq.IDs)
	q := url.Values{
		"vs_currency": {vsCurrency},
		"order":       {"market_cap_desc"},
		"per_page":    {strconv.Itoa(limit)},
		"page":        {"1"},
	}
	switch {
	case len(ids) > 0:
		q.Set("ids", strings.Join(ids, ","))
	case mq.Category != "":
		q.Set("category", mq.Category)
	}

	key := cache.GenerateKeyWithParams("coingecko:markets", strings.Join(ids, ","), mq.Category, limit)
	return cache.Remember(ctx, c.cache, key, c.priceTTL, func(ctx context.Context) ([]models.MarketCoin, error) {
		var out []models.MarketCoin
		if err := c.base.GetJSON(ctx, "/coins/markets", q, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

// SimplePrice quotes ids in USD with market cap, 24h volume and 24h change.
// Ids the provider does not know are absent from the result.
func (c *Client) SimplePrice(ctx context.Context, ids []string) (map[string]models.PriceQuote, error) {
	ids = normalizeIDs(ids)
	if len(ids) == 0 {
		return map[string]models.PriceQuote{}, nil
	}
	q := priceParams()
	q.Set("ids", strings.Join(ids, ","))

	key := cache.GenerateKeyWithParams("coingecko:price", strings.Join(ids, ","))
	return cache.Remember(ctx, c.cache, key, c.priceTTL, func(ctx context.Context) (map[string]models.PriceQuote, error) {
		var raw map[string]priceEntry
		if err := c.base.GetJSON(ctx, "/simple/price", q, &raw); err != nil {
			return nil, err
		}
		out := make(map[string]models.PriceQuote, len(raw))
		for id, e := range raw {
			if e.USD == nil {
				continue
			}
			out[id] = e.quote(id)
		}
		return out, nil
	})
}

// TokenPrice quotes a contract on a platform such as "ethereum" or "polygon-pos".
func (c *Client) TokenPrice(ctx context.Context, platform, address string) (*models.PriceQuote, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	address = strings.TrimSpace(address)
	if platform == "" || address == "" {
		return nil, fmt.Errorf("coingecko token price: platform and address are required")
	}
	q := priceParams()
	q.Set("contract_addresses", address)

	key := cache.GenerateKeyWithParams("coingecko:token_price", platform, address)
	return cache.Remember(ctx, c.cache, key, c.priceTTL, func(ctx context.Context) (*models.PriceQuote, error) {
		var raw map[string]priceEntry
		if err := c.base.GetJSON(ctx, "/simple/token_price/"+url.PathEscape(platform), q, &raw); err != nil {
			return nil, err
		}
		for addr, e := range raw {
			if strings.EqualFold(addr, address) && e.USD != nil {
				quote := e.quote(addr)
				return &quote, nil
			}
		}
		return nil, fmt.Errorf("coingecko token price %s on %s: %w", address, platform, upstream.ErrNotFound)
	})
}

// Trending returns the search-trending coins, Position 1 being the hottest.
func (c *Client) Trending(ctx context.Context) ([]models.TrendingCoin, error) {
	return cache.Remember(ctx, c.cache, "coingecko:trending", c.priceTTL, func(ctx context.Context) ([]models.TrendingCoin, error) {
		var raw trendingResponse
		if err := c.base.GetJSON(ctx, "/search/trending", nil, &raw); err != nil {
			return nil, err
		}
		out := make([]models.TrendingCoin, 0, len(raw.Coins))
		for _, entry := range raw.Coins {
			it := entry.Item
			out = append(out, models.TrendingCoin{
				ID:            it.ID,
				Symbol:        it.Symbol,
				Name:          it.Name,
				MarketCapRank: it.MarketCapRank,
				Position:      it.Score + 1,
				PriceBTC:      it.PriceBTC,
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
		return out, nil
	})
}

// TrendingPools returns up to limit trending on-chain pools across networks.
func (c *Client) TrendingPools(ctx context.Context, limit int) ([]models.Pool, error) {
	if limit <= 0 {
		limit = 10
	}
	pages := (limit + poolsPageSize - 1) / poolsPageSize
	if pages > maxPoolPages {
		pages = maxPoolPages
	}

	key := cache.GenerateKeyWithParams("coingecko:pools", limit)
	return cache.Remember(ctx, c.cache, key, c.priceTTL, func(ctx context.Context) ([]models.Pool, error) {
		out := make([]models.Pool, 0, limit)
		for page := 1; page <= pages && len(out) < limit; page++ {
			var raw poolsResponse
			q := url.Values{"page": {strconv.Itoa(page)}}
			if err := c.base.GetJSON(ctx, "/onchain/networks/trending_pools", q, &raw); err != nil {
				return nil, err
			}
			if len(raw.Data) == 0 {
				break
			}
			for _, d := range raw.Data {
				out = append(out, d.pool())
			}
		}
		if len(out) > limit {
			out = out[:limit]
		}
		return out, nil
	})
}

// TopGainersLosers returns the movers for a window such as "1h", "24h" or "7d".
func (c *Client) TopGainersLosers(ctx context.Context, duration string) (*models.Movers, error) {
	if duration == "" {
		duration = "24h"
	}
	q := url.Values{"vs_currency": {vsCurrency}, "duration": {duration}}

	key := cache.GenerateKeyWithParams("coingecko:movers", duration)
	return cache.Remember(ctx, c.cache, key, c.priceTTL, func(ctx context.Context) (*models.Movers, error) {
		var raw moversResponse
		if err := c.base.GetJSON(ctx, "/coins/top_gainers_losers", q, &raw); err != nil {
			return nil, err
		}
		changeKey := vsCurrency + "_" + duration + "_change"
		return &models.Movers{
			Gainers: toMovers(raw.Gainers, changeKey),
			Losers:  toMovers(raw.Losers, changeKey),
		}, nil
	})
}

// NewlyListed returns the most recently listed coins, newest first.
func (c *Client) NewlyListed(ctx context.Context, limit int) ([]models.NewCoin, error) {
	coins, err := cache.Remember(ctx, c.cache, "coingecko:coins:new", c.priceTTL, func(ctx context.Context) ([]models.NewCoin, error) {
		var raw []newCoinEntry
		if err := c.base.GetJSON(ctx, "/coins/list/new", nil, &raw); err != nil {
			return nil, err
		}
		out := make([]models.NewCoin, 0, len(raw))
		for _, e := range raw {
			out = append(out, models.NewCoin{
				ID:          e.ID,
				Symbol:      e.Symbol,
				Name:        e.Name,
				ActivatedAt: time.Unix(e.ActivatedAt, 0).UTC(),
			})
		}
		sort.SliceStable(out, func(i, j int) bool { return out[i].ActivatedAt.After(out[j].ActivatedAt) })
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(coins) > limit {
		coins = coins[:limit]
	}
	return coins, nil
}

// Categories lists coin categories.
func (c *Client) Categories(ctx context.Context) ([]models.Category, error) {
	return cache.Remember(ctx, c.cache, "coingecko:categories", c.listTTL, func(ctx context.Context) ([]models.Category, error) {
		var out []models.Category
		if err := c.base.GetJSON(ctx, "/coins/categories/list", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
}

func priceParams() url.Values {
	return url.Values{
		"vs_currencies":           {vsCurrency},
		"include_market_cap":      {"true"},
		"include_24hr_vol":        {"true"},
		"include_24hr_change":     {"true"},
		"include_last_updated_at": {"true"},
	}
}

// normalizeIDs lowercases, trims, dedupes and sorts so equal sets share a cache key.
func normalizeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
