// Package codex queries the Codex GraphQL API for top on-chain tokens.
package codex

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CoinSense/internal/domain/models"
	"CoinSense/internal/service/upstream"
)

const DefaultURL = "https://graph.codex.io/graphql"

// DefaultNetworks are Ethereum, Arbitrum and Base.
var DefaultNetworks = []int{1, 42161, 8453}

var ErrGraphQL = errors.New("codex graphql error")

const listTopTokensQuery = `query ListTopTokens($networkFilter: [Int!], $limit: Int) {
  listTopTokens(networkFilter: $networkFilter, limit: $limit) {
    address
    symbol
    name
    networkId
    price
    volume
    marketCap
    isScam
  }
}`

type Config struct {
	APIKey   string
	URL      string
	Networks []int
	Limit    int
	Timeout  time.Duration
	RPS      float64
}

// Client implements repository.TokenFeed.
type Client struct {
	base     *upstream.Base
	networks []int
	limit    int
}

func New(cfg Config, opts ...upstream.Option) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if len(cfg.Networks) == 0 {
		cfg.Networks = DefaultNetworks
	}
	return &Client{
		base: upstream.New(upstream.Config{
			Name:    "codex",
			BaseURL: cfg.URL,
			Timeout: cfg.Timeout,
			RPS:     cfg.RPS,
			Burst:   1,
			Headers: map[string]string{"Authorization": cfg.APIKey},
		}, opts...),
		networks: cfg.Networks,
		limit:    cfg.Limit,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type topTokensResponse struct {
	Data struct {
		ListTopTokens []struct {
			Address   string  `json:"address"`
			Symbol    string  `json:"symbol"`
			Name      string  `json:"name"`
			NetworkID int     `json:"networkId"`
			Price     float64 `json:"price"`
			Volume    string  `json:"volume"`
			MarketCap *string `json:"marketCap"`
			IsScam    *bool   `json:"isScam"`
		} `json:"listTopTokens"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// TopTokens lists top tokens on networks, or on the configured networks when empty.
// Tokens flagged as scams are dropped.
func (c *Client) TopTokens(ctx context.Context, networks []int) ([]models.TopToken, error) {
	if len(networks) == 0 {
		networks = c.networks
	}
	vars := map[string]interface{}{"networkFilter": networks}
	if c.limit > 0 {
		vars["limit"] = c.limit
	}

	var raw topTokensResponse
	if err := c.base.PostJSON(ctx, "", graphQLRequest{Query: listTopTokensQuery, Variables: vars}, &raw); err != nil {
		return nil, err
	}
	if len(raw.Errors) > 0 {
		msgs := make([]string, 0, len(raw.Errors))
		for _, e := range raw.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, fmt.Errorf("%w: %s", ErrGraphQL, strings.Join(msgs, "; "))
	}

	out := make([]models.TopToken, 0, len(raw.Data.ListTopTokens))
	for _, t := range raw.Data.ListTopTokens {
		if t.IsScam != nil && *t.IsScam {
			continue
		}
		tok := models.TopToken{
			Address:   t.Address,
			Symbol:    t.Symbol,
			Name:      t.Name,
			NetworkID: t.NetworkID,
			Price:     t.Price,
			Volume:    t.Volume,
		}
		if t.MarketCap != nil {
			tok.MarketCap = *t.MarketCap
		}
		out = append(out, tok)
	}
	return out, nil
}
