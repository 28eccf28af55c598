package api

import (
	"context"

	"CoinSense/internal/domain/models"
)

// Narrow views of the use cases so handlers can be tested without upstreams.

type ChatService interface {
	Handle(ctx context.Context, msg models.ChatMessage) (*models.Reply, error)
}

type DecisionService interface {
	Evaluate(ctx context.Context, query, persona string) (*models.CoinDecision, error)
}

type HistoryService interface {
	History(ctx context.Context, coinID string, limit int) ([]*models.DecisionRecord, error)
}

type MarketService interface {
	Price(ctx context.Context, query string) (*models.Reply, error)
	PriceByAddress(ctx context.Context, chain, address string) (*models.Reply, error)
	Trending(ctx context.Context, limit int) (*models.Reply, error)
	TrendingPools(ctx context.Context, limit int) (*models.Reply, error)
	Markets(ctx context.Context, category string, limit int) (*models.Reply, error)
	TopGainersLosers(ctx context.Context, limit int) (*models.Reply, error)
	NewlyListed(ctx context.Context, limit int) (*models.Reply, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

type AlphaService interface {
	RecentTweets(ctx context.Context, username string) (*models.Reply, error)
}

type BoostedService interface {
	Latest(ctx context.Context) (*models.Reply, error)
}
