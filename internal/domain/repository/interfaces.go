package repository

import (
	"context"

	"CoinSense/internal/domain/models"
)

// MarketData is the coin catalogue and market data provider.
type MarketData interface {
	CoinsList(ctx context.Context) ([]models.Coin, error)
	Markets(ctx context.Context, q models.MarketsQuery) ([]models.MarketCoin, error)
	SimplePrice(ctx context.Context, ids []string) (map[string]models.PriceQuote, error)
	TokenPrice(ctx context.Context, platform, address string) (*models.PriceQuote, error)
	Trending(ctx context.Context) ([]models.TrendingCoin, error)
	TrendingPools(ctx context.Context, limit int) ([]models.Pool, error)
	TopGainersLosers(ctx context.Context, duration string) (*models.Movers, error)
	NewlyListed(ctx context.Context, limit int) ([]models.NewCoin, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// SocialFeed returns recent posts of a user.
type SocialFeed interface {
	UserTweets(ctx context.Context, username string) ([]models.Tweet, error)
}

// TokenFeed lists top on-chain tokens for a set of networks.
type TokenFeed interface {
	TopTokens(ctx context.Context, networks []int) ([]models.TopToken, error)
}

// DecisionPublisher ships decision records to a stream.
type DecisionPublisher interface {
	Publish(ctx context.Context, r *models.DecisionRecord) error
	PublishBatch(ctx context.Context, records []*models.DecisionRecord) error
	Close() error
}

// DecisionStore persists decision records and serves history.
type DecisionStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, r *models.DecisionRecord) error
	StoreBatch(ctx context.Context, records []*models.DecisionRecord) error
	Query(ctx context.Context, coinID string, limit int) ([]*models.DecisionRecord, error)
	Health(ctx context.Context) error
	Close() error
}

type Metrics interface {
	RecordDecision(persona, outcome string, total float64)
	RecordAction(action string, ok bool)
	RecordMessageSent(backend string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
