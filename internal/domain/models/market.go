package models

import "time"

// Coin is an entry of the provider's coin catalogue.
type Coin struct {
	ID        string            `json:"id"`
	Symbol    string            `json:"symbol"`
	Name      string            `json:"name"`
	Platforms map[string]string `json:"platforms,omitempty"`
}

// MarketCoin is a coin with market data.
type MarketCoin struct {
	ID                       string  `json:"id"`
	Symbol                   string  `json:"symbol"`
	Name                     string  `json:"name"`
	CurrentPrice             float64 `json:"current_price"`
	MarketCap                float64 `json:"market_cap"`
	MarketCapRank            int     `json:"market_cap_rank"`
	TotalVolume              float64 `json:"total_volume"`
	PriceChangePercentage24h float64 `json:"price_change_percentage_24h"`
}

// PriceQuote is a spot quote with optional market data.
type PriceQuote struct {
	CoinID        string   `json:"coin_id"`
	Currency      string   `json:"currency"`
	Price         float64  `json:"price"`
	MarketCap     *float64 `json:"market_cap,omitempty"`
	Volume24h     *float64 `json:"volume_24h,omitempty"`
	Change24hPct  *float64 `json:"change_24h_pct,omitempty"`
	LastUpdatedAt int64    `json:"last_updated_at,omitempty"`
}

// TrendingCoin is one position of the trending list. Position starts at 1.
type TrendingCoin struct {
	ID            string  `json:"id"`
	Symbol        string  `json:"symbol"`
	Name          string  `json:"name"`
	MarketCapRank int     `json:"market_cap_rank"`
	Position      int     `json:"position"`
	PriceBTC      float64 `json:"price_btc"`
}

// Pool is a trending liquidity pool.
type Pool struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Address        string  `json:"address"`
	BaseTokenPrice float64 `json:"base_token_price_usd"`
	FDV            float64 `json:"fdv_usd"`
	ReserveUSD     float64 `json:"reserve_in_usd"`
	Volume24h      float64 `json:"volume_usd_h24"`
	Change24hPct   float64 `json:"price_change_percentage_h24"`
}

// NewCoin is a recently listed coin.
type NewCoin struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Name        string    `json:"name"`
	ActivatedAt time.Time `json:"activated_at"`
}

// Mover is a top gainer or loser.
type Mover struct {
	ID        string  `json:"id"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"usd"`
	ChangePct float64 `json:"change_pct"`
	Volume24h float64 `json:"usd_24h_vol"`
}

// Movers groups gainers and losers.
type Movers struct {
	Gainers []Mover `json:"top_gainers"`
	Losers  []Mover `json:"top_losers"`
}

// Category is a coin category.
type Category struct {
	ID   string `json:"category_id"`
	Name string `json:"name"`
}

// Tweet is a post from the social feed.
type Tweet struct {
	ID           string    `json:"id"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"created_at"`
	Favorites    int       `json:"favorite_count"`
	Retweets     int       `json:"retweet_count"`
	Replies      int       `json:"reply_count"`
	RawCreatedAt string    `json:"-"`
}

// TopToken is a token from the on-chain token feed.
type TopToken struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	NetworkID int     `json:"network_id"`
	Price     float64 `json:"price"`
	Volume    string  `json:"volume"`
	MarketCap string  `json:"market_cap,omitempty"`
}

// MarketsQuery selects coins for a market listing. IDs wins over Category.
type MarketsQuery struct {
	IDs      []string
	Category string
	Limit    int
}
