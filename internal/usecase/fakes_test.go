package usecase

import (
	"context"
	"sync"

	"CoinSense/internal/domain/models"
)

type fakeMarket struct {
	mu         sync.Mutex
	coins      []models.Coin
	markets    map[string]models.MarketCoin
	quotes     map[string]models.PriceQuote
	token      *models.PriceQuote
	trending   []models.TrendingCoin
	pools      []models.Pool
	movers     *models.Movers
	newCoins   []models.NewCoin
	categories []models.Category
	err        error
	calls      map[string]int
}

func (f *fakeMarket) hit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[name]++
	return f.err
}

func (f *fakeMarket) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeMarket) CoinsList(context.Context) ([]models.Coin, error) {
	if err := f.hit("coins"); err != nil {
		return nil, err
	}
	return f.coins, nil
}

func (f *fakeMarket) Markets(_ context.Context, q models.MarketsQuery) ([]models.MarketCoin, error) {
	if err := f.hit("markets"); err != nil {
		return nil, err
	}
	var out []models.MarketCoin
	if len(q.IDs) == 0 {
		for _, m := range f.markets {
			out = append(out, m)
		}
		return out, nil
	}
	for _, id := range q.IDs {
		if m, ok := f.markets[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMarket) SimplePrice(_ context.Context, ids []string) (map[string]models.PriceQuote, error) {
	if err := f.hit("price"); err != nil {
		return nil, err
	}
	out := map[string]models.PriceQuote{}
	for _, id := range ids {
		if q, ok := f.quotes[id]; ok {
			out[id] = q
		}
	}
	return out, nil
}

func (f *fakeMarket) TokenPrice(context.Context, string, string) (*models.PriceQuote, error) {
	if err := f.hit("token"); err != nil {
		return nil, err
	}
	return f.token, nil
}

func (f *fakeMarket) Trending(context.Context) ([]models.TrendingCoin, error) {
	if err := f.hit("trending"); err != nil {
		return nil, err
	}
	return f.trending, nil
}

func (f *fakeMarket) TrendingPools(context.Context, int) ([]models.Pool, error) {
	if err := f.hit("pools"); err != nil {
		return nil, err
	}
	return f.pools, nil
}

func (f *fakeMarket) TopGainersLosers(context.Context, string) (*models.Movers, error) {
	if err := f.hit("movers"); err != nil {
		return nil, err
	}
	return f.movers, nil
}

func (f *fakeMarket) NewlyListed(context.Context, int) ([]models.NewCoin, error) {
	if err := f.hit("new"); err != nil {
		return nil, err
	}
	return f.newCoins, nil
}

func (f *fakeMarket) Categories(context.Context) ([]models.Category, error) {
	if err := f.hit("categories"); err != nil {
		return nil, err
	}
	return f.categories, nil
}

type fakeSocial struct {
	tweets []models.Tweet
	err    error
	user   string
}

func (f *fakeSocial) UserTweets(_ context.Context, username string) ([]models.Tweet, error) {
	f.user = username
	return f.tweets, f.err
}

type fakeTokens struct {
	tokens   []models.TopToken
	err      error
	networks []int
}

func (f *fakeTokens) TopTokens(_ context.Context, networks []int) ([]models.TopToken, error) {
	f.networks = networks
	return f.tokens, f.err
}

type fakeMetrics struct {
	mu        sync.Mutex
	decisions []string
	actions   map[string]bool
	sent      int
	errors    []string
}

func (m *fakeMetrics) RecordDecision(persona, outcome string, _ float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, persona+":"+outcome)
}

func (m *fakeMetrics) RecordAction(action string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.actions == nil {
		m.actions = map[string]bool{}
	}
	m.actions[action] = ok
}

func (m *fakeMetrics) RecordMessageSent(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, kind)
}

func (m *fakeMetrics) RecordLatency(string, float64) {}

type fakeRecorder struct {
	mu      sync.Mutex
	records []*models.DecisionRecord
	err     error
}

func (r *fakeRecorder) Record(_ context.Context, rec *models.DecisionRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

type fakePublisher struct {
	topic string
	key   []byte
	value interface{}
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return p.err
}

// sampleMarket has two coins sharing the PEPE symbol and a well known bitcoin entry.
func sampleMarket() *fakeMarket {
	return &fakeMarket{
		coins: []models.Coin{
			{ID: "bitcoin", Symbol: "btc", Name: "Bitcoin"},
			{ID: "pepe", Symbol: "pepe", Name: "Pepe", Platforms: map[string]string{"ethereum": "0x6982508145454ce325ddbe47a25d4ec3d2311933"}},
			{ID: "pepe-fork", Symbol: "pepe", Name: "Pepe Fork"},
			{ID: "wrapped-bitcoin", Symbol: "wbtc", Name: "Wrapped Bitcoin"},
		},
		markets: map[string]models.MarketCoin{
			"bitcoin":   {ID: "bitcoin", Symbol: "btc", Name: "Bitcoin", MarketCap: 1.2e12, MarketCapRank: 1, TotalVolume: 3e10},
			"pepe":      {ID: "pepe", Symbol: "pepe", Name: "Pepe", MarketCap: 4.5e9, MarketCapRank: 32, TotalVolume: 8e8},
			"pepe-fork": {ID: "pepe-fork", Symbol: "pepe", Name: "Pepe Fork", MarketCap: 1e5, MarketCapRank: 4000},
		},
		quotes: map[string]models.PriceQuote{
			"bitcoin": {CoinID: "bitcoin", Price: 64000, MarketCap: models.Float(1.2e12), Volume24h: models.Float(3e10), Change24hPct: models.Float(-2.5)},
			"pepe":    {CoinID: "pepe", Price: 0.0000112, MarketCap: models.Float(4.5e9), Volume24h: models.Float(8e8), Change24hPct: models.Float(12)},
		},
	}
}
