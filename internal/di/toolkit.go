package di

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"CoinSense/internal/services/decision"
	"CoinSense/internal/usecase"
	"CoinSense/pkg/cache"
	"CoinSense/pkg/config"
	applogger "CoinSense/pkg/logger"
	"CoinSense/pkg/metrics"
)

// Toolkit is the graph one-shot CLI commands need: upstreams and use cases,
// no servers, no consumers and no decision recording.
type Toolkit struct {
	Engine   *decision.Engine
	Decision *usecase.DecisionUseCase
	Chat     *usecase.ChatRouter
	cache    cache.Service
}

// NewToolkit builds a Toolkit from cfg. Metrics go to a private registry.
func NewToolkit(cfg *config.Config, l *applogger.Logger) (*Toolkit, error) {
	if l == nil {
		l = applogger.NewNop()
	}
	engine, err := BuildEngine(cfg.Decision)
	if err != nil {
		return nil, fmt.Errorf("decision engine: %w", err)
	}
	c, err := ProvideCache(cfg)
	if err != nil {
		return nil, err
	}
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	market := ProvideMarketData(cfg, c, l)
	resolver := usecase.NewCoinResolver(market)
	dec := usecase.NewDecisionUseCase(resolver, ProvideMetricsAssembler(market, cfg), engine, nil, m, l)
	mk := usecase.NewMarketUseCase(market, resolver)
	chat := usecase.NewChatRouter(
		dec,
		mk,
		usecase.NewAlphaUseCase(ProvideSocialFeed(cfg, l)),
		ProvideBoostedTokensUseCase(ProvideTokenFeed(cfg, l), cfg),
		m,
		l,
	)
	return &Toolkit{Engine: engine, Decision: dec, Chat: chat, cache: c}, nil
}

func (t *Toolkit) Close() error {
	if t.cache != nil {
		return t.cache.Close()
	}
	return nil
}
