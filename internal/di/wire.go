//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"CoinSense/pkg/config"
	"CoinSense/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,
		ProvideClickHouseClient,

		// Upstreams
		ProvideMarketData,
		ProvideSocialFeed,
		ProvideTokenFeed,

		// Recording
		ProvideDecisionStore,
		ProvideDecisionPublisher,
		ProvideDecisionRecorder,
		ProvideRecordPipeline,

		// Use cases
		ProvideEngine,
		ProvideCoinResolver,
		ProvideMetricsAssembler,
		ProvideDecisionUseCase,
		ProvideMarketUseCase,
		ProvideAlphaUseCase,
		ProvideBoostedTokensUseCase,
		ProvideChatRouter,

		// Transports
		ProvideKafkaConsumer,
		ProvideKafkaChatHandler,
		ProvideAPIHandler,
		ProvideWSHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
