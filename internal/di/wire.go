//go:build wireinject
// +build wireinject

package di

import (
	"TradePulse/pkg/config"
	"TradePulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideHistoryCache,
		ProvideHistoryStore,
		ProvideSignalStore,
		ProvideSignalPublisher,

		// Pipeline services
		ProvideDedupCache,
		ProvidePredictor,
		ProvideRiskValidator,
		ProvideSynthesizer,

		// Use cases and handlers
		ProvideEngine,
		ProvideMarketDataHandler,
		ProvideStatusHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
