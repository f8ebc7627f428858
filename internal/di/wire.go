//go:build wireinject
// +build wireinject

package di

import (
	"TiltGuard/pkg/config"
	"TiltGuard/pkg/server"

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
		ProvideCacheBackend,

		// Repositories
		ProvideTradeLedger,
		ProvideAuditPublisher,
		ProvideStateStore,

		// Market data
		ProvideMarketTracker,
		ProvideMarketStream,
		ProvideMarketData,
		ProvideCollector,

		// Engine services
		ProvideScorer,
		ProvideClassifier,
		ProvideProfiler,
		ProvideEngine,
		ProvideEventsIngestHandler,

		// Presentation
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
