//go:build wireinject
// +build wireinject

package di

import (
	"NotifyInvest/pkg/config"
	"NotifyInvest/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideLedger,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Logging
		ProvideLogger,

		// Repositories
		ProvideRegistry,
		ProvidePrefs,
		ProvideSignalsCache,
		ProvidePusher,

		// Use cases
		ProvideDispatcher,
		ProvideIngestor,
		ProvideSignalHandler,

		// Transport
		ProvideAPIHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
