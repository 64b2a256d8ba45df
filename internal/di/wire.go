//go:build wireinject
// +build wireinject

package di

import (
	"RegimeCast/pkg/config"
	"RegimeCast/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideRegistry,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Collaborators
		ProvideDataSource,
		ProvideReceiptSink,

		// Engine and use cases
		ProvideInterpreter,
		ProvidePlanExecutor,

		// HTTP surface
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
