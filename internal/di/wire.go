//go:build wireinject
// +build wireinject

package di

import (
	"ForecastAPI/internal/domain/repository"
	"ForecastAPI/pkg/config"
	"ForecastAPI/pkg/metrics"
	"ForecastAPI/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The returned cleanup releases infrastructure clients.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,

		// Metrics
		ProvideRegistry,
		ProvideRecorder,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),

		// Infrastructure
		ProvideArtifacts,
		ProvideClickHouseClient,
		ProvideSeriesCache,
		ProvidePredictionPublisher,
		ProvideMarketDataProviders,

		// Use cases
		ProvidePredictor,
		ProvideSampleData,
		ProvideRefresher,

		// HTTP
		ProvideForecastHandler,
		ProvideHTTPServer,

		ProvideApp,
	)
	return nil, nil, nil
}
