//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"EnergyForecast/internal/domain/repository"
	"EnergyForecast/pkg/config"
	"EnergyForecast/pkg/metrics"
	"EnergyForecast/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application
// together with a cleanup that releases them in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure
		ProvideKafkaProducer,
		ProvideLogger,
		ProvideMetrics,
		wire.Bind(new(repository.Metrics), new(*metrics.Recorder)),
		ProvideTracer,
		ProvideRedis,
		ProvideCache,
		ProvideReadingStore,

		// Models and forecasting
		ProvideModels,
		ProvideForecaster,
		ProvideForecastPublisher,

		// Use cases
		ProvideForecastUseCase,
		ProvideMeterUseCase,
		ProvideKafkaConsumer,

		// Transport
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}
