package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/segmentio/kafka-go"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"EnergyForecast/internal/domain/repository"
	"EnergyForecast/internal/handler/api"
	internalrepo "EnergyForecast/internal/repository"
	"EnergyForecast/internal/services/forecast"
	"EnergyForecast/internal/services/inference"
	"EnergyForecast/internal/usecase"
	"EnergyForecast/pkg/cache"
	pkgch "EnergyForecast/pkg/clickhouse"
	"EnergyForecast/pkg/config"
	xhttp "EnergyForecast/pkg/http"
	pkgkafka "EnergyForecast/pkg/kafka"
	"EnergyForecast/pkg/logger"
	"EnergyForecast/pkg/metrics"
	"EnergyForecast/pkg/otel"
	"EnergyForecast/pkg/postgres"
	"EnergyForecast/pkg/server"
)

// Store types.
const (
	StoreNone       = "none"
	StoreMemory     = "memory"
	StoreClickHouse = "clickhouse"
	StorePostgres   = "postgres"
)

const initTimeout = 10 * time.Second

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if !cfg.Kafka.Enabled {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithProducerRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the service logger. Error lines are shipped to the
// collector topic when Kafka is enabled.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*logger.Logger, func(), error) {
	l, err := logger.New(&logger.Config{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Output:  cfg.Logging.Output,
		Service: cfg.Tracing.ServiceName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil || cfg.Logging.CollectorTopic == "" {
		return l, func() {}, nil
	}
	l.AddCollector(&logger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Logging.CollectorTopic,
		Source:         cfg.Tracing.ServiceName,
		Publisher:      producer,
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder on the default registry.
func ProvideMetrics() *metrics.Recorder {
	return metrics.New(prometheus.DefaultRegisterer)
}

// ProvideTracer installs the OTLP tracer provider, or returns nil when tracing is disabled.
func ProvideTracer(cfg *config.Config, l *logger.Logger) (*sdktrace.TracerProvider, func(), error) {
	if !cfg.Tracing.Enabled {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	tp, err := otel.InitTracer(ctx, &otel.Config{
		ServiceName:       cfg.Tracing.ServiceName,
		Environment:       cfg.Environment,
		CollectorEndpoint: cfg.Tracing.Endpoint,
		CollectorInsecure: cfg.Tracing.Insecure,
		SampleRatio:       cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("tracer: %w", err)
	}
	l.Info("tracing enabled", logger.String("endpoint", cfg.Tracing.Endpoint))
	return tp, func() {
		if err := otel.Shutdown(context.Background(), tp); err != nil {
			l.Warn("tracer shutdown", logger.Error(err))
		}
	}, nil
}

// ProvideModels loads the regressor and anomaly detector for the configured backend.
func ProvideModels(cfg *config.Config, l *logger.Logger) (*inference.Models, func(), error) {
	m, err := inference.Load(cfg, l)
	if err != nil {
		return nil, nil, fmt.Errorf("models: %w", err)
	}
	return m, func() {
		if err := m.Close(); err != nil {
			l.Warn("close models", logger.Error(err))
		}
	}, nil
}

// ProvideForecaster wraps the regressor with call metrics.
func ProvideForecaster(cfg *config.Config, m *inference.Models, rec repository.Metrics) *forecast.Forecaster {
	return forecast.New(
		inference.InstrumentRegressor(m.Regressor, rec),
		forecast.WithFloorAtZero(cfg.Forecast.FloorAtZero),
	)
}

// ProvideRedis connects the remote cache tier, or returns nil when it is disabled.
func ProvideRedis(cfg *config.Config) (*cache.RedisCache, func(), error) {
	rc := cfg.Cache.Redis
	if !cfg.Cache.Enabled || !rc.Enabled {
		return nil, func() {}, nil
	}
	r, err := cache.NewRedisCache(
		cache.WithRedisAddr(rc.Addr),
		cache.WithRedisPassword(rc.Password),
		cache.WithRedisDB(rc.DB),
		cache.WithRedisPrefix(rc.Prefix),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	return r, func() { _ = r.Close() }, nil
}

// ProvideCache builds the forecast response cache, or nil when caching is disabled.
func ProvideCache(cfg *config.Config, redis *cache.RedisCache, rec repository.Metrics, l *logger.Logger) *cache.LayeredCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	opts := []cache.LayeredOption{
		cache.WithHitHook(rec.RecordCacheHit),
		cache.WithErrorHook(func(op string, err error) {
			l.Warn("cache error", logger.String("op", op), logger.Error(err))
		}),
	}
	if redis != nil {
		opts = append(opts, cache.WithRemote(redis))
	}
	return cache.NewLayeredCache(cfg.Cache.LRUSize, cfg.Cache.TTL, opts...)
}

// ProvideForecastPublisher publishes forecast events to Kafka when a producer exists.
func ProvideForecastPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.ForecastPublisher {
	if producer == nil {
		return internalrepo.NoopForecastPublisher{}
	}
	return internalrepo.NewKafkaForecastPublisher(producer, cfg.Kafka.ForecastTopic)
}

// ProvideForecastUseCase assembles the stateless forecast pipeline.
func ProvideForecastUseCase(
	cfg *config.Config,
	f *forecast.Forecaster,
	m *inference.Models,
	c *cache.LayeredCache,
	pub repository.ForecastPublisher,
	rec repository.Metrics,
	l *logger.Logger,
) *usecase.ForecastUseCase {
	opts := []usecase.ForecastOption{
		usecase.WithPublisher(pub),
		usecase.WithMetrics(rec),
		usecase.WithLogger(l),
		usecase.WithTimeout(cfg.Forecast.Timeout),
	}
	if c != nil {
		opts = append(opts, usecase.WithCache(c))
	}
	return usecase.NewForecastUseCase(f, inference.InstrumentAnomalyDetector(m.Anomaly, rec), opts...)
}

// ProvideReadingStore opens and initializes the configured reading store, or nil for "none".
func ProvideReadingStore(cfg *config.Config, l *logger.Logger) (repository.ReadingStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	var store repository.ReadingStore
	switch cfg.Store.Type {
	case "", StoreNone:
		return nil, func() {}, nil
	case StoreMemory:
		store = internalrepo.NewMemoryReadingStore()
	case StoreClickHouse:
		ch := cfg.Store.ClickHouse
		client, err := pkgch.NewClient(
			pkgch.WithHost(ch.Host),
			pkgch.WithPort(ch.Port),
			pkgch.WithDatabase(ch.Database),
			pkgch.WithCredentials(ch.User, ch.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(ch.UseHTTP),
			pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		store = internalrepo.NewCHReadingStore(client, l)
	case StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.Store.Postgres.DSN, cfg.Store.Postgres.MaxConns)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres pool: %w", err)
		}
		store = internalrepo.NewPGReadingStore(pool, l)
	default:
		return nil, nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("%s schema: %w", cfg.Store.Type, err)
	}
	l.Info("reading store ready", logger.String("type", cfg.Store.Type))
	return store, func() {
		if err := store.Close(); err != nil {
			l.Warn("close reading store", logger.Error(err))
		}
	}, nil
}

// ProvideMeterUseCase returns nil when no store is configured.
func ProvideMeterUseCase(store repository.ReadingStore, uc *usecase.ForecastUseCase, l *logger.Logger) *usecase.MeterUseCase {
	if store == nil {
		return nil
	}
	return usecase.NewMeterUseCase(store, uc, l)
}

// ProvideKafkaConsumer creates the readings consumer. It is nil unless both
// Kafka and a reading store are configured.
func ProvideKafkaConsumer(
	cfg *config.Config,
	meters *usecase.MeterUseCase,
	rec repository.Metrics,
	l *logger.Logger,
) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled || meters == nil {
		return nil, nil
	}
	kc := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers),
		pkgkafka.WithConsumerBufferSize(kc.BufferSize),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
		pkgkafka.WithConsumerRegisterer(prometheus.DefaultRegisterer),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewReadingsHandler(cfg.Kafka.ReadingsTopic, meters, rec))
	consumer.SetHook(consumerTraceHook())
	return consumer, nil
}

// consumerTraceHook opens one span per consumed message.
func consumerTraceHook() pkgkafka.ConsumerHook {
	return pkgkafka.HookFuncs{
		Before: func(ctx context.Context, km kafka.Message) (context.Context, error) {
			ctx, _ = otel.StartSpan(ctx, "kafka.consume",
				otel.AttrMeterID.String(string(km.Key)),
				otel.AttrTopic.String(km.Topic),
				otel.AttrOffset.Int64(km.Offset))
			return ctx, nil
		},
		After: func(ctx context.Context, _ kafka.Message, err error) {
			span := trace.SpanFromContext(ctx)
			if err != nil {
				otel.RecordError(span, err)
			}
			span.End()
		},
	}
}

// ProvideHTTPHandler assembles the routes. Meter routes are only mounted with a store.
func ProvideHTTPHandler(
	l *logger.Logger,
	uc *usecase.ForecastUseCase,
	meters *usecase.MeterUseCase,
	m *inference.Models,
	redis *cache.RedisCache,
) xhttp.Handler {
	health := api.NewHealthHandler(2*time.Second).
		AddCheck("models", func(context.Context) error {
			if m.Regressor == nil || m.Anomaly == nil {
				return fmt.Errorf("models not loaded")
			}
			return nil
		})
	routes := api.Router{health, api.NewForecastHandler(l, uc)}
	if meters != nil {
		health.AddCheck("store", meters.Ping)
		routes = append(routes, api.NewMeterHandler(l, meters))
	}
	if redis != nil {
		health.AddCheck("redis", redis.Ping)
	}
	return routes
}

// ProvideHTTPServer configures the Echo server.
func ProvideHTTPServer(cfg *config.Config, h xhttp.Handler, l *logger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowRequestThreshold(cfg.Server.SlowRequestThreshold),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithCORS(cfg.Server.CORS),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	l *logger.Logger,
	srv *xhttp.Server,
	consumer *pkgkafka.Consumer,
	_ *sdktrace.TracerProvider,
) *server.App {
	return server.New(cfg, l, srv, consumer)
}
