package di

import (
	"context"
	"fmt"
	"time"

	"ForecastAPI/internal/domain/repository"
	"ForecastAPI/internal/handler/api"
	internalrepo "ForecastAPI/internal/repository"
	"ForecastAPI/internal/service/alphavantage"
	icache "ForecastAPI/internal/service/cache"
	"ForecastAPI/internal/service/ratelimit"
	"ForecastAPI/internal/service/yahoo"
	"ForecastAPI/internal/services/inference"
	"ForecastAPI/internal/usecase"
	pkgch "ForecastAPI/pkg/clickhouse"
	"ForecastAPI/pkg/config"
	xhttp "ForecastAPI/pkg/http"
	pkgkafka "ForecastAPI/pkg/kafka"
	applogger "ForecastAPI/pkg/logger"
	"ForecastAPI/pkg/metrics"
	"ForecastAPI/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

const startupTimeout = 10 * time.Second

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	return metrics.NewRegistry()
}

// ProvideRecorder creates the Prometheus metrics recorder.
func ProvideRecorder(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideArtifacts loads the model and scalers. Failures leave the service degraded.
func ProvideArtifacts(cfg *config.Config, l *applogger.Logger) *inference.Artifacts {
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	return inference.LoadArtifacts(ctx, inference.ArtifactConfig{
		Backend:          cfg.Model.Backend,
		ModelPath:        cfg.Model.Path,
		InputScalerPath:  cfg.Model.InputScalerPath,
		OutputScalerPath: cfg.Model.OutputScalerPath,
		Remote: inference.RemoteConfig{
			URL:       cfg.Model.Remote.URL,
			ModelName: cfg.Model.Remote.ModelName,
			Timeout:   cfg.Model.Remote.Timeout,
		},
	}, l)
}

// ProvideClickHouseClient connects only when the clickhouse provider is configured.
// A connection failure drops the provider from the chain instead of aborting startup.
func ProvideClickHouseClient(cfg *config.Config, l *applogger.Logger) (*pkgch.Client, func()) {
	if !cfg.HasProvider(config.ProviderClickHouse) {
		return nil, func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(4, 2),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		l.Warn("clickhouse unavailable, history provider disabled", applogger.Error(err))
		return nil, func() {}
	}

	if err := client.InitSchema(ctx, internalrepo.HistorySchema(cfg.ClickHouse.Table)); err != nil {
		l.Warn("clickhouse schema init failed", applogger.Error(err))
	}

	return client, func() {
		if err := client.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
}

// ProvideMarketDataProviders builds the provider chain in configured order.
func ProvideMarketDataProviders(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) ([]repository.MarketDataProvider, error) {
	providers := make([]repository.MarketDataProvider, 0, len(cfg.MarketData.Providers))
	for _, name := range cfg.MarketData.Providers {
		switch name {
		case config.ProviderAlphaVantage:
			providers = append(providers, alphavantage.New(alphavantage.Config{
				APIKey:     cfg.AlphaVantage.APIKey,
				BaseURL:    cfg.AlphaVantage.BaseURL,
				Symbol:     cfg.AlphaVantage.Symbol,
				OutputSize: cfg.AlphaVantage.OutputSize,
				Timeout:    cfg.MarketData.Timeout,
			}))
		case config.ProviderYahoo:
			providers = append(providers, yahoo.New(yahoo.Config{
				BaseURL: cfg.Yahoo.BaseURL,
				Symbol:  cfg.Yahoo.Symbol,
				Range:   cfg.Yahoo.Range,
				Proxy:   cfg.Yahoo.Proxy,
				Timeout: cfg.MarketData.Timeout,
			}))
		case config.ProviderClickHouse:
			if ch == nil {
				continue
			}
			h, err := internalrepo.NewCHHistory(ch, cfg.ClickHouse.Table, cfg.ClickHouse.Symbol, l)
			if err != nil {
				return nil, fmt.Errorf("clickhouse history: %w", err)
			}
			providers = append(providers, h)
		default:
			return nil, fmt.Errorf("unknown market data provider %q", name)
		}
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	l.Info("market data providers", applogger.Strings("chain", names))
	return providers, nil
}

// ProvideSeriesCache returns a Redis-backed cache when enabled and reachable, in-memory otherwise.
func ProvideSeriesCache(cfg *config.Config, l *applogger.Logger) (repository.SeriesCache, func()) {
	if !cfg.Redis.Enabled {
		return icache.NewSeriesCache(icache.NewTTLCache()), func() {}
	}

	rc := icache.NewRedisCache(icache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		l.Warn("redis unavailable, using in-memory cache",
			applogger.String("addr", cfg.Redis.Addr),
			applogger.Error(err),
		)
		_ = rc.Close()
		return icache.NewSeriesCache(icache.NewTTLCache()), func() {}
	}

	return icache.NewSeriesCache(rc), func() {
		if err := rc.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
}

// ProvidePredictionPublisher publishes to Kafka when enabled.
func ProvidePredictionPublisher(cfg *config.Config, reg *prometheus.Registry, l *applogger.Logger) (repository.PredictionPublisher, func(), error) {
	if !cfg.Kafka.Enabled {
		return internalrepo.NoopPublisher{}, func() {}, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithBatchTimeout(cfg.Kafka.BatchTimeout),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Async),
		pkgkafka.WithRegisterer(reg),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}

	pub := internalrepo.NewKafkaPredictionPublisher(producer, cfg.Kafka.Topic)
	l.Info("prediction events enabled",
		applogger.Strings("brokers", cfg.Kafka.Brokers),
		applogger.String("topic", cfg.Kafka.Topic),
	)
	return pub, func() {
		if err := pub.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}, nil
}

// ProvidePredictor creates the prediction use case.
func ProvidePredictor(
	cfg *config.Config,
	a *inference.Artifacts,
	pub repository.PredictionPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.Predictor {
	return usecase.NewPredictor(a, cfg.Forecast.Ticker, pub, m, l)
}

// ProvideSampleData creates the sample data use case.
func ProvideSampleData(
	cfg *config.Config,
	providers []repository.MarketDataProvider,
	cache repository.SeriesCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.SampleData {
	return usecase.NewSampleData(providers, cache, ratelimit.New(), m, l, usecase.SampleDataConfig{
		Symbol:       cfg.Forecast.Ticker,
		CacheTTL:     cfg.MarketData.CacheTTL,
		Timeout:      cfg.MarketData.Timeout,
		Budget:       cfg.MarketData.Budget,
		RateCapacity: cfg.MarketData.RateLimit.Capacity,
		RateRefill:   cfg.MarketData.RateLimit.RefillPerSec,
	})
}

// ProvideRefresher returns nil when no refresh schedule is configured.
func ProvideRefresher(cfg *config.Config, sd *usecase.SampleData, l *applogger.Logger) (*usecase.Refresher, error) {
	if cfg.MarketData.RefreshCron == "" {
		return nil, nil
	}
	return usecase.NewRefresher(sd, cfg.MarketData.RefreshCron, cfg.MarketData.Budget, l)
}

// ProvideForecastHandler creates the HTTP handler.
func ProvideForecastHandler(l *applogger.Logger, p *usecase.Predictor, sd *usecase.SampleData) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(l, p, sd)
}

// ProvideHTTPServer creates the Echo server with metrics mounted when enabled.
func ProvideHTTPServer(
	cfg *config.Config,
	h *api.ForecastEchoHandler,
	reg *prometheus.Registry,
	rec *metrics.Recorder,
	l *applogger.Logger,
) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithLogger(l),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, metrics.Handler(reg), rec, cfg.Metrics.SlowThreshold))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideApp creates the application.
func ProvideApp(cfg *config.Config, srv *xhttp.Server, r *usecase.Refresher, l *applogger.Logger) *server.App {
	return server.New(cfg, srv, r, l)
}
