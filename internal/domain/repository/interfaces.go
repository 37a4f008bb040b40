package repository

import (
	"context"
	"time"

	"ForecastAPI/internal/domain/models"
)

// MarketDataProvider returns the most recent daily closes for its configured symbol, oldest first.
type MarketDataProvider interface {
	Name() string
	Source() string
	FetchDailyCloses(ctx context.Context, n int) ([]float64, error)
}

// SeriesCache stores live sample-data windows.
type SeriesCache interface {
	Get(ctx context.Context, key string) (models.Series, bool)
	Set(ctx context.Context, key string, s models.Series, ttl time.Duration) error
}

type PredictionPublisher interface {
	Publish(ctx context.Context, ev *models.PredictionEvent) error
	Close() error
}

type Metrics interface {
	RecordPrediction(status string)
	RecordInferenceLatency(seconds float64)
	RecordSample(source string)
	RecordProviderFailure(provider, reason string)
	RecordError(kind string)
	SetModelLoaded(loaded bool)
	RecordLastPrice(ticker string, price float64)
}
