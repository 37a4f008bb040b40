package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
)

type seriesRecord struct {
	Closes    []float64 `json:"closes"`
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
}

// SeriesCache stores live series as JSON on top of any BytesCache. Fallback series are refused.
type SeriesCache struct {
	bc BytesCache
}

func NewSeriesCache(bc BytesCache) *SeriesCache {
	return &SeriesCache{bc: bc}
}

// Get treats backend and decode errors as a miss.
func (s *SeriesCache) Get(ctx context.Context, key string) (models.Series, bool) {
	b, ok, err := s.bc.GetBytes(ctx, key)
	if err != nil || !ok {
		return models.Series{}, false
	}
	var rec seriesRecord
	if err := json.Unmarshal(b, &rec); err != nil || len(rec.Closes) == 0 {
		return models.Series{}, false
	}
	return models.Live(rec.Closes, rec.Source, rec.FetchedAt), true
}

func (s *SeriesCache) Set(ctx context.Context, key string, series models.Series, ttl time.Duration) error {
	if series.IsFallback() {
		return fmt.Errorf("refusing to cache fallback series")
	}
	b, err := json.Marshal(seriesRecord{Closes: series.Closes, Source: series.Source, FetchedAt: series.FetchedAt})
	if err != nil {
		return fmt.Errorf("encode series: %w", err)
	}
	return s.bc.SetBytes(ctx, key, b, ttl)
}

var _ domrepo.SeriesCache = (*SeriesCache)(nil)
