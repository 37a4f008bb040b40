package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
	"ForecastAPI/internal/service/ratelimit"
	applogger "ForecastAPI/pkg/logger"
	"ForecastAPI/pkg/util"
)

// Provider failure reasons, used as metric labels and in the fallback note.
const (
	reasonMissingKey   = "missing_api_key"
	reasonRateLimited  = "rate_limited"
	reasonMalformed    = "malformed_payload"
	reasonUpstream     = "upstream_error"
	reasonInsufficient = "insufficient_data"
	reasonTimeout      = "timeout"
	reasonUnavailable  = "unavailable"
)

type SampleDataConfig struct {
	Symbol   string
	CacheTTL time.Duration
	// Timeout bounds a single provider call, Budget the whole chain.
	Timeout      time.Duration
	Budget       time.Duration
	RateCapacity float64
	RateRefill   float64
}

// SampleData returns the latest window of closes from the first provider that answers,
// or the static fallback series when none does.
type SampleData struct {
	providers []domrepo.MarketDataProvider
	cache     domrepo.SeriesCache
	limiter   *ratelimit.Limiter
	metrics   domrepo.Metrics
	l         *applogger.Logger
	cfg       SampleDataConfig
	now       func() time.Time
}

func NewSampleData(providers []domrepo.MarketDataProvider, cache domrepo.SeriesCache, limiter *ratelimit.Limiter, m domrepo.Metrics, l *applogger.Logger, cfg SampleDataConfig) *SampleData {
	if l == nil {
		l = applogger.NewNop()
	}
	if limiter == nil {
		limiter = ratelimit.New()
	}
	return &SampleData{
		providers: providers,
		cache:     cache,
		limiter:   limiter,
		metrics:   m,
		l:         l,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *SampleData) cacheKey() string {
	return "sample-data:" + s.cfg.Symbol
}

// Get serves a cached live window when one is fresh, otherwise queries the providers.
func (s *SampleData) Get(ctx context.Context) models.Series {
	if s.cache != nil {
		if series, ok := s.cache.Get(ctx, s.cacheKey()); ok {
			s.metrics.RecordSample(series.Source)
			return series
		}
	}
	series := s.fetch(ctx)
	s.metrics.RecordSample(series.Source)
	return series
}

// Refresh queries the providers regardless of the cache and stores a live result.
func (s *SampleData) Refresh(ctx context.Context) models.Series {
	return s.fetch(ctx)
}

func (s *SampleData) fetch(ctx context.Context) models.Series {
	if len(s.providers) == 0 {
		return models.Fallback("no market data providers configured")
	}

	chainCtx := ctx
	if s.cfg.Budget > 0 {
		var cancel context.CancelFunc
		chainCtx, cancel = context.WithTimeout(ctx, s.cfg.Budget)
		defer cancel()
	}

	reasons := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		var closes []float64
		err := chainCtx.Err()
		if err == nil {
			closes, err = s.attempt(chainCtx, p)
		} else {
			err = fmt.Errorf("chain budget spent before attempt: %w", err)
		}
		if err != nil {
			reason := failureReason(err)
			s.metrics.RecordProviderFailure(p.Name(), reason)
			s.l.Warn("market data provider failed",
				applogger.String("provider", p.Name()),
				applogger.String("reason", reason),
				applogger.Error(err),
			)
			reasons = append(reasons, p.Name()+": "+reason)
			continue
		}

		series := models.Live(closes, p.Source(), s.now().UTC())
		if s.cache != nil {
			if err := s.cache.Set(ctx, s.cacheKey(), series, s.cfg.CacheTTL); err != nil {
				s.l.Warn("cache sample data failed", applogger.Error(err))
			}
		}
		return series
	}

	return models.Fallback(strings.Join(reasons, "; "))
}

// attempt makes exactly one call to p, bounded by the configured timeout.
func (s *SampleData) attempt(ctx context.Context, p domrepo.MarketDataProvider) ([]float64, error) {
	if !s.limiter.Allow(p.Name(), s.cfg.RateCapacity, s.cfg.RateRefill) {
		return nil, fmt.Errorf("%w: local limiter", domrepo.ErrRateLimited)
	}

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	closes, err := p.FetchDailyCloses(ctx, models.WindowSize)
	if err != nil {
		return nil, err
	}
	if len(closes) != models.WindowSize {
		return nil, fmt.Errorf("%w: got %d, want %d", domrepo.ErrInsufficientData, len(closes), models.WindowSize)
	}

	closes = util.Round2All(closes)
	if err := models.Window(closes).Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domrepo.ErrMalformedPayload, err)
	}
	return closes, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domrepo.ErrMissingAPIKey):
		return reasonMissingKey
	case errors.Is(err, domrepo.ErrRateLimited):
		return reasonRateLimited
	case errors.Is(err, domrepo.ErrMalformedPayload):
		return reasonMalformed
	case errors.Is(err, domrepo.ErrUpstream):
		return reasonUpstream
	case errors.Is(err, domrepo.ErrInsufficientData):
		return reasonInsufficient
	case errors.Is(err, context.DeadlineExceeded):
		return reasonTimeout
	default:
		return reasonUnavailable
	}
}
