package models

import "time"

// Source tags reported alongside sample data.
const (
	SourceAlphaVantage = "alpha_vantage"
	SourceYahoo        = "yahoo"
	SourceClickHouse   = "clickhouse_history"
	SourceFallback     = "fallback_cached_data"
)

// FallbackNote is attached to fallback responses.
const FallbackNote = "live market data unavailable, serving cached historical closes"

// SeriesKind distinguishes live provider data from the static fallback.
type SeriesKind int

const (
	SeriesLive SeriesKind = iota
	SeriesFallback
)

// Series is the result of a sample-data lookup: Live(closes, source) or Fallback(closes, reason).
type Series struct {
	Kind      SeriesKind
	Closes    []float64
	Source    string
	Reason    string
	FetchedAt time.Time
}

// Live builds a live series.
func Live(closes []float64, source string, at time.Time) Series {
	return Series{Kind: SeriesLive, Closes: closes, Source: source, FetchedAt: at}
}

// Fallback builds a fallback series from the static closes.
func Fallback(reason string) Series {
	return Series{Kind: SeriesFallback, Closes: FallbackCloses(), Source: SourceFallback, Reason: reason}
}

func (s Series) IsFallback() bool { return s.Kind == SeriesFallback }

var fallbackCloses = [WindowSize]float64{
	31.52, 31.39, 31.09, 31.29, 30.91, 31.00, 30.92, 30.53, 30.59, 30.18,
	30.16, 29.78, 29.42, 29.39, 29.77, 29.44, 29.21, 29.39, 29.89, 30.02,
	29.97, 30.50, 30.10, 30.51, 30.35, 30.04, 29.71, 29.57, 29.94, 29.67,
	29.80, 29.99, 29.91, 30.01, 29.62, 29.23, 28.99, 29.22, 29.20, 29.06,
	29.20, 29.20, 29.05, 29.39, 29.64, 29.43, 29.55, 29.63, 30.06, 30.34,
	30.18, 30.71, 30.38, 30.35, 30.66, 30.36, 30.40, 29.99, 30.21, 30.52,
}

// FallbackCloses returns a copy of the static fallback series.
func FallbackCloses() []float64 {
	out := make([]float64, WindowSize)
	copy(out, fallbackCloses[:])
	return out
}
