package cache

import (
	"context"
	"testing"
	"time"

	"ForecastAPI/internal/domain/models"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	c := NewTTLCache()
	c.now = func() time.Time { return now }

	if err := c.SetBytes(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if b, ok, _ := c.GetBytes(ctx, "k"); !ok || string(b) != "v" {
		t.Fatalf("got %q %v", b, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "k"); ok {
		t.Fatal("entry should have expired")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry not evicted, len = %d", c.Len())
	}
}

func TestTTLCacheCopiesValue(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache()
	v := []byte("abc")
	_ = c.SetBytes(ctx, "k", v, 0)
	v[0] = 'x'
	if b, _, _ := c.GetBytes(ctx, "k"); string(b) != "abc" {
		t.Errorf("stored value aliased caller slice: %q", b)
	}
}

func TestSeriesCache(t *testing.T) {
	ctx := context.Background()
	sc := NewSeriesCache(NewTTLCache())

	at := time.Date(2025, 3, 31, 18, 0, 0, 0, time.UTC)
	live := models.Live([]float64{31.5, 31.7}, models.SourceYahoo, at)
	if err := sc.Set(ctx, "sample-data:PETR4.SA", live, time.Hour); err != nil {
		t.Fatal(err)
	}

	got, ok := sc.Get(ctx, "sample-data:PETR4.SA")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.IsFallback() || got.Source != models.SourceYahoo || len(got.Closes) != 2 || !got.FetchedAt.Equal(at) {
		t.Errorf("unexpected series %+v", got)
	}

	if err := sc.Set(ctx, "fb", models.Fallback("down"), time.Hour); err == nil {
		t.Error("fallback series must not be cached")
	}
	if _, ok := sc.Get(ctx, "fb"); ok {
		t.Error("unexpected hit for fallback key")
	}
}

func TestSeriesCacheIgnoresGarbage(t *testing.T) {
	ctx := context.Background()
	bc := NewTTLCache()
	_ = bc.SetBytes(ctx, "k", []byte("{not json"), 0)
	if _, ok := NewSeriesCache(bc).Get(ctx, "k"); ok {
		t.Error("garbage entry should be a miss")
	}
}
