package usecase

import (
	"context"
	"testing"
	"time"

	"ForecastAPI/internal/domain/models"
)

func TestNewRefresherRejectsBadSpec(t *testing.T) {
	sd := newSampleData(newFakeMetrics(), SampleDataConfig{})
	if _, err := NewRefresher(sd, "every tuesday", time.Second, nil); err == nil {
		t.Fatal("expected error for invalid cron spec")
	}
}

func TestRefresherRunNowWarmsCache(t *testing.T) {
	p := &fakeProvider{name: "yahoo", source: models.SourceYahoo, closes: ramp(models.WindowSize, 30)}
	sd := newSampleData(newFakeMetrics(), SampleDataConfig{}, p)

	r, err := NewRefresher(sd, "0 */30 * * * *", time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.RunNow()

	s := sd.Get(context.Background())
	if s.IsFallback() || s.Source != models.SourceYahoo {
		t.Fatalf("got %+v, want cached yahoo series", s)
	}
	if p.Calls() != 1 {
		t.Errorf("provider called %d times, want 1", p.Calls())
	}
}

func TestRefresherStartStop(t *testing.T) {
	sd := newSampleData(newFakeMetrics(), SampleDataConfig{})
	r, err := NewRefresher(sd, "@every 1h", time.Second, nil)
	if err != nil {
		t.Fatal(err)
	}
	r.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
