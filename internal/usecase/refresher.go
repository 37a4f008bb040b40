package usecase

import (
	"context"
	"fmt"
	"time"

	applogger "ForecastAPI/pkg/logger"

	"github.com/robfig/cron/v3"
)

// Refresher keeps the cached sample-data window warm on a cron schedule.
type Refresher struct {
	cron    *cron.Cron
	sd      *SampleData
	l       *applogger.Logger
	timeout time.Duration
}

// NewRefresher validates spec (seconds field first, descriptors allowed) and registers the job.
func NewRefresher(sd *SampleData, spec string, timeout time.Duration, l *applogger.Logger) (*Refresher, error) {
	if l == nil {
		l = applogger.NewNop()
	}
	r := &Refresher{cron: cron.New(cron.WithSeconds()), sd: sd, l: l, timeout: timeout}
	if _, err := r.cron.AddFunc(spec, r.RunNow); err != nil {
		return nil, fmt.Errorf("register refresh task %q: %w", spec, err)
	}
	return r, nil
}

func (r *Refresher) Start() {
	r.cron.Start()
	r.l.Info("sample data refresher started")
}

// Stop waits for a running refresh to finish or ctx to expire.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
	r.l.Info("sample data refresher stopped")
}

// RunNow refreshes the cached window once.
func (r *Refresher) RunNow() {
	ctx := context.Background()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	series := r.sd.Refresh(ctx)
	if series.IsFallback() {
		r.l.Warn("sample data refresh fell back", applogger.String("reason", series.Reason))
		return
	}
	r.l.Info("sample data refreshed",
		applogger.String("source", series.Source),
		applogger.Float64("last_close", series.Closes[len(series.Closes)-1]),
	)
}
