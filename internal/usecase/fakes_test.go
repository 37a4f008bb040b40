package usecase

import (
	"context"
	"errors"
	"sync"

	"ForecastAPI/internal/domain/models"
)

type fakeMetrics struct {
	mu          sync.Mutex
	predictions map[string]int
	samples     map[string]int
	failures    map[string]int
	errors      map[string]int
	loaded      bool
	lastPrice   float64
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{
		predictions: map[string]int{},
		samples:     map[string]int{},
		failures:    map[string]int{},
		errors:      map[string]int{},
	}
}

func (m *fakeMetrics) RecordPrediction(status string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions[status]++
}

func (m *fakeMetrics) RecordInferenceLatency(float64) {}

func (m *fakeMetrics) RecordSample(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[source]++
}

func (m *fakeMetrics) RecordProviderFailure(provider, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[provider+"/"+reason]++
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors[kind]++
}

func (m *fakeMetrics) SetModelLoaded(loaded bool) { m.loaded = loaded }

func (m *fakeMetrics) RecordLastPrice(_ string, price float64) { m.lastPrice = price }

// tenthScaler divides by ten on the way in and multiplies on the way out.
type tenthScaler struct{}

func (tenthScaler) Features() int { return 1 }

func (tenthScaler) Transform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = []float64{r[0] / 10}
	}
	return out, nil
}

func (tenthScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, r := range rows {
		out[i] = []float64{r[0] * 10}
	}
	return out, nil
}

// lastStepModel echoes the last scaled value, or a fixed output when set.
type lastStepModel struct {
	out *float64
	err error
}

func (lastStepModel) Name() string { return "last-step" }

func (m lastStepModel) Predict(_ context.Context, window [][]float64) ([]float64, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return []float64{*m.out}, nil
	}
	return []float64{window[len(window)-1][0]}, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*models.PredictionEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, ev *models.PredictionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

type fakeProvider struct {
	name   string
	source string
	closes []float64
	err    error
	block  bool

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) Name() string   { return p.name }
func (p *fakeProvider) Source() string { return p.source }

func (p *fakeProvider) FetchDailyCloses(ctx context.Context, n int) ([]float64, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	if p.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if p.err != nil {
		return nil, p.err
	}
	out := make([]float64, len(p.closes))
	copy(out, p.closes)
	return out, nil
}

func (p *fakeProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var errBoom = errors.New("boom")

func ramp(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*0.25
	}
	return out
}
