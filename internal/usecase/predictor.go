package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
	"ForecastAPI/internal/services/inference"
	applogger "ForecastAPI/pkg/logger"
	"ForecastAPI/pkg/util"

	"github.com/google/uuid"
)

var (
	// ErrModelUnavailable means the artifacts failed to load at startup.
	ErrModelUnavailable = errors.New("model is not available")
	// ErrInference covers any failure between scaling the input and producing a finite price.
	ErrInference = errors.New("inference failed")
)

// Prediction outcomes recorded in metrics.
const (
	outcomeSuccess     = "success"
	outcomeUnavailable = "unavailable"
	outcomeInvalid     = "invalid"
	outcomeError       = "error"
)

// Predictor turns a window of closes into a next-day price.
type Predictor struct {
	artifacts *inference.Artifacts
	ticker    string
	publisher domrepo.PredictionPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewPredictor(a *inference.Artifacts, ticker string, pub domrepo.PredictionPublisher, m domrepo.Metrics, l *applogger.Logger) *Predictor {
	if l == nil {
		l = applogger.NewNop()
	}
	m.SetModelLoaded(a.Ready())
	return &Predictor{artifacts: a, ticker: ticker, publisher: pub, metrics: m, l: l, now: time.Now}
}

// Ticker returns the symbol predictions are reported for.
func (p *Predictor) Ticker() string { return p.ticker }

// Health reports whether the artifacts are loaded.
func (p *Predictor) Health() models.HealthStatus {
	if p.artifacts.Ready() {
		return models.HealthStatus{ModelLoaded: true}
	}
	return models.HealthStatus{ModelLoaded: false, Detail: p.artifacts.Detail()}
}

// Predict scales the window, runs the model and maps the output back to a price rounded to cents.
func (p *Predictor) Predict(ctx context.Context, w models.Window) (models.Prediction, error) {
	if !p.artifacts.Ready() {
		p.metrics.RecordPrediction(outcomeUnavailable)
		return models.Prediction{}, ErrModelUnavailable
	}
	if err := w.Validate(); err != nil {
		p.metrics.RecordPrediction(outcomeInvalid)
		return models.Prediction{}, err
	}

	start := p.now()
	price, err := p.infer(ctx, w)
	elapsed := p.now().Sub(start)
	if err != nil {
		p.metrics.RecordPrediction(outcomeError)
		p.l.Error("inference failed",
			applogger.String("model", p.artifacts.Model.Name()),
			applogger.Error(err),
		)
		return models.Prediction{}, fmt.Errorf("%w: %v", ErrInference, err)
	}

	p.metrics.RecordInferenceLatency(elapsed.Seconds())
	p.metrics.RecordPrediction(outcomeSuccess)
	p.metrics.RecordLastPrice(p.ticker, price)

	p.publish(ctx, &models.PredictionEvent{
		ID:        uuid.NewString(),
		Ticker:    p.ticker,
		Price:     price,
		LastClose: w.Last(),
		LatencyMS: float64(elapsed) / float64(time.Millisecond),
		Backend:   p.artifacts.Backend,
		CreatedAt: start.UTC(),
	})

	return models.Prediction{Ticker: p.ticker, PriceBRL: price, Status: models.StatusSuccess}, nil
}

func (p *Predictor) infer(ctx context.Context, w models.Window) (float64, error) {
	rows := make([][]float64, len(w))
	for i, v := range w {
		rows[i] = []float64{v}
	}

	scaled, err := p.artifacts.InputScaler.Transform(rows)
	if err != nil {
		return 0, fmt.Errorf("input scaler: %w", err)
	}
	y, err := p.artifacts.Model.Predict(ctx, scaled)
	if err != nil {
		return 0, fmt.Errorf("model: %w", err)
	}
	out, err := p.artifacts.OutputScaler.InverseTransform([][]float64{y})
	if err != nil {
		return 0, fmt.Errorf("output scaler: %w", err)
	}

	price := out[0][0]
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return 0, fmt.Errorf("non-finite price %v", price)
	}
	return util.Round2(price), nil
}

// publish never fails the request.
func (p *Predictor) publish(ctx context.Context, ev *models.PredictionEvent) {
	if p.publisher == nil {
		return
	}
	if err := p.publisher.Publish(ctx, ev); err != nil {
		p.metrics.RecordError("publish_prediction")
		p.l.Warn("publish prediction event failed",
			applogger.String("id", ev.ID),
			applogger.Error(err),
		)
	}
}
