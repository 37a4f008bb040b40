package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
	"ForecastAPI/internal/usecase"
	xhttp "ForecastAPI/pkg/http"
	"ForecastAPI/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

type stubPredictor struct {
	health models.HealthStatus
	price  float64
	err    error
	calls  int
}

func (s *stubPredictor) Predict(context.Context, models.Window) (models.Prediction, error) {
	s.calls++
	if s.err != nil {
		return models.Prediction{}, s.err
	}
	return models.Prediction{Ticker: "PETR4.SA", PriceBRL: s.price, Status: models.StatusSuccess}, nil
}

func (s *stubPredictor) Health() models.HealthStatus { return s.health }

type stubSamples struct{ series models.Series }

func (s stubSamples) Get(context.Context) models.Series { return s.series }

func serve(h *ForecastEchoHandler, method, path, body string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func windowBody(n int) string {
	vals := make([]string, n)
	for i := range vals {
		vals[i] = fmt.Sprintf("%.2f", 30+float64(i)*0.1)
	}
	return `{"last_60_days":[` + strings.Join(vals, ",") + `]}`
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name   string
		health models.HealthStatus
		want   string
	}{
		{name: "loaded", health: models.HealthStatus{ModelLoaded: true}, want: `{"status":"healthy","model_loaded":true}`},
		{name: "degraded", health: models.HealthStatus{Detail: "missing model"}, want: `{"status":"error","detail":"missing model"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewForecastEchoHandler(nil, &stubPredictor{health: tt.health}, stubSamples{})
			rec := serve(h, http.MethodGet, "/health", "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPredict(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantDetail string
	}{
		{name: "ok", body: windowBody(60), wantStatus: http.StatusOK},
		{name: "short window", body: windowBody(59), wantStatus: http.StatusUnprocessableEntity},
		{name: "missing field", body: `{}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "bad json", body: `{"last_60_days":`, wantStatus: http.StatusUnprocessableEntity},
		{
			name:       "model unavailable",
			body:       windowBody(60),
			err:        usecase.ErrModelUnavailable,
			wantStatus: http.StatusServiceUnavailable,
			wantDetail: msgModelUnavailable,
		},
		{
			name:       "inference failure",
			body:       windowBody(60),
			err:        fmt.Errorf("%w: NaN output", usecase.ErrInference),
			wantStatus: http.StatusInternalServerError,
			wantDetail: msgInferenceFailed,
		},
		{
			name:       "unexpected error",
			body:       windowBody(60),
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: msgInferenceFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubPredictor{price: 31.07, err: tt.err}
			rec := serve(NewForecastEchoHandler(nil, p, stubSamples{}), http.MethodPost, "/predict", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
			switch {
			case rec.Code == http.StatusOK:
				var res models.PredictResponse
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatal(err)
				}
				if res.Ticker != "PETR4.SA" || res.PredictedPriceBRL != 31.07 || res.Status != "success" {
					t.Errorf("unexpected response %+v", res)
				}
			case rec.Code == http.StatusUnprocessableEntity:
				if p.calls != 0 {
					t.Error("invalid input reached the predictor")
				}
				var res struct {
					Detail []map[string]interface{} `json:"detail"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || len(res.Detail) == 0 {
					t.Errorf("expected a detail list, got %s", rec.Body.String())
				}
			default:
				var res struct {
					Detail string `json:"detail"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
					t.Fatal(err)
				}
				if res.Detail != tt.wantDetail {
					t.Errorf("detail = %q, want %q", res.Detail, tt.wantDetail)
				}
			}
		})
	}
}

func TestPredictWindowErrorIsUnprocessable(t *testing.T) {
	p := &stubPredictor{err: fmt.Errorf("%w: index 3 is -1", models.ErrWindowValue)}
	rec := serve(NewForecastEchoHandler(nil, p, stubSamples{}), http.MethodPost, "/predict", windowBody(60))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestSampleData(t *testing.T) {
	t.Run("live", func(t *testing.T) {
		s := models.Live([]float64{30.1, 30.2}, models.SourceYahoo, time.Now())
		rec := serve(NewForecastEchoHandler(nil, &stubPredictor{}, stubSamples{s}), http.MethodGet, "/sample-data", "")

		want := `{"last_60_days":[30.1,30.2],"source":"yahoo"}`
		if got := strings.TrimSpace(rec.Body.String()); got != want {
			t.Errorf("body = %s, want %s", got, want)
		}
	})

	t.Run("fallback", func(t *testing.T) {
		s := models.Fallback("alphavantage: missing_api_key")
		rec := serve(NewForecastEchoHandler(nil, &stubPredictor{}, stubSamples{s}), http.MethodGet, "/sample-data", "")

		var res models.SampleDataResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
			t.Fatal(err)
		}
		if res.Source != models.SourceFallback || res.Last60Days[0] != 31.52 {
			t.Errorf("unexpected fallback body %+v", res)
		}
		if !reflect.DeepEqual(res.Last60Days, models.FallbackCloses()) {
			t.Errorf("fallback not served verbatim: %v", res.Last60Days)
		}
		if !strings.HasPrefix(res.Note, models.FallbackNote) || !strings.Contains(res.Note, "missing_api_key") {
			t.Errorf("note = %q", res.Note)
		}
	})
}

// hangingProvider blocks until its context ends, like a firewalled upstream.
type hangingProvider struct{ name string }

func (p hangingProvider) Name() string   { return p.name }
func (p hangingProvider) Source() string { return p.name }

func (p hangingProvider) FetchDailyCloses(ctx context.Context, _ int) ([]float64, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestSampleDataFallbackBeatsWriteTimeout(t *testing.T) {
	const writeTimeout = 400 * time.Millisecond

	providers := []domrepo.MarketDataProvider{hangingProvider{"alphavantage"}, hangingProvider{"yahoo"}}
	sd := usecase.NewSampleData(providers, nil, nil, metrics.New(prometheus.NewRegistry()), nil, usecase.SampleDataConfig{
		Symbol:  "PETR4.SA",
		Timeout: 300 * time.Millisecond,
		Budget:  150 * time.Millisecond,
	})
	srv := xhttp.NewServer(NewForecastEchoHandler(nil, &stubPredictor{}, sd),
		xhttp.WithTimeouts(time.Second, writeTimeout, time.Second))

	ts := httptest.NewUnstartedServer(srv.Echo())
	ts.Config.WriteTimeout = writeTimeout
	ts.Start()
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/sample-data")
	if err != nil {
		t.Fatalf("transport error instead of fallback: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var res models.SampleDataResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	if res.Source != models.SourceFallback || !reflect.DeepEqual(res.Last60Days, models.FallbackCloses()) {
		t.Errorf("unexpected body %+v", res)
	}
}
