package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func findMetric(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func TestObserveHTTPRequest(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveHTTPRequest("/predict", http.MethodPost, http.StatusOK, 20*time.Millisecond)
	r.ObserveHTTPRequest("/predict", http.MethodPost, http.StatusServiceUnavailable, 5*time.Millisecond)

	mf := findMetric(t, reg, "http_requests_total")
	if mf == nil {
		t.Fatal("http_requests_total not registered")
	}
	got := map[string]float64{}
	for _, m := range mf.GetMetric() {
		if labelValue(m, "handler") != "/predict" {
			t.Errorf("handler label = %q", labelValue(m, "handler"))
		}
		got[labelValue(m, "status")] = m.GetCounter().GetValue()
	}
	if got["2xx"] != 1 || got["5xx"] != 1 {
		t.Errorf("unexpected status counts: %v", got)
	}

	highr := findMetric(t, reg, "http_request_duration_highr_seconds")
	if highr == nil {
		t.Fatal("http_request_duration_highr_seconds not registered")
	}
	h := highr.GetMetric()[0].GetHistogram()
	if h.GetSampleCount() != 2 {
		t.Errorf("sample count = %d, want 2", h.GetSampleCount())
	}
	if s := h.GetSampleSum(); s < 0.024 || s > 0.026 {
		t.Errorf("sample sum = %v, want 0.025", s)
	}
}

func TestDomainMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.SetModelLoaded(true)
	r.RecordPrediction("success")
	r.RecordLastPrice("PETR4.SA", 37.12)
	r.RecordProviderFailure("alphavantage", "rate_limited")

	if mf := findMetric(t, reg, "forecast_model_loaded"); mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 1 {
		t.Error("model_loaded gauge not set")
	}
	if mf := findMetric(t, reg, "forecast_last_predicted_price"); mf == nil || mf.GetMetric()[0].GetGauge().GetValue() != 37.12 {
		t.Error("last price gauge not set")
	}
	mf := findMetric(t, reg, "forecast_provider_failures_total")
	if mf == nil {
		t.Fatal("provider failures not registered")
	}
	if got := labelValue(mf.GetMetric()[0], "reason"); got != "rate_limited" {
		t.Errorf("reason = %q", got)
	}
}

func TestHandlerExposesProcessMetrics(t *testing.T) {
	reg := NewRegistry()
	New(reg).ObserveHTTPRequest("/health", http.MethodGet, 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{"http_requests_total", "go_goroutines"} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %s", want)
		}
	}
}

func TestStatusClass(t *testing.T) {
	cases := map[int]string{200: "2xx", 422: "4xx", 503: "5xx", 0: "5xx"}
	for code, want := range cases {
		if got := statusClass(code); got != want {
			t.Errorf("statusClass(%d) = %s, want %s", code, got, want)
		}
	}
}
