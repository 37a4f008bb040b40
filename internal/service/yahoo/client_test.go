package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domrepo "ForecastAPI/internal/domain/repository"
)

func chartPayload(closes []interface{}) []byte {
	start := time.Date(2025, 1, 2, 13, 0, 0, 0, time.UTC)
	ts := make([]int64, len(closes))
	for i := range closes {
		ts[i] = start.AddDate(0, 0, i).Unix()
	}
	b, _ := json.Marshal(map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []interface{}{map[string]interface{}{
				"timestamp": ts,
				"indicators": map[string]interface{}{
					"quote": []interface{}{map[string]interface{}{"close": closes}},
				},
			}},
			"error": nil,
		},
	})
	return b
}

func TestFetchDailyClosesSkipsNullBars(t *testing.T) {
	closes := make([]interface{}, 0, 64)
	for i := 0; i < 62; i++ {
		closes = append(closes, 30+float64(i)*0.5)
	}
	closes[10] = nil
	closes = append(closes, nil)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v8/finance/chart/PETR4.SA" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("interval") != "1d" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing user agent")
		}
		_, _ = w.Write(chartPayload(closes))
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Symbol: "PETR4.SA"})
	got, err := c.FetchDailyCloses(context.Background(), 60)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 60 {
		t.Fatalf("len = %d", len(got))
	}
	if got[59] != 30+61*0.5 {
		t.Errorf("last = %v", got[59])
	}
	if got[0] != 30.5 {
		t.Errorf("first = %v, want 30.5", got[0])
	}
}

func TestFetchDailyClosesErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code int
		want error
	}{
		{name: "api error", body: `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`, want: domrepo.ErrUpstream},
		{name: "empty", body: `{"chart":{"result":[],"error":null}}`, want: domrepo.ErrMalformedPayload},
		{name: "throttled", code: http.StatusTooManyRequests, want: domrepo.ErrRateLimited},
		{name: "short", body: string(chartPayload([]interface{}{31.0, 32.0})), want: domrepo.ErrInsufficientData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.code != 0 {
					w.WriteHeader(tt.code)
				}
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(Config{BaseURL: srv.URL, Symbol: "PETR4.SA"}).FetchDailyCloses(context.Background(), 60)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}
