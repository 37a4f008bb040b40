package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
	xhttp "ForecastAPI/pkg/http"
	"ForecastAPI/pkg/util"
)

const (
	DefaultBaseURL = "https://query1.finance.yahoo.com"
	defaultRange   = "6mo"
	userAgent      = "Mozilla/5.0"
)

type Config struct {
	BaseURL string
	Symbol  string
	Range   string
	Proxy   string
	Timeout time.Duration
}

// Client reads daily bars from the Yahoo Finance chart API.
type Client struct {
	cfg  Config
	http *xhttp.Client
}

// chartResponse is the subset of the chart API we read. Null closes decode to nil.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Range == "" {
		cfg.Range = defaultRange
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		cfg: cfg,
		http: xhttp.NewClient(
			xhttp.WithTimeout(cfg.Timeout),
			xhttp.WithUserAgent(userAgent),
			xhttp.WithProxy(cfg.Proxy),
		),
	}
}

func (c *Client) Name() string   { return "yahoo" }
func (c *Client) Source() string { return models.SourceYahoo }

// FetchDailyCloses returns the last n non-null daily closes, oldest first.
func (c *Client) FetchDailyCloses(ctx context.Context, n int) ([]float64, error) {
	var chart chartResponse
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    fmt.Sprintf("%s/v8/finance/chart/%s", c.cfg.BaseURL, url.PathEscape(c.cfg.Symbol)),
		QueryParams: map[string][]string{
			"interval": {"1d"},
			"range":    {c.cfg.Range},
		},
	}, &chart)
	if err != nil {
		var se *xhttp.StatusError
		switch {
		case errors.As(err, &se) && se.TooManyRequests():
			return nil, fmt.Errorf("%w: %v", domrepo.ErrRateLimited, err)
		case errors.Is(err, xhttp.ErrDecode):
			return nil, fmt.Errorf("%w: %v", domrepo.ErrMalformedPayload, err)
		}
		return nil, fmt.Errorf("yahoo: %w", err)
	}

	return parseChart(&chart, n)
}

func parseChart(chart *chartResponse, n int) ([]float64, error) {
	if e := chart.Chart.Error; e != nil {
		return nil, fmt.Errorf("%w: %s: %s", domrepo.ErrUpstream, e.Code, e.Description)
	}
	if len(chart.Chart.Result) == 0 || len(chart.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: empty chart result", domrepo.ErrMalformedPayload)
	}

	result := chart.Chart.Result[0]
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return nil, fmt.Errorf("%w: %d timestamps, %d closes", domrepo.ErrMalformedPayload, len(result.Timestamp), len(closes))
	}

	type bar struct {
		day   time.Time
		close float64
	}
	bars := make([]bar, 0, len(closes))
	for i, ts := range result.Timestamp {
		// Holidays and the in-progress session come back as null.
		if closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		bars = append(bars, bar{day: util.UnixDay(ts), close: *closes[i]})
	}
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].day.Before(bars[j].day) })

	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.close
	}
	if len(out) < n {
		return nil, fmt.Errorf("%w: got %d, want %d", domrepo.ErrInsufficientData, len(out), n)
	}
	return util.LastN(out, n), nil
}

var _ domrepo.MarketDataProvider = (*Client)(nil)
