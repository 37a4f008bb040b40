package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ForecastAPI/internal/domain/models"
	domrepo "ForecastAPI/internal/domain/repository"
	xhttp "ForecastAPI/pkg/http"
	"ForecastAPI/pkg/util"
)

const (
	DefaultBaseURL = "https://www.alphavantage.co"

	functionDaily   = "TIME_SERIES_DAILY"
	dailySeriesKey  = "Time Series (Daily)"
	closeKey        = "4. close"
	compactMaxRows  = 100
	outputCompact   = "compact"
	outputFull      = "full"
	defaultDataType = "json"
)

// Config holds Alpha Vantage settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Symbol     string
	OutputSize string
	Timeout    time.Duration
}

// Client fetches daily closes from the Alpha Vantage query API.
type Client struct {
	cfg  Config
	http *xhttp.Client
}

func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.OutputSize == "" {
		cfg.OutputSize = outputCompact
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: xhttp.NewClient(xhttp.WithTimeout(cfg.Timeout))}
}

func (c *Client) Name() string   { return "alphavantage" }
func (c *Client) Source() string { return models.SourceAlphaVantage }

// FetchDailyCloses returns the last n daily closes, oldest first.
func (c *Client) FetchDailyCloses(ctx context.Context, n int) ([]float64, error) {
	if c.cfg.APIKey == "" {
		return nil, domrepo.ErrMissingAPIKey
	}

	var raw map[string]json.RawMessage
	err := c.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         c.cfg.BaseURL + "/query",
		QueryParams: c.buildQuery(n),
	}, &raw)
	if err != nil {
		var se *xhttp.StatusError
		if errors.As(err, &se) && se.TooManyRequests() {
			return nil, fmt.Errorf("%w: %v", domrepo.ErrRateLimited, err)
		}
		if errors.Is(err, xhttp.ErrDecode) {
			return nil, fmt.Errorf("%w: %v", domrepo.ErrMalformedPayload, err)
		}
		return nil, fmt.Errorf("alphavantage: %w", err)
	}

	return parseDaily(raw, n)
}

func (c *Client) buildQuery(n int) map[string][]string {
	size := c.cfg.OutputSize
	if n > compactMaxRows {
		size = outputFull
	}
	return map[string][]string{
		"function":   {functionDaily},
		"symbol":     {c.cfg.Symbol},
		"outputsize": {size},
		"datatype":   {defaultDataType},
		"apikey":     {c.cfg.APIKey},
	}
}

// parseDaily handles the throttling and error envelopes before reading the series.
func parseDaily(raw map[string]json.RawMessage, n int) ([]float64, error) {
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			return nil, fmt.Errorf("%w: %s", domrepo.ErrRateLimited, unquote(msg))
		}
	}
	if msg, ok := raw["Error Message"]; ok {
		return nil, fmt.Errorf("%w: %s", domrepo.ErrUpstream, unquote(msg))
	}

	body, ok := raw[dailySeriesKey]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", domrepo.ErrMalformedPayload, dailySeriesKey)
	}
	var series map[string]map[string]string
	if err := json.Unmarshal(body, &series); err != nil {
		return nil, fmt.Errorf("%w: %v", domrepo.ErrMalformedPayload, err)
	}

	closes := make([]float64, 0, len(series))
	for _, day := range util.SortedDayKeys(series) {
		v, ok := util.ParseFloat(series[day][closeKey])
		if !ok || v <= 0 {
			continue
		}
		closes = append(closes, v)
	}

	if len(closes) < n {
		return nil, fmt.Errorf("%w: got %d, want %d", domrepo.ErrInsufficientData, len(closes), n)
	}
	return util.LastN(closes, n), nil
}

func unquote(b json.RawMessage) string {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return string(b)
	}
	return s
}

var _ domrepo.MarketDataProvider = (*Client)(nil)
