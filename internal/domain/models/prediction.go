package models

import "time"

// StatusSuccess is the only status a completed prediction carries.
const StatusSuccess = "success"

// Prediction is the outcome of one inference request. Not persisted.
type Prediction struct {
	Ticker   string
	PriceBRL float64
	Status   string
}

// PredictionEvent is emitted after a successful prediction.
type PredictionEvent struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	Price     float64   `json:"predicted_price_brl"`
	LastClose float64   `json:"last_close"`
	LatencyMS float64   `json:"latency_ms"`
	Backend   string    `json:"backend"`
	CreatedAt time.Time `json:"created_at"`
}

// HealthStatus describes the artifact state for /health.
type HealthStatus struct {
	ModelLoaded bool
	Detail      string
}
