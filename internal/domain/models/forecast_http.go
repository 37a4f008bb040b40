package models

// Transport-layer DTOs for the forecast endpoints.

type PredictRequest struct {
	Last60Days []float64 `json:"last_60_days" validate:"required,len=60,dive,finite,gte=0"`
}

type PredictResponse struct {
	Ticker            string  `json:"ticker"`
	PredictedPriceBRL float64 `json:"predicted_price_brl"`
	Status            string  `json:"status"`
}

type SampleDataResponse struct {
	Last60Days []float64 `json:"last_60_days"`
	Source     string    `json:"source"`
	Note       string    `json:"note,omitempty"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded *bool  `json:"model_loaded,omitempty"`
	Detail      string `json:"detail,omitempty"`
}
