package http

// DetailResponse is the error body returned by every endpoint.
// Detail is either a message string or a list of ValidationError.
type DetailResponse struct {
	Detail interface{} `json:"detail"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_LEN"`
	Field   string                 `json:"field,omitempty" example:"last_60_days"`
	Message string                 `json:"message,omitempty" example:"last_60_days must contain exactly 60 items"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
