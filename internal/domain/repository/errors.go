package repository

import "errors"

// Provider failure kinds. Implementations wrap these so callers can label the cause.
var (
	ErrMissingAPIKey    = errors.New("market data api key not configured")
	ErrRateLimited      = errors.New("market data provider rate limited")
	ErrMalformedPayload = errors.New("malformed market data payload")
	ErrUpstream         = errors.New("market data provider returned an error")
	ErrInsufficientData = errors.New("not enough daily closes")
)
