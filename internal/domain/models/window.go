package models

import (
	"errors"
	"fmt"
	"math"
)

// WindowSize is the number of daily closes the model consumes.
const WindowSize = 60

var (
	ErrWindowLength = errors.New("window must contain exactly 60 closes")
	ErrWindowValue  = errors.New("window values must be finite and non-negative")
)

// Window is a chronological sequence of daily closes, oldest first.
type Window []float64

// Validate enforces the model input contract independently of the HTTP schema.
func (w Window) Validate() error {
	if len(w) != WindowSize {
		return fmt.Errorf("%w: got %d", ErrWindowLength, len(w))
	}
	for i, v := range w {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("%w: index %d is %v", ErrWindowValue, i, v)
		}
	}
	return nil
}

// Last returns the most recent close.
func (w Window) Last() float64 {
	if len(w) == 0 {
		return 0
	}
	return w[len(w)-1]
}
