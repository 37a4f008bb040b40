package util

import (
	"math"
	"strconv"
	"strings"
)

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round2All returns a copy of values with every element rounded to two decimals.
func Round2All(values []float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = Round2(v)
	}
	return out
}

// ParseFloat parses a trimmed decimal string. Returns (v, true) if it is finite.
func ParseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// LastN returns the trailing n elements of values, or all of them when shorter.
func LastN(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	return values[len(values)-n:]
}
