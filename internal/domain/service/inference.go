package service

import "context"

// Model runs a forward pass on a scaled (steps x features) window and returns the scaled output.
type Model interface {
	Predict(ctx context.Context, window [][]float64) ([]float64, error)
	Name() string
}

// Scaler maps raw values into model space and back, column-wise.
type Scaler interface {
	Transform(rows [][]float64) ([][]float64, error)
	InverseTransform(rows [][]float64) ([][]float64, error)
	Features() int
}
