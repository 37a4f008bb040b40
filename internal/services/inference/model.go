package inference

import (
	"context"
	"fmt"
	"math"

	domsvc "ForecastAPI/internal/domain/service"

	"gonum.org/v1/gonum/mat"
)

// Sequential is an in-process stack of layers. Immutable after construction and safe for concurrent use.
type Sequential struct {
	name     string
	steps    int
	features int
	outputs  int
	layers   []Layer
}

// NewSequential checks that the layer stack is consistent with the input shape.
func NewSequential(name string, steps, features int, layers ...Layer) (*Sequential, error) {
	if steps <= 0 || features <= 0 {
		return nil, fmt.Errorf("%w: invalid input shape [%d, %d]", ErrShape, steps, features)
	}
	if len(layers) == 0 {
		return nil, fmt.Errorf("model %q has no layers", name)
	}
	s, f := steps, features
	for i, l := range layers {
		var err error
		s, f, err = l.OutputShape(s, f)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	if s != 1 {
		return nil, fmt.Errorf("%w: model must end in a single step, got %d", ErrShape, s)
	}
	return &Sequential{name: name, steps: steps, features: features, outputs: f, layers: layers}, nil
}

func (m *Sequential) Name() string { return m.name }

// InputShape returns (steps, features).
func (m *Sequential) InputShape() (int, int) { return m.steps, m.features }

func (m *Sequential) Outputs() int { return m.outputs }

// Predict runs the forward pass on one window of shape (steps x features).
func (m *Sequential) Predict(ctx context.Context, window [][]float64) ([]float64, error) {
	if len(window) != m.steps {
		return nil, fmt.Errorf("%w: got %d steps, want %d", ErrShape, len(window), m.steps)
	}
	data := make([]float64, 0, m.steps*m.features)
	for i, row := range window {
		if len(row) != m.features {
			return nil, fmt.Errorf("%w: step %d has %d features, want %d", ErrShape, i, len(row), m.features)
		}
		data = append(data, row...)
	}

	x := mat.NewDense(m.steps, m.features, data)
	for i, l := range m.layers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		if x, err = l.Forward(x); err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}

	out := append([]float64(nil), x.RawRowView(0)...)
	for _, v := range out {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("model produced non-finite output %v", v)
		}
	}
	return out, nil
}

var _ domsvc.Model = (*Sequential)(nil)
