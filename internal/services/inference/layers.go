package inference

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("shape mismatch")

// Layer transforms a (steps x features) matrix.
type Layer interface {
	Forward(x *mat.Dense) (*mat.Dense, error)
	// OutputShape reports the output shape for a given input shape.
	OutputShape(steps, features int) (int, int, error)
}

// LSTM is a single long short-term memory layer with Keras weight layout.
// Gate blocks within the 4*units columns are ordered input, forget, cell, output.
type LSTM struct {
	units           int
	kernel          *mat.Dense // in x 4u
	recurrent       *mat.Dense // u x 4u
	bias            []float64  // 4u
	act             activation
	recAct          activation
	returnSequences bool
}

// NewLSTM validates weight shapes against units.
func NewLSTM(units int, kernel, recurrentKernel [][]float64, bias []float64, act, recAct string, returnSequences bool) (*LSTM, error) {
	if units <= 0 {
		return nil, fmt.Errorf("lstm: units must be positive, got %d", units)
	}
	k, err := toDense(kernel, -1, 4*units)
	if err != nil {
		return nil, fmt.Errorf("lstm kernel: %w", err)
	}
	r, err := toDense(recurrentKernel, units, 4*units)
	if err != nil {
		return nil, fmt.Errorf("lstm recurrent_kernel: %w", err)
	}
	if bias == nil {
		bias = make([]float64, 4*units)
	}
	if len(bias) != 4*units {
		return nil, fmt.Errorf("lstm bias: %w: got %d, want %d", ErrShape, len(bias), 4*units)
	}
	a, err := lookupActivation(act)
	if err != nil {
		return nil, fmt.Errorf("lstm: %w", err)
	}
	ra, err := lookupActivation(recAct)
	if err != nil {
		return nil, fmt.Errorf("lstm: %w", err)
	}
	return &LSTM{
		units:           units,
		kernel:          k,
		recurrent:       r,
		bias:            append([]float64(nil), bias...),
		act:             a,
		recAct:          ra,
		returnSequences: returnSequences,
	}, nil
}

func (l *LSTM) inputFeatures() int {
	r, _ := l.kernel.Dims()
	return r
}

func (l *LSTM) OutputShape(steps, features int) (int, int, error) {
	if features != l.inputFeatures() {
		return 0, 0, fmt.Errorf("lstm: %w: input has %d features, kernel expects %d", ErrShape, features, l.inputFeatures())
	}
	if l.returnSequences {
		return steps, l.units, nil
	}
	return 1, l.units, nil
}

func (l *LSTM) Forward(x *mat.Dense) (*mat.Dense, error) {
	steps, features := x.Dims()
	if _, _, err := l.OutputShape(steps, features); err != nil {
		return nil, err
	}
	u := l.units

	h := mat.NewDense(1, u, nil)
	c := make([]float64, u)
	z := mat.NewDense(1, 4*u, nil)
	rec := mat.NewDense(1, 4*u, nil)

	var seq *mat.Dense
	if l.returnSequences {
		seq = mat.NewDense(steps, u, nil)
	}

	for t := 0; t < steps; t++ {
		z.Mul(x.Slice(t, t+1, 0, features), l.kernel)
		rec.Mul(h, l.recurrent)
		z.Add(z, rec)

		zr := z.RawRowView(0)
		hr := h.RawRowView(0)
		for j := 0; j < u; j++ {
			i := l.recAct(zr[j] + l.bias[j])
			f := l.recAct(zr[u+j] + l.bias[u+j])
			g := l.act(zr[2*u+j] + l.bias[2*u+j])
			o := l.recAct(zr[3*u+j] + l.bias[3*u+j])
			c[j] = f*c[j] + i*g
			hr[j] = o * l.act(c[j])
		}
		if seq != nil {
			seq.SetRow(t, hr)
		}
	}

	if seq != nil {
		return seq, nil
	}
	return h, nil
}

// Dense applies y = act(x*W + b) to every step.
type Dense struct {
	kernel *mat.Dense // in x units
	bias   []float64
	act    activation
}

func NewDense(kernel [][]float64, bias []float64, act string) (*Dense, error) {
	k, err := toDense(kernel, -1, -1)
	if err != nil {
		return nil, fmt.Errorf("dense kernel: %w", err)
	}
	_, units := k.Dims()
	if bias == nil {
		bias = make([]float64, units)
	}
	if len(bias) != units {
		return nil, fmt.Errorf("dense bias: %w: got %d, want %d", ErrShape, len(bias), units)
	}
	a, err := lookupActivation(act)
	if err != nil {
		return nil, fmt.Errorf("dense: %w", err)
	}
	return &Dense{kernel: k, bias: append([]float64(nil), bias...), act: a}, nil
}

func (d *Dense) OutputShape(steps, features int) (int, int, error) {
	in, units := d.kernel.Dims()
	if features != in {
		return 0, 0, fmt.Errorf("dense: %w: input has %d features, kernel expects %d", ErrShape, features, in)
	}
	return steps, units, nil
}

func (d *Dense) Forward(x *mat.Dense) (*mat.Dense, error) {
	steps, features := x.Dims()
	if _, _, err := d.OutputShape(steps, features); err != nil {
		return nil, err
	}
	_, units := d.kernel.Dims()
	y := mat.NewDense(steps, units, nil)
	y.Mul(x, d.kernel)
	for t := 0; t < steps; t++ {
		row := y.RawRowView(t)
		for j := range row {
			row[j] = d.act(row[j] + d.bias[j])
		}
	}
	return y, nil
}

// Dropout is the identity at inference time.
type Dropout struct{}

func (Dropout) OutputShape(steps, features int) (int, int, error) { return steps, features, nil }
func (Dropout) Forward(x *mat.Dense) (*mat.Dense, error)          { return x, nil }

// toDense copies a row-major matrix, checking rows/cols when they are non-negative.
func toDense(m [][]float64, rows, cols int) (*mat.Dense, error) {
	if len(m) == 0 || len(m[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrShape)
	}
	r, c := len(m), len(m[0])
	if rows >= 0 && r != rows {
		return nil, fmt.Errorf("%w: got %d rows, want %d", ErrShape, r, rows)
	}
	if cols >= 0 && c != cols {
		return nil, fmt.Errorf("%w: got %d columns, want %d", ErrShape, c, cols)
	}
	data := make([]float64, 0, r*c)
	for i, row := range m {
		if len(row) != c {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrShape, i, len(row), c)
		}
		data = append(data, row...)
	}
	return mat.NewDense(r, c, data), nil
}
