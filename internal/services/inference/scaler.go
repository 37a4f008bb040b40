package inference

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	domsvc "ForecastAPI/internal/domain/service"
)

// Scaler file types.
const (
	ScalerMinMax   = "minmax"
	ScalerStandard = "standard"
)

var ErrFeatureMismatch = errors.New("feature count mismatch")

// scalerFile is the JSON export of a fitted transform.
type scalerFile struct {
	Type         string    `json:"type"`
	DataMin      []float64 `json:"data_min"`
	DataMax      []float64 `json:"data_max"`
	FeatureRange []float64 `json:"feature_range"`
	Mean         []float64 `json:"mean"`
	Scale        []float64 `json:"scale"`
}

// LoadScaler reads a scaler export from path.
func LoadScaler(path string) (domsvc.Scaler, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scaler: %w", err)
	}
	return ParseScaler(b)
}

// ParseScaler builds a scaler from its JSON export.
func ParseScaler(b []byte) (domsvc.Scaler, error) {
	var f scalerFile
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("decode scaler: %w", err)
	}

	switch f.Type {
	case ScalerMinMax:
		lo, hi := 0.0, 1.0
		if len(f.FeatureRange) != 0 {
			if len(f.FeatureRange) != 2 {
				return nil, fmt.Errorf("feature_range must have 2 values, got %d", len(f.FeatureRange))
			}
			lo, hi = f.FeatureRange[0], f.FeatureRange[1]
		}
		return NewMinMaxScaler(f.DataMin, f.DataMax, lo, hi)
	case ScalerStandard:
		return NewStandardScaler(f.Mean, f.Scale)
	default:
		return nil, fmt.Errorf("unknown scaler type %q", f.Type)
	}
}

// MinMaxScaler maps each feature from [data_min, data_max] onto the feature range.
type MinMaxScaler struct {
	scale []float64
	min   []float64
}

func NewMinMaxScaler(dataMin, dataMax []float64, lo, hi float64) (*MinMaxScaler, error) {
	if len(dataMin) == 0 || len(dataMin) != len(dataMax) {
		return nil, fmt.Errorf("data_min/data_max: %w (%d vs %d)", ErrFeatureMismatch, len(dataMin), len(dataMax))
	}
	if hi <= lo {
		return nil, fmt.Errorf("invalid feature_range [%v, %v]", lo, hi)
	}
	s := &MinMaxScaler{scale: make([]float64, len(dataMin)), min: make([]float64, len(dataMin))}
	for i := range dataMin {
		rng := dataMax[i] - dataMin[i]
		if rng == 0 {
			rng = 1
		}
		s.scale[i] = (hi - lo) / rng
		s.min[i] = lo - dataMin[i]*s.scale[i]
	}
	if err := checkFinite(s.scale, s.min); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MinMaxScaler) Features() int { return len(s.scale) }

func (s *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	return apply(rows, len(s.scale), func(j int, v float64) float64 { return v*s.scale[j] + s.min[j] })
}

func (s *MinMaxScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	return apply(rows, len(s.scale), func(j int, v float64) float64 { return (v - s.min[j]) / s.scale[j] })
}

// StandardScaler centers each feature on mean and divides by scale.
type StandardScaler struct {
	mean  []float64
	scale []float64
}

func NewStandardScaler(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 || len(mean) != len(scale) {
		return nil, fmt.Errorf("mean/scale: %w (%d vs %d)", ErrFeatureMismatch, len(mean), len(scale))
	}
	s := &StandardScaler{mean: append([]float64(nil), mean...), scale: make([]float64, len(scale))}
	for i, v := range scale {
		if v == 0 {
			v = 1
		}
		s.scale[i] = v
	}
	if err := checkFinite(s.mean, s.scale); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *StandardScaler) Features() int { return len(s.mean) }

func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	return apply(rows, len(s.mean), func(j int, v float64) float64 { return (v - s.mean[j]) / s.scale[j] })
}

func (s *StandardScaler) InverseTransform(rows [][]float64) ([][]float64, error) {
	return apply(rows, len(s.mean), func(j int, v float64) float64 { return v*s.scale[j] + s.mean[j] })
}

func apply(rows [][]float64, features int, fn func(j int, v float64) float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		if len(row) != features {
			return nil, fmt.Errorf("row %d: %w: got %d, want %d", i, ErrFeatureMismatch, len(row), features)
		}
		o := make([]float64, features)
		for j, v := range row {
			o[j] = fn(j, v)
		}
		out[i] = o
	}
	return out, nil
}

func checkFinite(vs ...[]float64) error {
	for _, v := range vs {
		for _, x := range v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return errors.New("scaler parameters must be finite")
			}
		}
	}
	return nil
}

var (
	_ domsvc.Scaler = (*MinMaxScaler)(nil)
	_ domsvc.Scaler = (*StandardScaler)(nil)
)
