package inference

import (
	"fmt"
	"math"
)

type activation func(float64) float64

func linear(x float64) float64 { return x }

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// hardSigmoid follows the Keras 3 definition relu6(x+3)/6.
func hardSigmoid(x float64) float64 {
	return math.Min(math.Max(x+3, 0), 6) / 6
}

func relu(x float64) float64 { return math.Max(x, 0) }

var activations = map[string]activation{
	"":             linear,
	"linear":       linear,
	"tanh":         math.Tanh,
	"sigmoid":      sigmoid,
	"hard_sigmoid": hardSigmoid,
	"relu":         relu,
}

func lookupActivation(name string) (activation, error) {
	fn, ok := activations[name]
	if !ok {
		return nil, fmt.Errorf("unsupported activation %q", name)
	}
	return fn, nil
}
