package neural

import (
	"math"

	"github.com/gopherml/goinspect/pkg/errors"
)

// activation bundles a nonlinearity with its derivative expressed in terms
// of the activated output, which is what backpropagation needs.
type activation struct {
	name  string
	fn    func(x float64) float64
	deriv func(activated float64) float64
}

var activations = map[string]activation{
	"relu": {
		name: "relu",
		fn: func(x float64) float64 {
			if x > 0 {
				return x
			}
			return 0
		},
		deriv: func(a float64) float64 {
			if a > 0 {
				return 1
			}
			return 0
		},
	},
	"tanh": {
		name: "tanh",
		fn:   math.Tanh,
		deriv: func(a float64) float64 {
			return 1 - a*a
		},
	},
	"logistic": {
		name: "logistic",
		fn: func(x float64) float64 {
			return 1.0 / (1.0 + math.Exp(-x))
		},
		deriv: func(a float64) float64 {
			return a * (1 - a)
		},
	},
}

func activationByName(name string) (activation, error) {
	act, ok := activations[name]
	if !ok {
		return activation{}, errors.NewValidationError("Activation",
			"must be one of relu, tanh, logistic", name)
	}
	return act, nil
}
