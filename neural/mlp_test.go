package neural

import (
	"math/rand"
	"testing"

	"github.com/gopherml/goinspect/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// makeLinearData builds y = 2*x0 - x1 with a little noise, standardized
// inputs so the net trains without a scaler.
func makeLinearData(n int, seed int64) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewSource(seed))
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := rng.NormFloat64()
		x1 := rng.NormFloat64()
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, 2*x0-x1+rng.NormFloat64()*0.05)
	}
	return X, y
}

func TestMLPRegressorFitPredict(t *testing.T) {
	X, y := makeLinearData(400, 13)

	mlp := NewMLPRegressor().
		WithHiddenLayerSizes(16).
		WithActivation("tanh").
		WithLearningRate(0.01).
		WithMaxIter(300).
		WithRandomState(0)
	mlp.BatchSize = 32

	if err := mlp.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	score, err := mlp.Score(X, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if score < 0.8 {
		t.Errorf("training R^2 = %v, want >= 0.8", score)
	}

	curve := mlp.LossCurve()
	if len(curve) == 0 {
		t.Fatal("LossCurve() is empty after Fit")
	}
	if curve[len(curve)-1] >= curve[0] {
		t.Errorf("loss did not decrease: first %v, last %v", curve[0], curve[len(curve)-1])
	}
}

func TestMLPRegressorNotFitted(t *testing.T) {
	mlp := NewMLPRegressor()
	X := mat.NewDense(2, 2, []float64{1, 2, 3, 4})

	_, err := mlp.Predict(X)
	if err == nil {
		t.Fatal("Predict() before Fit() should fail")
	}
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("error = %v, want NotFittedError", err)
	}
}

func TestMLPRegressorValidation(t *testing.T) {
	X, y := makeLinearData(50, 1)

	tests := []struct {
		name  string
		setup func() *MLPRegressor
	}{
		{
			name: "unknown activation",
			setup: func() *MLPRegressor {
				return NewMLPRegressor().WithActivation("swish")
			},
		},
		{
			name: "unknown solver",
			setup: func() *MLPRegressor {
				return NewMLPRegressor().WithSolver("lbfgs")
			},
		},
		{
			name: "empty hidden layers",
			setup: func() *MLPRegressor {
				return NewMLPRegressor().WithHiddenLayerSizes()
			},
		},
		{
			name: "non-positive layer width",
			setup: func() *MLPRegressor {
				return NewMLPRegressor().WithHiddenLayerSizes(10, 0)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.setup().Fit(X, y); err == nil {
				t.Error("Fit() should reject invalid parameters")
			}
		})
	}
}

func TestMLPRegressorConvergenceWarning(t *testing.T) {
	X, y := makeLinearData(100, 3)

	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(nil)

	// One epoch cannot satisfy NIterNoChange epochs without improvement,
	// so the cap is always hit.
	mlp := NewMLPRegressor().WithMaxIter(1).WithRandomState(0)
	if err := mlp.Fit(X, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	if warned == nil {
		t.Fatal("expected a ConvergenceWarning")
	}
	var cw *errors.ConvergenceWarning
	if !errors.As(warned, &cw) {
		t.Errorf("warning = %v, want ConvergenceWarning", warned)
	}
}

func TestMLPRegressorDeterministic(t *testing.T) {
	X, y := makeLinearData(150, 21)

	fit := func() []float64 {
		mlp := NewMLPRegressor().
			WithHiddenLayerSizes(8).
			WithMaxIter(20).
			WithRandomState(7)
		if err := mlp.Fit(X, y); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		pred, err := mlp.Predict(X)
		if err != nil {
			t.Fatalf("Predict() error = %v", err)
		}
		out := make([]float64, 5)
		for i := range out {
			out[i] = pred.At(i, 0)
		}
		return out
	}

	first := fit()
	second := fit()
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("prediction %d differs between identical fits: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestActivationByName(t *testing.T) {
	for _, name := range []string{"relu", "tanh", "logistic"} {
		if _, err := activationByName(name); err != nil {
			t.Errorf("activationByName(%q) error = %v", name, err)
		}
	}
	if _, err := activationByName("gelu"); err == nil {
		t.Error("activationByName should reject unknown names")
	}
}
