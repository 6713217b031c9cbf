package inspection

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// linearModel predicts 2*x0 + 3*x1 deterministically, so partial dependence
// values can be checked in closed form.
type linearModel struct{}

func (linearModel) Predict(X mat.Matrix) (mat.Matrix, error) {
	rows, _ := X.Dims()
	out := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, 2*X.At(i, 0)+3*X.At(i, 1))
	}
	return out, nil
}

func testMatrix() *mat.Dense {
	// Two features, x0 in 0..9, x1 in 10..19.
	data := make([]float64, 20)
	for i := 0; i < 10; i++ {
		data[i*2] = float64(i)
		data[i*2+1] = float64(10 + i)
	}
	return mat.NewDense(10, 2, data)
}

func TestPartialDependenceLinearModel(t *testing.T) {
	X := testMatrix()
	r, err := PartialDependence(linearModel{}, X, Target{0},
		WithGridResolution(5), WithPercentiles(0, 1))
	if err != nil {
		t.Fatalf("PartialDependence() error = %v", err)
	}

	if len(r.Grids) != 1 {
		t.Fatalf("expected 1 grid axis, got %d", len(r.Grids))
	}
	if len(r.Values) != len(r.Grids[0]) {
		t.Fatalf("values length %d does not match grid length %d", len(r.Values), len(r.Grids[0]))
	}

	// For a linear model, PD(x0 = g) = 2*g + 3*mean(x1) = 2*g + 3*14.5.
	for i, g := range r.Grids[0] {
		want := 2*g + 3*14.5
		if math.Abs(r.Values[i]-want) > 1e-9 {
			t.Errorf("value at grid %v = %v, want %v", g, r.Values[i], want)
		}
	}
}

func TestPartialDependencePair(t *testing.T) {
	X := testMatrix()
	r, err := PartialDependence(linearModel{}, X, Target{0, 1},
		WithGridResolution(4), WithPercentiles(0, 1))
	if err != nil {
		t.Fatalf("PartialDependence() error = %v", err)
	}

	if len(r.Grids) != 2 {
		t.Fatalf("expected 2 grid axes, got %d", len(r.Grids))
	}
	if len(r.Values) != len(r.Grids[0])*len(r.Grids[1]) {
		t.Fatalf("values length %d does not match grid %dx%d",
			len(r.Values), len(r.Grids[0]), len(r.Grids[1]))
	}

	// Both features fixed: PD(g0, g1) = 2*g0 + 3*g1 exactly.
	for i, g0 := range r.Grids[0] {
		for j, g1 := range r.Grids[1] {
			want := 2*g0 + 3*g1
			if math.Abs(r.At(i, j)-want) > 1e-9 {
				t.Errorf("At(%d, %d) = %v, want %v", i, j, r.At(i, j), want)
			}
		}
	}
}

func TestPartialDependenceDeterministicAcrossWorkerCounts(t *testing.T) {
	X := testMatrix()
	opts := func(workers int) []Option {
		return []Option{
			WithGridResolution(7),
			WithPercentiles(0, 1),
			WithWorkers(workers),
		}
	}

	serial, err := PartialDependence(linearModel{}, X, Target{0}, opts(1)...)
	if err != nil {
		t.Fatalf("serial run error = %v", err)
	}
	parallel, err := PartialDependence(linearModel{}, X, Target{0}, opts(4)...)
	if err != nil {
		t.Fatalf("parallel run error = %v", err)
	}

	for i := range serial.Values {
		if serial.Values[i] != parallel.Values[i] {
			t.Errorf("value %d differs between worker counts: %v vs %v",
				i, serial.Values[i], parallel.Values[i])
		}
	}
}

func TestPartialDependenceValidation(t *testing.T) {
	X := testMatrix()
	tests := []struct {
		name   string
		X      mat.Matrix
		target Target
		opts   []Option
	}{
		{name: "feature out of range", X: X, target: Target{5}},
		{name: "negative feature", X: X, target: Target{-1}},
		{name: "three features", X: X, target: Target{0, 1, 0}},
		{name: "empty target", X: X, target: Target{}},
		{name: "empty matrix", X: &mat.Dense{}, target: Target{0}},
		{
			name:   "inverted percentiles",
			X:      X,
			target: Target{0},
			opts:   []Option{WithPercentiles(0.9, 0.1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := PartialDependence(linearModel{}, tt.X, tt.target, tt.opts...); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestPartialDependenceConstantFeature(t *testing.T) {
	// Feature 0 is constant; the grid degenerates to a single point.
	data := []float64{
		5, 1,
		5, 2,
		5, 3,
		5, 4,
	}
	X := mat.NewDense(4, 2, data)

	r, err := PartialDependence(linearModel{}, X, Target{0}, WithGridResolution(10))
	if err != nil {
		t.Fatalf("PartialDependence() error = %v", err)
	}
	if len(r.Grids[0]) != 1 {
		t.Fatalf("expected single-point grid for constant feature, got %d points", len(r.Grids[0]))
	}
	if r.Grids[0][0] != 5 {
		t.Errorf("grid point = %v, want 5", r.Grids[0][0])
	}
}

func TestPartialDependenceFeatureNames(t *testing.T) {
	X := testMatrix()
	r, err := PartialDependence(linearModel{}, X, Target{1},
		WithFeatureNames([]string{"alpha", "beta"}), WithGridResolution(3))
	if err != nil {
		t.Fatalf("PartialDependence() error = %v", err)
	}
	if len(r.Names) != 1 || r.Names[0] != "beta" {
		t.Errorf("Names = %v, want [beta]", r.Names)
	}
}

func TestPartialDependenceShortFeatureNames(t *testing.T) {
	// Only feature 0 has a name; the unnamed axis must keep its slot so
	// names stay aligned with the target axes.
	X := testMatrix()
	r, err := PartialDependence(linearModel{}, X, Target{1, 0},
		WithFeatureNames([]string{"alpha"}), WithGridResolution(3))
	if err != nil {
		t.Fatalf("PartialDependence() error = %v", err)
	}
	if len(r.Names) != 2 {
		t.Fatalf("Names length = %d, want 2", len(r.Names))
	}
	if r.Names[0] != "" || r.Names[1] != "alpha" {
		t.Errorf("Names = %v, want [\"\", alpha]", r.Names)
	}
}
