package ensemble

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestFitTreeRespectsDepthLimit(t *testing.T) {
	n := 256
	X := mat.NewDense(n, 1, nil)
	residuals := make([]float64, n)
	idx := make([]int, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		residuals[i] = float64(i % 7) // enough structure to keep splitting
		idx[i] = i
	}

	for _, maxDepth := range []int{1, 2, 4} {
		tree := fitTree(X, residuals, idx, treeParams{
			maxDepth:       maxDepth,
			minSamplesLeaf: 1,
			minGain:        0,
		})
		if d := tree.depth(); d > maxDepth {
			t.Errorf("maxDepth %d: tree depth = %d", maxDepth, d)
		}
	}
}

func TestFitTreeSplitsOnStep(t *testing.T) {
	// A step function in feature 0: the first split should recover the
	// step location and the leaves its two levels.
	n := 100
	X := mat.NewDense(n, 2, nil)
	residuals := make([]float64, n)
	idx := make([]int, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		X.Set(i, 1, 0.5) // constant noise column, never split on
		if i < 50 {
			residuals[i] = -1
		} else {
			residuals[i] = 1
		}
		idx[i] = i
	}

	tree := fitTree(X, residuals, idx, treeParams{
		maxDepth:       1,
		minSamplesLeaf: 1,
		minGain:        1e-9,
	})

	root := tree.Root
	if root.Leaf {
		t.Fatal("root should be an internal node")
	}
	if root.Feature != 0 {
		t.Errorf("split feature = %d, want 0", root.Feature)
	}
	if root.Threshold < 49 || root.Threshold > 50 {
		t.Errorf("split threshold = %v, want in [49, 50]", root.Threshold)
	}
	if root.Left.Value != -1 || root.Right.Value != 1 {
		t.Errorf("leaf values = (%v, %v), want (-1, 1)", root.Left.Value, root.Right.Value)
	}
}

func TestFitTreeConstantTarget(t *testing.T) {
	n := 20
	X := mat.NewDense(n, 1, nil)
	residuals := make([]float64, n)
	idx := make([]int, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		residuals[i] = 3.5
		idx[i] = i
	}

	tree := fitTree(X, residuals, idx, treeParams{
		maxDepth:       5,
		minSamplesLeaf: 1,
		minGain:        1e-9,
	})
	if !tree.Root.Leaf {
		t.Error("constant target should produce a single leaf")
	}
	if tree.Root.Value != 3.5 {
		t.Errorf("leaf value = %v, want 3.5", tree.Root.Value)
	}
}

func TestPredictRowRouting(t *testing.T) {
	tree := &regressionTree{Root: &treeNode{
		Feature:   1,
		Threshold: 10,
		Left:      &treeNode{Leaf: true, Value: -2},
		Right:     &treeNode{Leaf: true, Value: 4},
	}}

	if got := tree.predictRow([]float64{0, 5}); got != -2 {
		t.Errorf("predictRow(left) = %v, want -2", got)
	}
	if got := tree.predictRow([]float64{0, 15}); got != 4 {
		t.Errorf("predictRow(right) = %v, want 4", got)
	}
	if got := tree.predictRow([]float64{0, 10}); got != -2 {
		t.Errorf("predictRow(boundary) = %v, want -2 (<= routes left)", got)
	}
}
