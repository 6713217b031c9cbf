package ensemble

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// treeNode is one node of a fitted regression tree. Leaves carry the
// predicted value; internal nodes route on Feature <= Threshold.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Value     float64   `json:"value"`
	Leaf      bool      `json:"leaf"`
	Left      *treeNode `json:"left,omitempty"`
	Right     *treeNode `json:"right,omitempty"`
}

// regressionTree is a depth-limited least-squares regression tree fit to
// residuals during boosting.
type regressionTree struct {
	Root *treeNode `json:"root"`
}

// treeParams bundles the split constraints shared by every node.
type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
	minGain        float64
}

// splitCandidate describes the best split found for one node.
type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
	leftIdx   []int
	rightIdx  []int
}

// fitTree grows a regression tree on the rows of X selected by idx, with
// target values taken from residuals.
func fitTree(X *mat.Dense, residuals []float64, idx []int, params treeParams) *regressionTree {
	root := growNode(X, residuals, idx, 0, params)
	return &regressionTree{Root: root}
}

func growNode(X *mat.Dense, residuals []float64, idx []int, depth int, params treeParams) *treeNode {
	value := meanOf(residuals, idx)

	if depth >= params.maxDepth || len(idx) < 2*params.minSamplesLeaf {
		return &treeNode{Leaf: true, Value: value}
	}

	best := bestSplit(X, residuals, idx, params)
	if best == nil {
		return &treeNode{Leaf: true, Value: value}
	}

	return &treeNode{
		Feature:   best.feature,
		Threshold: best.threshold,
		Value:     value,
		Left:      growNode(X, residuals, best.leftIdx, depth+1, params),
		Right:     growNode(X, residuals, best.rightIdx, depth+1, params),
	}
}

// bestSplit scans every feature for the threshold minimizing the summed
// squared error of the two children. Returns nil when no split improves on
// the parent by at least minGain.
func bestSplit(X *mat.Dense, residuals []float64, idx []int, params treeParams) *splitCandidate {
	_, nFeatures := X.Dims()
	n := len(idx)

	var totalSum float64
	for _, i := range idx {
		totalSum += residuals[i]
	}

	type pair struct {
		value  float64
		target float64
		row    int
	}

	var best *splitCandidate
	pairs := make([]pair, n)

	for f := 0; f < nFeatures; f++ {
		for k, i := range idx {
			pairs[k] = pair{value: X.At(i, f), target: residuals[i], row: i}
		}
		sort.Slice(pairs, func(a, b int) bool { return pairs[a].value < pairs[b].value })

		// Constant feature within this node: nothing to split on.
		if pairs[0].value == pairs[n-1].value {
			continue
		}

		var leftSum float64
		leftCount := 0
		for k := 0; k < n-1; k++ {
			leftSum += pairs[k].target
			leftCount++

			// Only cut between distinct feature values.
			if pairs[k].value == pairs[k+1].value {
				continue
			}
			rightCount := n - leftCount
			if leftCount < params.minSamplesLeaf || rightCount < params.minSamplesLeaf {
				continue
			}

			rightSum := totalSum - leftSum
			// SSE reduction relative to the parent node. The quadratic
			// terms cancel, so only the mean terms matter.
			gain := leftSum*leftSum/float64(leftCount) +
				rightSum*rightSum/float64(rightCount) -
				totalSum*totalSum/float64(n)

			if gain <= params.minGain || (best != nil && gain <= best.gain) {
				continue
			}
			threshold := (pairs[k].value + pairs[k+1].value) / 2
			best = &splitCandidate{
				feature:   f,
				threshold: threshold,
				gain:      gain,
			}
		}
	}

	if best == nil {
		return nil
	}

	// Materialize the chosen partition once, for the winning split only.
	for _, i := range idx {
		if X.At(i, best.feature) <= best.threshold {
			best.leftIdx = append(best.leftIdx, i)
		} else {
			best.rightIdx = append(best.rightIdx, i)
		}
	}
	return best
}

// predictRow routes one sample through the tree to a leaf value.
func (t *regressionTree) predictRow(x []float64) float64 {
	node := t.Root
	for !node.Leaf {
		if x[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

func meanOf(values []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	sum := 0.0
	for _, i := range idx {
		sum += values[i]
	}
	return sum / float64(len(idx))
}

// depth returns the maximum depth of the tree, used in tests.
func (t *regressionTree) depth() int {
	return nodeDepth(t.Root)
}

func nodeDepth(n *treeNode) int {
	if n == nil || n.Leaf {
		return 0
	}
	left := nodeDepth(n.Left)
	right := nodeDepth(n.Right)
	return 1 + int(math.Max(float64(left), float64(right)))
}
