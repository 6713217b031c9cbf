// Package ensemble implements gradient boosted regression trees.
package ensemble

import (
	"math/rand"

	"github.com/gopherml/goinspect/core/model"
	"github.com/gopherml/goinspect/core/parallel"
	"github.com/gopherml/goinspect/metrics"
	"github.com/gopherml/goinspect/pkg/errors"
	"github.com/gopherml/goinspect/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// GradientBoostingRegressor fits an additive ensemble of depth-limited
// regression trees to the least-squares residuals of the previous rounds,
// shrunk by the learning rate.
type GradientBoostingRegressor struct {
	model.BaseEstimator

	// NEstimators is the number of boosting rounds.
	NEstimators int
	// LearningRate shrinks each tree's contribution.
	LearningRate float64
	// MaxDepth limits the depth of each tree.
	MaxDepth int
	// MinSamplesLeaf is the minimum number of samples in a leaf.
	MinSamplesLeaf int
	// Subsample is the fraction of rows sampled (without replacement) per
	// round. 1.0 disables subsampling.
	Subsample float64
	// MinGainToSplit is the minimum SSE reduction required to split a node.
	MinGainToSplit float64
	// RandomState seeds row subsampling for reproducible fits.
	RandomState int64
	// Verbose enables progress logging during Fit.
	Verbose bool

	initScore_ float64
	trees_     []*regressionTree
	nFeatures_ int
}

// NewGradientBoostingRegressor creates a regressor with the usual defaults:
// 100 rounds of depth-3 trees at learning rate 0.1.
func NewGradientBoostingRegressor() *GradientBoostingRegressor {
	return &GradientBoostingRegressor{
		NEstimators:    100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 20,
		Subsample:      1.0,
		MinGainToSplit: 1e-7,
		RandomState:    42,
	}
}

// WithNEstimators sets the number of boosting rounds.
func (g *GradientBoostingRegressor) WithNEstimators(n int) *GradientBoostingRegressor {
	g.NEstimators = n
	return g
}

// WithLearningRate sets the shrinkage rate.
func (g *GradientBoostingRegressor) WithLearningRate(lr float64) *GradientBoostingRegressor {
	g.LearningRate = lr
	return g
}

// WithMaxDepth sets the per-tree depth limit.
func (g *GradientBoostingRegressor) WithMaxDepth(d int) *GradientBoostingRegressor {
	g.MaxDepth = d
	return g
}

// WithMinSamplesLeaf sets the minimum samples per leaf.
func (g *GradientBoostingRegressor) WithMinSamplesLeaf(n int) *GradientBoostingRegressor {
	g.MinSamplesLeaf = n
	return g
}

// WithSubsample sets the per-round row sampling fraction.
func (g *GradientBoostingRegressor) WithSubsample(f float64) *GradientBoostingRegressor {
	g.Subsample = f
	return g
}

// WithRandomState sets the subsampling seed.
func (g *GradientBoostingRegressor) WithRandomState(seed int64) *GradientBoostingRegressor {
	g.RandomState = seed
	return g
}

// WithVerbose enables progress logging.
func (g *GradientBoostingRegressor) WithVerbose() *GradientBoostingRegressor {
	g.Verbose = true
	return g
}

// Fit trains the boosted ensemble on X and y.
func (g *GradientBoostingRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GradientBoostingRegressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "GradientBoostingRegressor.Fit")
	}
	if rows != yRows {
		return errors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Fit", 1, yCols, 1)
	}
	if g.NEstimators <= 0 {
		return errors.NewValidationError("NEstimators", "must be positive", g.NEstimators)
	}
	if g.LearningRate <= 0 {
		return errors.NewValidationError("LearningRate", "must be positive", g.LearningRate)
	}
	if g.Subsample <= 0 || g.Subsample > 1 {
		return errors.NewValidationError("Subsample", "must be in (0, 1]", g.Subsample)
	}

	xDense := toDense(X)
	g.nFeatures_ = cols

	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		targets[i] = y.At(i, 0)
	}

	// Initial prediction is the target mean; boosting fits the residuals.
	var sum float64
	for _, t := range targets {
		sum += t
	}
	g.initScore_ = sum / float64(rows)

	pred := make([]float64, rows)
	residuals := make([]float64, rows)
	for i := range pred {
		pred[i] = g.initScore_
	}

	allIdx := make([]int, rows)
	for i := range allIdx {
		allIdx[i] = i
	}

	rng := rand.New(rand.NewSource(g.RandomState))
	params := treeParams{
		maxDepth:       g.MaxDepth,
		minSamplesLeaf: g.MinSamplesLeaf,
		minGain:        g.MinGainToSplit,
	}

	logger := log.GetLoggerWithName("ensemble.gbr")
	if g.Verbose {
		logger.Info("training GradientBoostingRegressor",
			"samples", rows,
			"features", cols,
			"n_estimators", g.NEstimators,
			"learning_rate", g.LearningRate,
			"max_depth", g.MaxDepth)
	}

	g.trees_ = make([]*regressionTree, 0, g.NEstimators)
	for iter := 0; iter < g.NEstimators; iter++ {
		for i := range residuals {
			residuals[i] = targets[i] - pred[i]
		}

		idx := allIdx
		if g.Subsample < 1.0 {
			nSub := int(float64(rows) * g.Subsample)
			if nSub < 1 {
				nSub = 1
			}
			idx = rng.Perm(rows)[:nSub]
		}

		tree := fitTree(xDense, residuals, idx, params)
		g.trees_ = append(g.trees_, tree)

		row := make([]float64, cols)
		for i := 0; i < rows; i++ {
			mat.Row(row, i, xDense)
			pred[i] += g.LearningRate * tree.predictRow(row)
		}

		if g.Verbose && (iter+1)%100 == 0 {
			var sse float64
			for i := range pred {
				d := targets[i] - pred[i]
				sse += d * d
			}
			logger.Info("boosting progress",
				"iteration", iter+1,
				"train_mse", sse/float64(rows))
		}
	}

	g.SetFitted()
	return nil
}

// Predict returns predictions for X as an n x 1 matrix. Rows are evaluated
// in parallel across CPU cores.
func (g *GradientBoostingRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GradientBoostingRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != g.nFeatures_ {
		return nil, errors.NewDimensionError("Predict", g.nFeatures_, cols, 1)
	}

	xDense := toDense(X)
	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, 256, func(start, end int) {
		row := make([]float64, cols)
		for i := start; i < end; i++ {
			mat.Row(row, i, xDense)
			v := g.initScore_
			for _, tree := range g.trees_ {
				v += g.LearningRate * tree.predictRow(row)
			}
			out.Set(i, 0, v)
		}
	})
	return out, nil
}

// Score returns the coefficient of determination R^2 on X, y.
func (g *GradientBoostingRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GradientBoostingRegressor", "Score")
	}
	pred, err := g.Predict(X)
	if err != nil {
		return 0, err
	}
	yVec, err := metrics.ColumnVec(y)
	if err != nil {
		return 0, err
	}
	predVec, err := metrics.ColumnVec(pred)
	if err != nil {
		return 0, err
	}
	return metrics.R2Score(yVec, predVec)
}

// NumTrees returns the number of fitted trees.
func (g *GradientBoostingRegressor) NumTrees() int {
	return len(g.trees_)
}

// GetParams returns the hyperparameters of the regressor.
func (g *GradientBoostingRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"n_estimators":      g.NEstimators,
		"learning_rate":     g.LearningRate,
		"max_depth":         g.MaxDepth,
		"min_samples_leaf":  g.MinSamplesLeaf,
		"subsample":         g.Subsample,
		"min_gain_to_split": g.MinGainToSplit,
		"random_state":      g.RandomState,
	}
}

func toDense(X mat.Matrix) *mat.Dense {
	if d, ok := X.(*mat.Dense); ok {
		return d
	}
	rows, cols := X.Dims()
	d := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			d.Set(i, j, X.At(i, j))
		}
	}
	return d
}
