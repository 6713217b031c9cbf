// Package inspection implements model inspection tools, chiefly partial
// dependence: the marginal effect of one or two features on a fitted
// model's predictions, averaged over the distribution of all other
// features.
package inspection

import (
	"sync"

	"github.com/gopherml/goinspect/core/model"
	"github.com/gopherml/goinspect/core/parallel"
	"github.com/gopherml/goinspect/pkg/errors"
	"github.com/gopherml/goinspect/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Target selects the feature (one index) or feature pair (two indices) a
// partial dependence computation is evaluated for.
type Target []int

// Result holds a computed partial dependence.
//
// For a single feature, Grids has one axis and Values[i] is the averaged
// prediction at Grids[0][i]. For a pair, Values is row-major over
// (Grids[0], Grids[1]): Values[i*len(Grids[1])+j] corresponds to
// Grids[0][i] and Grids[1][j].
type Result struct {
	Features []int
	Names    []string
	Grids    [][]float64
	Values   []float64
	// Deciles holds the per-axis training-data deciles (10% .. 90%), used
	// by plots to draw rug marks.
	Deciles [][]float64
}

// At returns the surface value for grid indices (i, j) of a two-feature
// result.
func (r *Result) At(i, j int) float64 {
	return r.Values[i*len(r.Grids[1])+j]
}

// MinMax returns the smallest and largest averaged value.
func (r *Result) MinMax() (min, max float64) {
	min, max = r.Values[0], r.Values[0]
	for _, v := range r.Values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return min, max
}

type options struct {
	gridResolution  int
	lowerPercentile float64
	upperPercentile float64
	workers         int
	featureNames    []string
}

// Option configures a partial dependence computation.
type Option func(*options)

// WithGridResolution sets the number of grid points per axis. The default
// is 100 for single features and 20 per axis for pairs.
func WithGridResolution(n int) Option {
	return func(o *options) { o.gridResolution = n }
}

// WithPercentiles sets the lower and upper percentiles used to clip the
// grid extremes. Defaults are 0.05 and 0.95.
func WithPercentiles(lower, upper float64) Option {
	return func(o *options) {
		o.lowerPercentile = lower
		o.upperPercentile = upper
	}
}

// WithWorkers sets how many goroutines evaluate grid points concurrently.
// n <= 0 uses one worker per CPU core.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithFeatureNames attaches display names (indexed by feature column) to
// the result.
func WithFeatureNames(names []string) Option {
	return func(o *options) { o.featureNames = names }
}

// PartialDependence computes the partial dependence of the model's
// prediction on the given target feature(s), averaged over the rows of X.
//
// Each grid point is evaluated by overwriting the target column(s) of a
// copy of X with the grid value and averaging the model's predictions.
// Grid points are distributed over a worker pool; results land in fixed
// slots, so the output is deterministic for a deterministic model.
func PartialDependence(m model.Predictor, X mat.Matrix, target Target, opts ...Option) (*Result, error) {
	o := options{
		lowerPercentile: 0.05,
		upperPercentile: 0.95,
	}
	for _, opt := range opts {
		opt(&o)
	}

	rows, cols := X.Dims()
	if rows == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "PartialDependence")
	}
	if len(target) != 1 && len(target) != 2 {
		return nil, errors.NewValidationError("target",
			"must name one feature or a pair of features", target)
	}
	for _, f := range target {
		if f < 0 || f >= cols {
			return nil, errors.NewValidationError("target",
				"feature index out of range", f)
		}
	}
	if o.lowerPercentile < 0 || o.upperPercentile > 1 || o.lowerPercentile >= o.upperPercentile {
		return nil, errors.NewValidationError("percentiles",
			"must satisfy 0 <= lower < upper <= 1",
			[2]float64{o.lowerPercentile, o.upperPercentile})
	}

	resolution := o.gridResolution
	if resolution <= 0 {
		if len(target) == 1 {
			resolution = 100
		} else {
			resolution = 20
		}
	}

	result := &Result{
		Features: append([]int(nil), target...),
		Grids:    make([][]float64, len(target)),
		Deciles:  make([][]float64, len(target)),
	}
	if o.featureNames != nil {
		// One slot per axis so names stay aligned even when some feature
		// indices have no name.
		result.Names = make([]string, len(target))
	}
	for axis, f := range target {
		col := columnValues(X, f)
		result.Grids[axis] = buildGrid(col, resolution, o.lowerPercentile, o.upperPercentile)
		result.Deciles[axis] = deciles(col)
		if o.featureNames != nil && f < len(o.featureNames) {
			result.Names[axis] = o.featureNames[f]
		}
	}

	cells := len(result.Grids[0])
	if len(target) == 2 {
		cells *= len(result.Grids[1])
	}
	result.Values = make([]float64, cells)

	logger := log.GetLoggerWithName("inspection.partial_dependence")
	logger.Debug("evaluating grid",
		"features", target,
		"cells", cells,
		"samples", rows)

	var mu sync.Mutex
	var firstErr error
	parallel.ParallelizeWorkers(o.workers, cells, func(start, end int) {
		// Each worker mutates its own copy of X.
		work := mat.DenseCopyOf(X)
		for cell := start; cell < end; cell++ {
			gridValues := cellValues(result.Grids, cell)
			for axis, f := range target {
				setColumn(work, f, gridValues[axis])
			}
			pred, err := m.Predict(work)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = errors.Wrapf(err, "predicting grid cell %d", cell)
				}
				mu.Unlock()
				return
			}
			var sum float64
			for i := 0; i < rows; i++ {
				sum += pred.At(i, 0)
			}
			result.Values[cell] = sum / float64(rows)
		}
	})
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

// Compute runs PartialDependence for each target in turn with shared
// options.
func Compute(m model.Predictor, X mat.Matrix, targets []Target, opts ...Option) ([]*Result, error) {
	results := make([]*Result, 0, len(targets))
	for _, target := range targets {
		r, err := PartialDependence(m, X, target, opts...)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, nil
}

// cellValues maps a flat cell index to the grid value on each axis.
func cellValues(grids [][]float64, cell int) []float64 {
	if len(grids) == 1 {
		return []float64{grids[0][cell]}
	}
	n1 := len(grids[1])
	return []float64{grids[0][cell/n1], grids[1][cell%n1]}
}

func columnValues(X mat.Matrix, j int) []float64 {
	rows, _ := X.Dims()
	col := make([]float64, rows)
	for i := 0; i < rows; i++ {
		col[i] = X.At(i, j)
	}
	return col
}

func setColumn(X *mat.Dense, j int, v float64) {
	rows, _ := X.Dims()
	for i := 0; i < rows; i++ {
		X.Set(i, j, v)
	}
}
