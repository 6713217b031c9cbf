// Package neural implements a multi-layer perceptron regressor trained with
// mini-batch backpropagation.
package neural

import (
	"math"
	"math/rand"

	"github.com/gopherml/goinspect/core/model"
	"github.com/gopherml/goinspect/core/parallel"
	"github.com/gopherml/goinspect/metrics"
	"github.com/gopherml/goinspect/pkg/errors"
	"github.com/gopherml/goinspect/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// MLPRegressor is a feed-forward network with a linear output unit, trained
// on squared error with Adam or plain SGD.
//
// Inputs should be standardized (see preprocessing.StandardScaler); the
// network makes no attempt to rescale features itself.
type MLPRegressor struct {
	model.BaseEstimator

	// HiddenLayerSizes gives the width of each hidden layer.
	HiddenLayerSizes []int
	// Activation is the hidden-layer nonlinearity: relu, tanh or logistic.
	Activation string
	// Solver selects the optimizer: adam or sgd.
	Solver string
	// LearningRate is the optimizer step size.
	LearningRate float64
	// Alpha is the L2 penalty on weights.
	Alpha float64
	// MaxIter caps the number of training epochs.
	MaxIter int
	// BatchSize is the mini-batch size. <= 0 selects min(200, n_samples).
	BatchSize int
	// Tol is the minimum loss improvement counted as progress.
	Tol float64
	// NIterNoChange stops training after this many epochs without
	// improvement of at least Tol.
	NIterNoChange int
	// RandomState seeds weight initialization and batch shuffling.
	RandomState int64
	// Verbose enables per-epoch loss logging.
	Verbose bool

	weights_   [][]float64 // weights_[l][i*fanOut+j], input i to unit j
	biases_    [][]float64
	sizes_     []int
	act_       activation
	lossCurve_ []float64
	nFeatures_ int
}

// NewMLPRegressor creates an MLP with one hidden layer of 100 units and
// defaults matching common practice: relu activation, Adam at 1e-3.
func NewMLPRegressor() *MLPRegressor {
	return &MLPRegressor{
		HiddenLayerSizes: []int{100},
		Activation:       "relu",
		Solver:           "adam",
		LearningRate:     1e-3,
		Alpha:            1e-4,
		MaxIter:          200,
		Tol:              1e-4,
		NIterNoChange:    10,
		RandomState:      42,
	}
}

// WithHiddenLayerSizes sets the hidden layer widths.
func (m *MLPRegressor) WithHiddenLayerSizes(sizes ...int) *MLPRegressor {
	m.HiddenLayerSizes = sizes
	return m
}

// WithActivation sets the hidden-layer activation.
func (m *MLPRegressor) WithActivation(name string) *MLPRegressor {
	m.Activation = name
	return m
}

// WithSolver sets the optimizer.
func (m *MLPRegressor) WithSolver(name string) *MLPRegressor {
	m.Solver = name
	return m
}

// WithLearningRate sets the optimizer step size.
func (m *MLPRegressor) WithLearningRate(lr float64) *MLPRegressor {
	m.LearningRate = lr
	return m
}

// WithMaxIter sets the epoch cap.
func (m *MLPRegressor) WithMaxIter(n int) *MLPRegressor {
	m.MaxIter = n
	return m
}

// WithRandomState sets the seed.
func (m *MLPRegressor) WithRandomState(seed int64) *MLPRegressor {
	m.RandomState = seed
	return m
}

// WithVerbose enables progress logging.
func (m *MLPRegressor) WithVerbose() *MLPRegressor {
	m.Verbose = true
	return m
}

// LossCurve returns the training loss recorded at each epoch of the last
// Fit call.
func (m *MLPRegressor) LossCurve() []float64 {
	return append([]float64(nil), m.lossCurve_...)
}

// Fit trains the network on X and y.
func (m *MLPRegressor) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "MLPRegressor.Fit")

	rows, cols := X.Dims()
	yRows, yCols := y.Dims()
	if rows == 0 {
		return errors.Wrap(errors.ErrEmptyData, "MLPRegressor.Fit")
	}
	if rows != yRows {
		return errors.NewDimensionError("Fit", rows, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("Fit", 1, yCols, 1)
	}
	if len(m.HiddenLayerSizes) == 0 {
		return errors.NewValidationError("HiddenLayerSizes", "must not be empty", m.HiddenLayerSizes)
	}
	for _, h := range m.HiddenLayerSizes {
		if h <= 0 {
			return errors.NewValidationError("HiddenLayerSizes", "layer widths must be positive", h)
		}
	}
	if m.Solver != "adam" && m.Solver != "sgd" {
		return errors.NewValidationError("Solver", "must be adam or sgd", m.Solver)
	}

	m.act_, err = activationByName(m.Activation)
	if err != nil {
		return err
	}

	m.nFeatures_ = cols
	m.sizes_ = append(append([]int{cols}, m.HiddenLayerSizes...), 1)
	rng := rand.New(rand.NewSource(m.RandomState))
	m.initWeights(rng)

	batchSize := m.BatchSize
	if batchSize <= 0 {
		batchSize = 200
	}
	if batchSize > rows {
		batchSize = rows
	}

	nLayers := len(m.sizes_) - 1
	wAdam := make([]*adamState, nLayers)
	bAdam := make([]*adamState, nLayers)
	for l := 0; l < nLayers; l++ {
		wAdam[l] = newAdamState(len(m.weights_[l]))
		bAdam[l] = newAdamState(len(m.biases_[l]))
	}

	xDense := denseCopy(X)
	targets := make([]float64, rows)
	for i := 0; i < rows; i++ {
		targets[i] = y.At(i, 0)
	}

	logger := log.GetLoggerWithName("neural.mlp")
	if m.Verbose {
		logger.Info("training MLPRegressor",
			"samples", rows,
			"features", cols,
			"hidden_layers", m.HiddenLayerSizes,
			"solver", m.Solver)
	}

	wGrads := make([][]float64, nLayers)
	bGrads := make([][]float64, nLayers)
	for l := 0; l < nLayers; l++ {
		wGrads[l] = make([]float64, len(m.weights_[l]))
		bGrads[l] = make([]float64, len(m.biases_[l]))
	}

	m.lossCurve_ = m.lossCurve_[:0]
	bestLoss := math.Inf(1)
	noImprove := 0
	converged := false

	order := make([]int, rows)
	for i := range order {
		order[i] = i
	}

	for epoch := 0; epoch < m.MaxIter; epoch++ {
		rng.Shuffle(rows, func(i, j int) { order[i], order[j] = order[j], order[i] })

		var epochLoss float64
		for batchStart := 0; batchStart < rows; batchStart += batchSize {
			batchEnd := batchStart + batchSize
			if batchEnd > rows {
				batchEnd = rows
			}
			n := batchEnd - batchStart

			for l := 0; l < nLayers; l++ {
				zero(wGrads[l])
				zero(bGrads[l])
			}

			for _, i := range order[batchStart:batchEnd] {
				loss := m.backprop(xDense.RawRowView(i), targets[i], wGrads, bGrads)
				epochLoss += loss
			}

			scale := 1.0 / float64(n)
			for l := 0; l < nLayers; l++ {
				for k := range wGrads[l] {
					wGrads[l][k] = wGrads[l][k]*scale + m.Alpha*m.weights_[l][k]
				}
				for k := range bGrads[l] {
					bGrads[l][k] *= scale
				}
				if m.Solver == "adam" {
					wAdam[l].step(m.weights_[l], wGrads[l], m.LearningRate)
					bAdam[l].step(m.biases_[l], bGrads[l], m.LearningRate)
				} else {
					sgdStep(m.weights_[l], wGrads[l], m.LearningRate)
					sgdStep(m.biases_[l], bGrads[l], m.LearningRate)
				}
			}
		}

		epochLoss /= float64(rows)
		m.lossCurve_ = append(m.lossCurve_, epochLoss)

		if math.IsNaN(epochLoss) || math.IsInf(epochLoss, 0) {
			return errors.Newf("MLPRegressor.Fit: loss diverged at epoch %d; try a smaller learning rate", epoch+1)
		}

		if m.Verbose {
			logger.Info("epoch complete", "epoch", epoch+1, "loss", epochLoss)
		}

		if epochLoss < bestLoss-m.Tol {
			bestLoss = epochLoss
			noImprove = 0
		} else {
			noImprove++
			if noImprove >= m.NIterNoChange {
				converged = true
				if m.Verbose {
					logger.Info("early stopping",
						"epoch", epoch+1,
						"best_loss", bestLoss)
				}
				break
			}
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("MLPRegressor", m.MaxIter,
			"loss was still improving when MaxIter was reached"))
	}

	m.SetFitted()
	return nil
}

// Predict returns predictions for X as an n x 1 matrix.
func (m *MLPRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MLPRegressor", "Predict")
	}

	rows, cols := X.Dims()
	if cols != m.nFeatures_ {
		return nil, errors.NewDimensionError("Predict", m.nFeatures_, cols, 1)
	}

	xDense := denseCopy(X)
	out := mat.NewDense(rows, 1, nil)
	parallel.ParallelizeWithThreshold(rows, 256, func(start, end int) {
		for i := start; i < end; i++ {
			out.Set(i, 0, m.forward(xDense.RawRowView(i)))
		}
	})
	return out, nil
}

// Score returns the coefficient of determination R^2 on X, y.
func (m *MLPRegressor) Score(X, y mat.Matrix) (float64, error) {
	if !m.IsFitted() {
		return 0, errors.NewNotFittedError("MLPRegressor", "Score")
	}
	pred, err := m.Predict(X)
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

// GetParams returns the hyperparameters of the regressor.
func (m *MLPRegressor) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"hidden_layer_sizes": m.HiddenLayerSizes,
		"activation":         m.Activation,
		"solver":             m.Solver,
		"learning_rate":      m.LearningRate,
		"alpha":              m.Alpha,
		"max_iter":           m.MaxIter,
		"batch_size":         m.BatchSize,
		"tol":                m.Tol,
		"n_iter_no_change":   m.NIterNoChange,
		"random_state":       m.RandomState,
	}
}

// initWeights applies Glorot-style uniform initialization scaled by fan-in
// and fan-out.
func (m *MLPRegressor) initWeights(rng *rand.Rand) {
	nLayers := len(m.sizes_) - 1
	m.weights_ = make([][]float64, nLayers)
	m.biases_ = make([][]float64, nLayers)
	for l := 0; l < nLayers; l++ {
		fanIn, fanOut := m.sizes_[l], m.sizes_[l+1]
		bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
		w := make([]float64, fanIn*fanOut)
		for k := range w {
			w[k] = (rng.Float64()*2 - 1) * bound
		}
		m.weights_[l] = w
		m.biases_[l] = make([]float64, fanOut)
	}
}

// forward runs one sample through the network and returns the output.
func (m *MLPRegressor) forward(x []float64) float64 {
	cur := x
	nLayers := len(m.sizes_) - 1
	for l := 0; l < nLayers; l++ {
		fanIn, fanOut := m.sizes_[l], m.sizes_[l+1]
		next := make([]float64, fanOut)
		for j := 0; j < fanOut; j++ {
			sum := m.biases_[l][j]
			for i := 0; i < fanIn; i++ {
				sum += cur[i] * m.weights_[l][i*fanOut+j]
			}
			if l < nLayers-1 {
				sum = m.act_.fn(sum)
			}
			next[j] = sum
		}
		cur = next
	}
	return cur[0]
}

// backprop accumulates gradients for one sample into wGrads/bGrads and
// returns the sample's squared-error loss contribution.
func (m *MLPRegressor) backprop(x []float64, target float64, wGrads, bGrads [][]float64) float64 {
	nLayers := len(m.sizes_) - 1

	// Forward pass keeping every layer's activations.
	acts := make([][]float64, nLayers+1)
	acts[0] = x
	for l := 0; l < nLayers; l++ {
		fanIn, fanOut := m.sizes_[l], m.sizes_[l+1]
		out := make([]float64, fanOut)
		for j := 0; j < fanOut; j++ {
			sum := m.biases_[l][j]
			for i := 0; i < fanIn; i++ {
				sum += acts[l][i] * m.weights_[l][i*fanOut+j]
			}
			if l < nLayers-1 {
				sum = m.act_.fn(sum)
			}
			out[j] = sum
		}
		acts[l+1] = out
	}

	diff := acts[nLayers][0] - target
	loss := 0.5 * diff * diff

	// Backward pass. delta holds dLoss/dPreActivation for the current layer.
	delta := []float64{diff}
	for l := nLayers - 1; l >= 0; l-- {
		fanIn, fanOut := m.sizes_[l], m.sizes_[l+1]
		for j := 0; j < fanOut; j++ {
			bGrads[l][j] += delta[j]
			for i := 0; i < fanIn; i++ {
				wGrads[l][i*fanOut+j] += acts[l][i] * delta[j]
			}
		}
		if l == 0 {
			break
		}
		prevDelta := make([]float64, fanIn)
		for i := 0; i < fanIn; i++ {
			var sum float64
			for j := 0; j < fanOut; j++ {
				sum += m.weights_[l][i*fanOut+j] * delta[j]
			}
			prevDelta[i] = sum * m.act_.deriv(acts[l][i])
		}
		delta = prevDelta
	}
	return loss
}

func zero(s []float64) {
	for i := range s {
		s[i] = 0
	}
}

func denseCopy(X mat.Matrix) *mat.Dense {
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
