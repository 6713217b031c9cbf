package dataset

import (
	"math/rand"

	"github.com/gopherml/goinspect/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// TrainTestSplit shuffles the rows of X and y with the given seed and splits
// them into train and test sets. testSize is the fraction of rows assigned
// to the test set and must be in (0, 1).
func TrainTestSplit(X mat.Matrix, y *mat.VecDense, testSize float64, seed int64) (XTrain, XTest *mat.Dense, yTrain, yTest *mat.VecDense, err error) {
	r, c := X.Dims()
	if r == 0 {
		return nil, nil, nil, nil, errors.Wrap(errors.ErrEmptyData, "TrainTestSplit")
	}
	if y.Len() != r {
		return nil, nil, nil, nil, errors.NewDimensionError("TrainTestSplit", r, y.Len(), 0)
	}
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, nil, nil, errors.NewValidationError("testSize", "must be in (0, 1)", testSize)
	}

	nTest := int(float64(r) * testSize)
	if nTest == 0 {
		nTest = 1
	}
	nTrain := r - nTest
	if nTrain == 0 {
		return nil, nil, nil, nil, errors.NewValueError("TrainTestSplit",
			"too few rows to leave a training set")
	}

	rng := rand.New(rand.NewSource(seed))
	perm := rng.Perm(r)

	XTrain = mat.NewDense(nTrain, c, nil)
	XTest = mat.NewDense(nTest, c, nil)
	yTrain = mat.NewVecDense(nTrain, nil)
	yTest = mat.NewVecDense(nTest, nil)

	for i, idx := range perm {
		if i < nTest {
			for j := 0; j < c; j++ {
				XTest.Set(i, j, X.At(idx, j))
			}
			yTest.SetVec(i, y.AtVec(idx))
		} else {
			for j := 0; j < c; j++ {
				XTrain.Set(i-nTest, j, X.At(idx, j))
			}
			yTrain.SetVec(i-nTest, y.AtVec(idx))
		}
	}
	return XTrain, XTest, yTrain, yTest, nil
}
