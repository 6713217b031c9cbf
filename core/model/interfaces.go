package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for trainable estimators.
type Fitter interface {
	// Fit trains the estimator on X (n_samples x n_features) and y
	// (n_samples x 1).
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for estimators that predict on new data.
type Predictor interface {
	// Predict returns predictions for X as an n_samples x 1 matrix.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for estimators that can score themselves.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor combines the interfaces every regression model implements.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Transformer is the interface for feature transformations such as scalers.
type Transformer interface {
	// FitTransform fits on X and returns the transformed X.
	FitTransform(X mat.Matrix) (mat.Matrix, error)
	// Transform applies the fitted transformation to X.
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter is implemented by estimators that expose hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}

// Persistable is implemented by estimators that can be saved and loaded.
type Persistable interface {
	Save(path string) error
	Load(path string) error
}
