// Package goinspect trains regression models on the California housing
// dataset and visualizes what they learned through partial dependence plots.
//
// The module is organized into several packages:
//
//   - dataset: California housing download, caching, parsing and splitting
//   - ensemble: gradient boosted regression trees
//   - neural: multi-layer perceptron regressor
//   - inspection: partial dependence computation over one or two features
//   - visualize: line, contour and 3D surface rendering with gonum/plot
//   - preprocessing: feature standardization
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - config: TOML configuration for the demo run
//   - core/model: estimator interfaces and base types
//   - core/parallel: chunked work distribution for grid evaluation
//
// # Quick Start
//
// Fit a model and compute the partial dependence of one feature:
//
//	package main
//
//	import (
//	    "log"
//
//	    "github.com/gopherml/goinspect/dataset"
//	    "github.com/gopherml/goinspect/ensemble"
//	    "github.com/gopherml/goinspect/inspection"
//	)
//
//	func main() {
//	    housing, err := dataset.CaliforniaHousing()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    gbr := ensemble.NewGradientBoostingRegressor()
//	    if err := gbr.Fit(housing.X, housing.YMatrix()); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    medInc := housing.FeatureIndex("MedInc")
//	    pd, err := inspection.PartialDependence(gbr, housing.X, []int{medInc})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = pd
//	}
//
// The cmd/goinspect command runs the full demo: it fits both models,
// computes single-feature and feature-pair partial dependence, and writes
// the plots as PNG files.
package goinspect
