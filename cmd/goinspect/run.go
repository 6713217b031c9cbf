package main

import (
	"math"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/gopherml/goinspect/config"
	"github.com/gopherml/goinspect/core/model"
	"github.com/gopherml/goinspect/dataset"
	"github.com/gopherml/goinspect/ensemble"
	"github.com/gopherml/goinspect/inspection"
	"github.com/gopherml/goinspect/neural"
	"github.com/gopherml/goinspect/pkg/errors"
	"github.com/gopherml/goinspect/pkg/log"
	"github.com/gopherml/goinspect/preprocessing"
	"github.com/gopherml/goinspect/visualize"
)

func newRunCmd() *cobra.Command {
	var (
		configPath string
		dataHome   string
		dataFile   string
		outputDir  string
		gridRes    int
		workers    int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fit both models and render partial dependence plots",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				cfg, err = config.Load(configPath)
				if err != nil {
					return err
				}
			}
			if dataHome != "" {
				cfg.DataHome = dataHome
			}
			if dataFile != "" {
				cfg.DataFile = dataFile
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if gridRes > 0 {
				cfg.GridResolution = gridRes
			}
			if workers != 0 {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed = seed
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML config file")
	cmd.Flags().StringVar(&dataHome, "data-home", "", "dataset cache directory")
	cmd.Flags().StringVar(&dataFile, "data-file", "", "load dataset from a local CSV")
	cmd.Flags().StringVarP(&outputDir, "out", "o", "", "output directory for plots")
	cmd.Flags().IntVar(&gridRes, "grid", 0, "grid resolution per axis")
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "workers for grid evaluation (0 = all cores)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed")
	return cmd
}

func run(cfg config.Config) error {
	logger := log.GetLoggerWithName("goinspect.run")

	var dsOpts []dataset.Option
	if cfg.DataHome != "" {
		dsOpts = append(dsOpts, dataset.WithDataHome(cfg.DataHome))
	}
	if cfg.DataFile != "" {
		dsOpts = append(dsOpts, dataset.WithLocalFile(cfg.DataFile))
	}
	if cfg.SourceURL != "" {
		dsOpts = append(dsOpts, dataset.WithSourceURL(cfg.SourceURL))
	}
	ds, err := dataset.CaliforniaHousing(dsOpts...)
	if err != nil {
		return err
	}

	XTrain, XTest, yTrain, yTest, err := dataset.TrainTestSplit(ds.X, ds.Y, cfg.TestSize, cfg.Seed)
	if err != nil {
		return err
	}
	yTrainMat := vecAsColumn(yTrain)
	yTestMat := vecAsColumn(yTest)

	gbr := ensemble.NewGradientBoostingRegressor().
		WithNEstimators(cfg.Boosting.NEstimators).
		WithLearningRate(cfg.Boosting.LearningRate).
		WithMaxDepth(cfg.Boosting.MaxDepth).
		WithMinSamplesLeaf(cfg.Boosting.MinSamplesLeaf).
		WithSubsample(cfg.Boosting.Subsample).
		WithRandomState(cfg.Seed).
		WithVerbose()
	if err := gbr.Fit(XTrain, yTrainMat); err != nil {
		return errors.Wrap(err, "fitting gradient boosting regressor")
	}
	gbrScore, err := gbr.Score(XTest, yTestMat)
	if err != nil {
		return err
	}
	logger.Info("gradient boosting fitted", "test_r2", gbrScore)

	mlp := neural.NewMLPRegressor().
		WithHiddenLayerSizes(cfg.MLP.HiddenLayerSizes...).
		WithActivation(cfg.MLP.Activation).
		WithSolver(cfg.MLP.Solver).
		WithLearningRate(cfg.MLP.LearningRate).
		WithMaxIter(cfg.MLP.MaxIter).
		WithRandomState(cfg.Seed)
	scaled := &scaledRegressor{scaler: preprocessing.NewStandardScaler(), mlp: mlp}
	if err := scaled.Fit(XTrain, yTrainMat); err != nil {
		return errors.Wrap(err, "fitting MLP regressor")
	}
	mlpScore, err := scaled.Score(XTest, yTestMat)
	if err != nil {
		return err
	}
	logger.Info("MLP fitted", "test_r2", mlpScore)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "creating output dir %s", cfg.OutputDir)
	}

	singles := make([]inspection.Target, 0, len(cfg.Features))
	for _, name := range cfg.Features {
		idx := ds.FeatureIndex(name)
		if idx < 0 {
			return errors.NewValidationError("features", "unknown feature name", name)
		}
		singles = append(singles, inspection.Target{idx})
	}

	pdOpts := []inspection.Option{
		inspection.WithWorkers(cfg.Workers),
		inspection.WithFeatureNames(ds.FeatureNames),
	}
	if cfg.GridResolution > 0 {
		pdOpts = append(pdOpts, inspection.WithGridResolution(cfg.GridResolution))
	}

	// A pair-only config has no single-feature panels to render.
	if len(singles) > 0 {
		logger.Info("computing partial dependence", "targets", len(singles), "workers", cfg.Workers)
		gbrResults, err := inspection.Compute(gbr, XTrain, singles, pdOpts...)
		if err != nil {
			return errors.Wrap(err, "partial dependence for gradient boosting")
		}
		mlpResults, err := inspection.Compute(scaled, XTrain, singles, pdOpts...)
		if err != nil {
			return errors.Wrap(err, "partial dependence for MLP")
		}

		// Shared y-limits keep the two models' panels comparable.
		yMin, yMax := sharedRange(gbrResults, mlpResults)

		if err := renderSingles(gbrResults, yMin, yMax, filepath.Join(cfg.OutputDir, "pd_boosting.png")); err != nil {
			return err
		}
		if err := renderSingles(mlpResults, yMin, yMax, filepath.Join(cfg.OutputDir, "pd_mlp.png")); err != nil {
			return err
		}
	}

	if len(cfg.Pair) == 2 {
		i := ds.FeatureIndex(cfg.Pair[0])
		j := ds.FeatureIndex(cfg.Pair[1])
		if i < 0 || j < 0 {
			return errors.NewValidationError("pair", "unknown feature name", cfg.Pair)
		}
		pairResult, err := inspection.PartialDependence(gbr, XTrain, inspection.Target{i, j}, pdOpts...)
		if err != nil {
			return errors.Wrap(err, "partial dependence for feature pair")
		}

		contour, err := visualize.ContourPanel(pairResult)
		if err != nil {
			return err
		}
		contourPath := filepath.Join(cfg.OutputDir, "pd_pair.png")
		if err := contour.Save(6*vg.Inch, 5*vg.Inch, contourPath); err != nil {
			return errors.Wrapf(err, "saving %s", contourPath)
		}

		surface, err := visualize.Surface3D(pairResult, cfg.Azimuth, cfg.Elevation)
		if err != nil {
			return err
		}
		surfacePath := filepath.Join(cfg.OutputDir, "pd_surface.png")
		if err := surface.Save(6*vg.Inch, 6*vg.Inch, surfacePath); err != nil {
			return errors.Wrapf(err, "saving %s", surfacePath)
		}
	}

	logger.Info("done", "output_dir", cfg.OutputDir)
	return nil
}

func renderSingles(results []*inspection.Result, yMin, yMax float64, path string) error {
	plots := make([]*plot.Plot, 0, len(results))
	for _, r := range results {
		p, err := visualize.LinePanel(r)
		if err != nil {
			return err
		}
		visualize.SetYRange(p, yMin, yMax)
		plots = append(plots, p)
	}
	cols := len(plots)
	if cols > 2 {
		cols = 2
	}
	return visualize.SaveGrid(plots, cols, 4*vg.Inch, 3*vg.Inch, path)
}

// sharedRange returns the min and max averaged prediction across both
// models' results, padded slightly so curves do not touch the frame.
func sharedRange(a, b []*inspection.Result) (float64, float64) {
	min, max := math.Inf(1), math.Inf(-1)
	for _, rs := range [][]*inspection.Result{a, b} {
		for _, r := range rs {
			lo, hi := r.MinMax()
			min = math.Min(min, lo)
			max = math.Max(max, hi)
		}
	}
	pad := (max - min) * 0.05
	if pad == 0 {
		pad = 0.1
	}
	return min - pad, max + pad
}

// scaledRegressor standardizes inputs before delegating to the MLP, so
// partial dependence grids stay in original feature units.
type scaledRegressor struct {
	scaler *preprocessing.StandardScaler
	mlp    *neural.MLPRegressor
}

func (s *scaledRegressor) Fit(X, y mat.Matrix) error {
	scaled, err := s.scaler.FitTransform(X)
	if err != nil {
		return err
	}
	return s.mlp.Fit(scaled, y)
}

func (s *scaledRegressor) Predict(X mat.Matrix) (mat.Matrix, error) {
	scaled, err := s.scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return s.mlp.Predict(scaled)
}

func (s *scaledRegressor) Score(X, y mat.Matrix) (float64, error) {
	scaled, err := s.scaler.Transform(X)
	if err != nil {
		return 0, err
	}
	return s.mlp.Score(scaled, y)
}

var _ model.Regressor = (*scaledRegressor)(nil)

func vecAsColumn(v *mat.VecDense) *mat.Dense {
	out := mat.NewDense(v.Len(), 1, nil)
	for i := 0; i < v.Len(); i++ {
		out.Set(i, 0, v.AtVec(i))
	}
	return out
}
