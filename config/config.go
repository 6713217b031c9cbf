// Package config defines the demo's runtime configuration and its TOML
// loader. Zero values mean "unspecified"; Default() supplies the values
// used when no config file or flag overrides them.
package config

import (
	"os"

	"github.com/gopherml/goinspect/pkg/errors"
	toml "github.com/pelletier/go-toml/v2"
)

// Config holds every knob of the partial dependence demo run.
type Config struct {
	// DataHome is the dataset cache directory. Empty means the platform
	// user cache dir.
	DataHome string `toml:"data_home"`
	// DataFile loads the dataset from a local CSV instead of the network.
	DataFile string `toml:"data_file"`
	// SourceURL overrides the dataset download URL.
	SourceURL string `toml:"source_url"`
	// OutputDir receives the rendered plot files.
	OutputDir string `toml:"output_dir"`

	// TestSize is the held-out fraction for scoring.
	TestSize float64 `toml:"test_size"`
	// Seed drives the train/test split and both model fits.
	Seed int64 `toml:"seed"`

	// GridResolution is the number of partial dependence grid points per
	// axis (0 keeps the per-target defaults).
	GridResolution int `toml:"grid_resolution"`
	// Workers is the goroutine count for grid evaluation (0 = all cores).
	Workers int `toml:"workers"`

	// Features are the single-feature partial dependence targets, by name.
	Features []string `toml:"features"`
	// Pair is the two-feature target rendered as contour and 3D surface.
	Pair []string `toml:"pair"`

	// Azimuth and Elevation control the 3D surface view, in degrees.
	Azimuth   float64 `toml:"azimuth"`
	Elevation float64 `toml:"elevation"`

	Boosting Boosting `toml:"boosting"`
	MLP      MLP      `toml:"mlp"`
}

// Boosting holds the gradient boosting hyperparameters.
type Boosting struct {
	NEstimators    int     `toml:"n_estimators"`
	LearningRate   float64 `toml:"learning_rate"`
	MaxDepth       int     `toml:"max_depth"`
	MinSamplesLeaf int     `toml:"min_samples_leaf"`
	Subsample      float64 `toml:"subsample"`
}

// MLP holds the perceptron hyperparameters.
type MLP struct {
	HiddenLayerSizes []int   `toml:"hidden_layer_sizes"`
	Activation       string  `toml:"activation"`
	Solver           string  `toml:"solver"`
	LearningRate     float64 `toml:"learning_rate"`
	MaxIter          int     `toml:"max_iter"`
}

// Default returns the configuration of the canonical demo run.
func Default() Config {
	return Config{
		OutputDir: "plots",
		TestSize:  0.2,
		Seed:      42,
		Features:  []string{"MedInc", "AveOccup", "HouseAge", "AveRooms"},
		Pair:      []string{"AveOccup", "HouseAge"},
		Azimuth:   -50,
		Elevation: 30,
		Boosting: Boosting{
			NEstimators:    300,
			LearningRate:   0.1,
			MaxDepth:       4,
			MinSamplesLeaf: 20,
			Subsample:      1.0,
		},
		MLP: MLP{
			HiddenLayerSizes: []int{50, 50},
			Activation:       "relu",
			Solver:           "adam",
			LearningRate:     1e-3,
			MaxIter:          150,
		},
	}
}

// Load reads a TOML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, errors.New("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := toml.Unmarshal(b, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// Validate rejects configurations the run cannot honor.
func (c *Config) Validate() error {
	if c.TestSize <= 0 || c.TestSize >= 1 {
		return errors.NewValidationError("test_size", "must be in (0, 1)", c.TestSize)
	}
	if len(c.Features) == 0 && len(c.Pair) == 0 {
		return errors.New("config: no partial dependence targets requested")
	}
	if len(c.Pair) != 0 && len(c.Pair) != 2 {
		return errors.NewValidationError("pair", "must name exactly two features", c.Pair)
	}
	if c.GridResolution < 0 {
		return errors.NewValidationError("grid_resolution", "must not be negative", c.GridResolution)
	}
	return nil
}
