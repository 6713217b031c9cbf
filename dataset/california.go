// Package dataset loads the regression datasets used by the goinspect demos.
//
// The California housing dataset is fetched over HTTP on first use and
// cached under the data home directory, so repeated runs work offline.
package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gopherml/goinspect/pkg/errors"
	"github.com/gopherml/goinspect/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// DefaultSourceURL is the canonical location of the raw California housing
// CSV (StatLib cal_housing, as redistributed for the scikit-learn loaders).
const DefaultSourceURL = "https://raw.githubusercontent.com/ageron/handson-ml2/master/datasets/housing/housing.csv"

const cacheFileName = "cal_housing.csv"

// CaliforniaFeatureNames lists the derived feature columns in matrix order.
var CaliforniaFeatureNames = []string{
	"MedInc", "HouseAge", "AveRooms", "AveBedrms",
	"Population", "AveOccup", "Latitude", "Longitude",
}

// Dataset is an in-memory regression dataset: a feature matrix, a matching
// target vector, and the names describing both.
type Dataset struct {
	X            *mat.Dense
	Y            *mat.VecDense
	FeatureNames []string
	TargetName   string
}

// NumSamples returns the number of rows in the dataset.
func (d *Dataset) NumSamples() int {
	r, _ := d.X.Dims()
	return r
}

// NumFeatures returns the number of feature columns.
func (d *Dataset) NumFeatures() int {
	_, c := d.X.Dims()
	return c
}

// FeatureIndex returns the column index of the named feature, or -1.
func (d *Dataset) FeatureIndex(name string) int {
	for i, n := range d.FeatureNames {
		if n == name {
			return i
		}
	}
	return -1
}

// YMatrix returns the target as an n-by-1 matrix, the shape estimator Fit
// methods take.
func (d *Dataset) YMatrix() *mat.Dense {
	n := d.Y.Len()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, d.Y.AtVec(i))
	}
	return out
}

// Column returns a copy of feature column j.
func (d *Dataset) Column(j int) []float64 {
	r, _ := d.X.Dims()
	col := make([]float64, r)
	mat.Col(col, j, d.X)
	return col
}

type config struct {
	dataHome  string
	sourceURL string
	localFile string
}

// Option configures dataset loading.
type Option func(*config)

// WithDataHome sets the cache directory. Default is ~/.cache/goinspect.
func WithDataHome(dir string) Option {
	return func(c *config) { c.dataHome = dir }
}

// WithSourceURL overrides the download URL.
func WithSourceURL(url string) Option {
	return func(c *config) { c.sourceURL = url }
}

// WithLocalFile loads from an existing CSV file and skips the network
// entirely.
func WithLocalFile(path string) Option {
	return func(c *config) { c.localFile = path }
}

// CaliforniaHousing loads the California housing dataset: 20,640 samples,
// 8 numeric features, target is the median house value in units of $100,000.
//
// The derived features follow the canonical preparation of the raw census
// block data: AveRooms, AveBedrms and AveOccup are per-household averages.
func CaliforniaHousing(opts ...Option) (*Dataset, error) {
	cfg := config{sourceURL: DefaultSourceURL}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := log.GetLoggerWithName("dataset.california")

	path := cfg.localFile
	if path == "" {
		dataHome, err := resolveDataHome(cfg.dataHome)
		if err != nil {
			return nil, err
		}
		path, err = fetchCached(cfg.sourceURL, dataHome, cacheFileName, logger)
		if err != nil {
			return nil, err
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening dataset file %s", path)
	}
	defer func() { _ = f.Close() }()

	ds, err := parseCaliforniaCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	logger.Info("dataset loaded",
		"samples", ds.NumSamples(),
		"features", ds.NumFeatures(),
		"target", ds.TargetName)
	return ds, nil
}

func resolveDataHome(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	cache, err := os.UserCacheDir()
	if err != nil {
		return "", errors.Wrap(err, "resolving user cache dir")
	}
	return filepath.Join(cache, "goinspect"), nil
}

// parseCaliforniaCSV reads the raw housing CSV and derives the feature
// matrix and target. It accepts the mirrored layout with a header row
// (longitude, latitude, housing_median_age, total_rooms, total_bedrooms,
// population, households, median_income, median_house_value[, ...]) and the
// headerless StatLib layout with the same column order. Rows with missing
// values are skipped.
func parseCaliforniaCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, errors.ErrEmptyData
	}

	// A header row is detected by a non-numeric first field.
	start := 0
	if _, err := strconv.ParseFloat(records[0][0], 64); err != nil {
		start = 1
	}

	var features []float64
	var targets []float64
	rows := 0
	for _, record := range records[start:] {
		if len(record) < 9 {
			return nil, errors.NewValueError("parseCaliforniaCSV",
				"expected at least 9 columns per row")
		}
		vals := make([]float64, 9)
		ok := true
		for i := 0; i < 9; i++ {
			v, err := strconv.ParseFloat(record[i], 64)
			if err != nil {
				// Missing total_bedrooms occurs in the mirrored file.
				ok = false
				break
			}
			vals[i] = v
		}
		if !ok {
			continue
		}

		longitude, latitude := vals[0], vals[1]
		houseAge, totalRooms, totalBedrms := vals[2], vals[3], vals[4]
		population, households := vals[5], vals[6]
		medInc, medHouseVal := vals[7], vals[8]

		if households == 0 {
			continue
		}

		features = append(features,
			medInc,
			houseAge,
			totalRooms/households,
			totalBedrms/households,
			population,
			population/households,
			latitude,
			longitude,
		)
		targets = append(targets, medHouseVal/100000.0)
		rows++
	}

	if rows == 0 {
		return nil, errors.ErrEmptyData
	}

	return &Dataset{
		X:            mat.NewDense(rows, len(CaliforniaFeatureNames), features),
		Y:            mat.NewVecDense(rows, targets),
		FeatureNames: append([]string(nil), CaliforniaFeatureNames...),
		TargetName:   "MedHouseVal",
	}, nil
}
