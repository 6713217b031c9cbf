package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopherml/goinspect/config"
	"github.com/gopherml/goinspect/pkg/errors"
)

// writeHousingCSV writes a small raw housing CSV with strictly varying
// columns, so every derived feature has distinct values.
func writeHousingCSV(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("longitude,latitude,housing_median_age,total_rooms,total_bedrooms,population,households,median_income,median_house_value\n")
	for i := 0; i < rows; i++ {
		fmt.Fprintf(&b, "%.2f,%.2f,%d,%d,%d,%d,%d,%.4f,%d\n",
			-122.0-float64(i)*0.01, 37.0+float64(i)*0.01,
			10+i, 1000+10*i, 200+i, 500+5*i, 100+i,
			2.0+0.1*float64(i), 100000+5000*i)
	}
	path := filepath.Join(t.TempDir(), "housing.csv")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPairOnlyConfig(t *testing.T) {
	errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(nil)

	outDir := t.TempDir()
	cfg := config.Default()
	cfg.DataFile = writeHousingCSV(t, 16)
	cfg.OutputDir = outDir
	cfg.Features = nil
	cfg.Pair = []string{"MedInc", "HouseAge"}
	cfg.Boosting.NEstimators = 5
	cfg.Boosting.MinSamplesLeaf = 2
	cfg.MLP.HiddenLayerSizes = []int{4}
	cfg.MLP.MaxIter = 2

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := run(cfg); err != nil {
		t.Fatalf("run() error = %v", err)
	}

	for _, name := range []string{"pd_pair.png", "pd_surface.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err != nil {
			t.Errorf("%s missing: %v", name, err)
		}
	}
	for _, name := range []string{"pd_boosting.png", "pd_mlp.png"} {
		if _, err := os.Stat(filepath.Join(outDir, name)); err == nil {
			t.Errorf("%s written with no single-feature targets", name)
		}
	}
}
