package inspection

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// buildGrid returns the evaluation points for one feature axis: resolution
// equally spaced values between the lower and upper percentiles of the
// observed column. When the column has fewer distinct values than the
// resolution, the distinct values themselves form the grid. A constant
// column degenerates to a single-point grid.
func buildGrid(col []float64, resolution int, lower, upper float64) []float64 {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)

	unique := uniqueSorted(sorted)
	if len(unique) <= resolution {
		return unique
	}

	lo := stat.Quantile(lower, stat.Empirical, sorted, nil)
	hi := stat.Quantile(upper, stat.Empirical, sorted, nil)
	if lo == hi {
		return []float64{lo}
	}

	grid := make([]float64, resolution)
	step := (hi - lo) / float64(resolution-1)
	for i := range grid {
		grid[i] = lo + float64(i)*step
	}
	return grid
}

// deciles returns the 10th through 90th percentiles of the column.
func deciles(col []float64) []float64 {
	sorted := append([]float64(nil), col...)
	sort.Float64s(sorted)

	ds := make([]float64, 9)
	for i := 1; i <= 9; i++ {
		ds[i-1] = stat.Quantile(float64(i)/10.0, stat.Empirical, sorted, nil)
	}
	return ds
}

func uniqueSorted(sorted []float64) []float64 {
	if len(sorted) == 0 {
		return nil
	}
	unique := sorted[:1]
	for _, v := range sorted[1:] {
		if v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}
	return append([]float64(nil), unique...)
}
