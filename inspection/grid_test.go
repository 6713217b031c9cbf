package inspection

import (
	"math"
	"testing"
)

func TestBuildGridUsesUniqueValuesWhenFew(t *testing.T) {
	col := []float64{3, 1, 2, 2, 1, 3}
	grid := buildGrid(col, 20, 0.05, 0.95)
	want := []float64{1, 2, 3}
	if len(grid) != len(want) {
		t.Fatalf("grid length = %d, want %d", len(grid), len(want))
	}
	for i := range want {
		if grid[i] != want[i] {
			t.Errorf("grid[%d] = %v, want %v", i, grid[i], want[i])
		}
	}
}

func TestBuildGridEquallySpaced(t *testing.T) {
	col := make([]float64, 1000)
	for i := range col {
		col[i] = float64(i)
	}
	grid := buildGrid(col, 10, 0, 1)
	if len(grid) != 10 {
		t.Fatalf("grid length = %d, want 10", len(grid))
	}
	step := grid[1] - grid[0]
	for i := 1; i < len(grid); i++ {
		if math.Abs((grid[i]-grid[i-1])-step) > 1e-9 {
			t.Errorf("grid spacing is not uniform at index %d", i)
		}
	}
	if grid[0] != 0 || grid[len(grid)-1] != 999 {
		t.Errorf("grid bounds = [%v, %v], want [0, 999]", grid[0], grid[len(grid)-1])
	}
}

func TestBuildGridClipsPercentiles(t *testing.T) {
	// One extreme outlier should not stretch the grid when clipping at the
	// 95th percentile.
	col := make([]float64, 100)
	for i := range col {
		col[i] = float64(i)
	}
	col[99] = 1e6

	grid := buildGrid(col, 10, 0.05, 0.95)
	if grid[len(grid)-1] >= 1e6 {
		t.Errorf("grid upper bound %v was not clipped below the outlier", grid[len(grid)-1])
	}
}

func TestDeciles(t *testing.T) {
	col := make([]float64, 100)
	for i := range col {
		col[i] = float64(i + 1)
	}
	ds := deciles(col)
	if len(ds) != 9 {
		t.Fatalf("deciles length = %d, want 9", len(ds))
	}
	for i := 1; i < len(ds); i++ {
		if ds[i] <= ds[i-1] {
			t.Errorf("deciles are not strictly increasing: %v", ds)
		}
	}
}
