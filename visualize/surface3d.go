package visualize

import (
	"image/color"
	"math"

	"github.com/gopherml/goinspect/inspection"
	"github.com/gopherml/goinspect/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Surface3D renders a feature-pair partial dependence as a wireframe
// surface projected by hand onto the 2D canvas. Azimuth rotates the view
// around the vertical axis and elevation tilts it; both are in degrees.
//
// gonum/plot has no 3D backend, so the projection is done here: grid
// coordinates are normalized to the unit cube, rotated, and drawn as two
// families of polylines (one along each grid axis).
func Surface3D(r *inspection.Result, azimuth, elevation float64) (*plot.Plot, error) {
	if len(r.Grids) != 2 {
		return nil, errors.NewValidationError("result",
			"Surface3D requires a feature-pair result", len(r.Grids))
	}

	nx, ny := len(r.Grids[0]), len(r.Grids[1])
	if nx < 2 || ny < 2 {
		return nil, errors.NewValueError("Surface3D",
			"surface grid must have at least 2 points per axis")
	}

	proj := newProjection(r, azimuth, elevation)

	p := plot.New()
	p.Title.Text = "Partial dependence of " + axisName(r, 0) + " and " + axisName(r, 1)
	p.HideAxes()

	wireColor := color.RGBA{R: 70, G: 70, B: 160, A: 255}

	// Lines of constant y-axis grid index.
	for j := 0; j < ny; j++ {
		pts := make(plotter.XYs, nx)
		for i := 0; i < nx; i++ {
			pts[i].X, pts[i].Y = proj.project(i, j)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrap(err, "building wireframe line")
		}
		line.Color = wireColor
		line.LineStyle.Width = vg.Points(0.5)
		p.Add(line)
	}

	// Lines of constant x-axis grid index.
	for i := 0; i < nx; i++ {
		pts := make(plotter.XYs, ny)
		for j := 0; j < ny; j++ {
			pts[j].X, pts[j].Y = proj.project(i, j)
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, errors.Wrap(err, "building wireframe line")
		}
		line.Color = wireColor
		line.LineStyle.Width = vg.Points(0.5)
		p.Add(line)
	}

	return p, nil
}

// projection precomputes the rotation for one surface.
type projection struct {
	r      *inspection.Result
	sinA   float64
	cosA   float64
	sinE   float64
	cosE   float64
	zMin   float64
	zRange float64
	xRange [2]float64
	yRange [2]float64
}

func newProjection(r *inspection.Result, azimuth, elevation float64) *projection {
	zMin, zMax := r.MinMax()
	zRange := zMax - zMin
	if zRange == 0 {
		zRange = 1
	}
	a := azimuth * math.Pi / 180
	e := elevation * math.Pi / 180
	return &projection{
		r:      r,
		sinA:   math.Sin(a),
		cosA:   math.Cos(a),
		sinE:   math.Sin(e),
		cosE:   math.Cos(e),
		zMin:   zMin,
		zRange: zRange,
		xRange: [2]float64{r.Grids[0][0], r.Grids[0][len(r.Grids[0])-1]},
		yRange: [2]float64{r.Grids[1][0], r.Grids[1][len(r.Grids[1])-1]},
	}
}

// project maps grid indices (i, j) to screen coordinates.
func (p *projection) project(i, j int) (sx, sy float64) {
	// Normalize to [-0.5, 0.5] on every axis.
	x := normalize(p.r.Grids[0][i], p.xRange[0], p.xRange[1]) - 0.5
	y := normalize(p.r.Grids[1][j], p.yRange[0], p.yRange[1]) - 0.5
	z := (p.r.At(i, j)-p.zMin)/p.zRange - 0.5

	// Rotate around the vertical axis, then tilt by the elevation.
	u := x*p.cosA + y*p.sinA
	w := -x*p.sinA + y*p.cosA
	sx = u
	sy = z*p.cosE + w*p.sinE
	return sx, sy
}

func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}
