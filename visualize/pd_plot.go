// Package visualize renders partial dependence results with gonum/plot:
// line panels for single features, contour panels for feature pairs, and a
// hand-projected 3D wireframe surface.
package visualize

import (
	"fmt"
	"image/color"
	"os"

	"github.com/gopherml/goinspect/inspection"
	"github.com/gopherml/goinspect/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Panel renders a single partial dependence result as a plot: a line panel
// for one feature, a contour panel for a pair.
func Panel(r *inspection.Result) (*plot.Plot, error) {
	switch len(r.Grids) {
	case 1:
		return LinePanel(r)
	case 2:
		return ContourPanel(r)
	default:
		return nil, errors.NewValidationError("result",
			"must cover one feature or a pair", len(r.Grids))
	}
}

// LinePanel renders a one-feature partial dependence curve with decile rug
// marks along the x-axis.
func LinePanel(r *inspection.Result) (*plot.Plot, error) {
	if len(r.Grids) != 1 {
		return nil, errors.NewValidationError("result",
			"LinePanel requires a single-feature result", len(r.Grids))
	}

	p := plot.New()
	p.X.Label.Text = axisName(r, 0)
	p.Y.Label.Text = "Partial dependence"

	pts := make(plotter.XYs, len(r.Grids[0]))
	for i, g := range r.Grids[0] {
		pts[i].X = g
		pts[i].Y = r.Values[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "building PD line")
	}
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)

	if len(r.Deciles) > 0 && len(r.Deciles[0]) > 0 {
		min, _ := r.MinMax()
		rug := make(plotter.XYs, len(r.Deciles[0]))
		for i, d := range r.Deciles[0] {
			rug[i].X = d
			rug[i].Y = min
		}
		marks, err := plotter.NewScatter(rug)
		if err != nil {
			return nil, errors.Wrap(err, "building decile rug")
		}
		marks.Shape = draw.PlusGlyph{}
		marks.Color = color.RGBA{A: 255}
		marks.Radius = vg.Points(2)
		p.Add(marks)
	}
	return p, nil
}

// ContourPanel renders a two-feature partial dependence surface as a heat
// map with contour lines.
func ContourPanel(r *inspection.Result) (*plot.Plot, error) {
	if len(r.Grids) != 2 {
		return nil, errors.NewValidationError("result",
			"ContourPanel requires a feature-pair result", len(r.Grids))
	}

	p := plot.New()
	p.X.Label.Text = axisName(r, 0)
	p.Y.Label.Text = axisName(r, 1)

	grid := pdGrid{r}
	heat := plotter.NewHeatMap(grid, palette.Heat(16, 1))
	p.Add(heat)

	c := plotter.NewContour(grid, nil, palette.Heat(8, 1))
	p.Add(c)
	return p, nil
}

// SetYRange pins a panel's y-axis, so panels for different models of the
// same features stay comparable.
func SetYRange(p *plot.Plot, min, max float64) {
	p.Y.Min = min
	p.Y.Max = max
}

// SaveGrid lays the plots out left to right in rows of cols panels and
// writes the figure to path as PNG.
func SaveGrid(plots []*plot.Plot, cols int, panelWidth, panelHeight vg.Length, path string) error {
	if len(plots) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "SaveGrid")
	}
	if cols <= 0 {
		cols = len(plots)
	}
	rows := (len(plots) + cols - 1) / cols

	tiled := make([][]*plot.Plot, rows)
	for i := range tiled {
		tiled[i] = make([]*plot.Plot, cols)
		for j := range tiled[i] {
			idx := i*cols + j
			if idx < len(plots) {
				tiled[i][j] = plots[idx]
			}
		}
	}

	img := vgimg.New(panelWidth*vg.Length(cols), panelHeight*vg.Length(rows))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: rows,
		Cols: cols,
		PadX: vg.Points(8),
		PadY: vg.Points(8),
	}
	canvases := plot.Align(tiled, tiles, dc)
	for i := range tiled {
		for j := range tiled[i] {
			if tiled[i][j] != nil {
				tiled[i][j].Draw(canvases[i][j])
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "creating %s", path)
	}
	defer func() { _ = f.Close() }()

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(f); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// axisName prefers the attached feature name and falls back to the index.
func axisName(r *inspection.Result, axis int) string {
	if axis < len(r.Names) && r.Names[axis] != "" {
		return r.Names[axis]
	}
	return fmt.Sprintf("feature %d", r.Features[axis])
}

// pdGrid adapts a feature-pair Result to plotter.GridXYZ.
type pdGrid struct {
	r *inspection.Result
}

func (g pdGrid) Dims() (c, r int) {
	return len(g.r.Grids[0]), len(g.r.Grids[1])
}

func (g pdGrid) Z(c, r int) float64 {
	return g.r.At(c, r)
}

func (g pdGrid) X(c int) float64 {
	return g.r.Grids[0][c]
}

func (g pdGrid) Y(r int) float64 {
	return g.r.Grids[1][r]
}
