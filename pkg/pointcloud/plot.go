package pointcloud

import (
	"image/color"
	"path/filepath"

	"gitlab.com/tozd/go/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// DefaultPlotPoints caps how many points are drawn when no limit is given.
const DefaultPlotPoints = 20000

// topViewXYs projects the cloud onto the XY plane, keeping at most limit points
func topViewXYs(c *Cloud, limit int) plotter.XYs {
	stride := 1
	if n := c.Len(); limit > 0 && n > limit {
		stride = (n + limit - 1) / limit
	}
	xys := make(plotter.XYs, 0, c.Len()/stride+1)
	for i := 0; i < c.Len(); i += stride {
		xys = append(xys, plotter.XY{X: c.Points[i].X, Y: c.Points[i].Y})
	}
	return xys
}

// 🗺️ PlotTopView renders an XY scatter of the cloud to a PNG (or any
// extension gonum/plot understands) at path. Clouds larger than maxPoints
// are evenly subsampled.
func PlotTopView(c *Cloud, title, path string, maxPoints int) error {
	if c.Len() == 0 {
		return ErrEmpty
	}
	if maxPoints <= 0 {
		maxPoints = DefaultPlotPoints
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "X (m)"
	p.Y.Label.Text = "Y (m)"

	scatter, err := plotter.NewScatter(topViewXYs(c, maxPoints))
	if err != nil {
		return errors.Errorf("building scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(0.5)
	scatter.GlyphStyle.Color = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	p.Add(scatter, plotter.NewGrid())

	if err := p.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return errors.Errorf("saving plot %s: %w", filepath.Base(path), err)
	}
	return nil
}
