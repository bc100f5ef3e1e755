package render

import (
	"fmt"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/banshee-data/odour.report/internal/odour"
)

// Default PNG size, matching a 10x6 inch figure.
const (
	MapWidth  = 10 * vg.Inch
	MapHeight = 6 * vg.Inch
)

// NewMapPlot builds the scatter map: one series per populated group.
func NewMapPlot(res *odour.Result) (*plot.Plot, error) {
	series, err := res.Series()
	if err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = MapTitle
	p.X.Label.Text = XAxisLabel
	p.Y.Label.Text = YAxisLabel
	p.Add(plotter.NewGrid())

	for _, s := range series {
		pts := make(plotter.XYs, len(s.Points))
		for i, pt := range s.Points {
			pts[i] = plotter.XY{X: pt.Lon, Y: pt.Lat}
		}

		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", s.Group, err)
		}
		sc.GlyphStyle.Color = s.Color.RGBA
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(4)

		p.Add(sc)
		p.Legend.Add(s.Label, sc)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p, nil
}

// MapPNG writes the scatter map as a PNG image.
func MapPNG(w io.Writer, res *odour.Result) error {
	p, err := NewMapPlot(res)
	if err != nil {
		return err
	}

	wt, err := p.WriterTo(MapWidth, MapHeight, "png")
	if err != nil {
		return fmt.Errorf("encode map: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write map: %w", err)
	}
	return nil
}
