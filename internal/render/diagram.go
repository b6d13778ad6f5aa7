// Package render draws linear target-site maps as PNG images.
package render

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"easytargetscan/internal/features"
)

const (
	trackY    = 0.35 // center of the feature track, data coords
	trackHalf = 0.15
	labelY    = 0.62
)

// Diagram writes a linear map of seqLen nucleotides with all feats drawn as
// colored boxes, titled with title, legended with the fixed seed-match
// classes, and saved to pngPath. Overlapping features are drawn as given.
// The plot value is local to this call; nothing is retained between jobs.
func Diagram(seqLen int, feats []features.Feature, title, pngPath string) error {
	if seqLen < 1 {
		seqLen = 1
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "position (nt)"
	p.HideY()

	p.Add(&track{feats: feats, seqLen: seqLen})

	if len(feats) > 0 {
		xys := make(plotter.XYs, len(feats))
		names := make([]string, len(feats))
		for i, f := range feats {
			xys[i] = plotter.XY{X: float64(f.Start+f.End) / 2, Y: labelY}
			names[i] = f.Label
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: xys, Labels: names})
		if err != nil {
			return fmt.Errorf("labels: %w", err)
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].XAlign = text.XCenter
		}
		p.Add(labels)
	}

	for _, mt := range features.MatchTypes {
		c, err := hexColor(features.Color(mt))
		if err != nil {
			return err
		}
		p.Legend.Add(mt, swatch{c: c})
	}
	p.Legend.Top = true

	if err := p.Save(12*vg.Inch, 3*vg.Inch, pngPath); err != nil {
		return fmt.Errorf("save %s: %w", pngPath, err)
	}
	return nil
}

// track renders the features as filled boxes on a single horizontal lane.
type track struct {
	feats  []features.Feature
	seqLen int
}

func (t *track) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)

	// sequence baseline
	base := draw.LineStyle{Color: color.Gray{Y: 0x60}, Width: vg.Points(1)}
	c.StrokeLine2(base, trX(0), trY(trackY), trX(float64(t.seqLen)), trY(trackY))

	edge := draw.LineStyle{Color: color.Black, Width: vg.Points(0.5)}
	for _, f := range t.feats {
		fill, err := hexColor(f.Color)
		if err != nil {
			fill = color.Gray{Y: 0xcc}
		}
		x0, x1 := trX(float64(f.Start)), trX(float64(f.End))
		y0, y1 := trY(trackY-trackHalf), trY(trackY+trackHalf)
		quad := []vg.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
		c.FillPolygon(fill, quad)
		c.StrokeLines(edge, append(quad, vg.Point{X: x0, Y: y0}))
	}
}

func (t *track) DataRange() (xmin, xmax, ymin, ymax float64) {
	return 0, float64(t.seqLen), 0, 1
}

// swatch is a solid legend thumbnail.
type swatch struct {
	c color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.c, []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Min.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Min.X, Y: c.Max.Y},
	})
}

func hexColor(s string) (color.Color, error) {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return nil, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
