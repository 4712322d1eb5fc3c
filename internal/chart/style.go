// Package chart draws the per-run and summary figures of an analysis with
// gonum/plot.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var ErrNoPoints = errors.New("nothing to plot")

// Size of every saved figure.
var (
	Width  = 8 * vg.Inch
	Height = 6 * vg.Inch
)

func prepPlot(title, xlabel, ylabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Variant = "Sans"
	p.Title.TextStyle.Font.Size = 16
	p.Title.Padding = font.Length(10)

	p.X.Label.Text = xlabel
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.Label.TextStyle.Font.Size = 13
	p.X.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.Label.Font.Variant = "Sans"
	p.X.Tick.Label.Font.Size = 11

	p.Y.Label.Text = ylabel
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.Label.TextStyle.Font.Size = 13
	p.Y.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.Label.Font.Variant = "Sans"
	p.Y.Tick.Label.Font.Size = 11

	p.Legend.TextStyle.Font.Variant = "Sans"
	p.Legend.TextStyle.Font.Size = 11
	p.Legend.Top = true
	p.Legend.Padding = vg.Points(4)
	p.Legend.ThumbnailWidth = vg.Points(25)

	return p
}

// enclose draws the top and right borders once the axis ranges are known.
func enclose(p *plot.Plot) error {
	top, err := plotter.NewLine(plotter.XYs{{X: p.X.Min, Y: p.Y.Max}, {X: p.X.Max, Y: p.Y.Max}})
	if err != nil {
		return err
	}
	top.LineStyle.Width = vg.Points(1.5)

	right, err := plotter.NewLine(plotter.XYs{{X: p.X.Max, Y: p.Y.Min}, {X: p.X.Max, Y: p.Y.Max}})
	if err != nil {
		return err
	}
	right.LineStyle.Width = vg.Points(1.5)

	p.Add(top, right)
	return nil
}

func palette(brush int) color.RGBA {
	col := []color.RGBA{
		{R: 99, G: 124, B: 198, A: 255},
		{R: 201, G: 104, B: 146, A: 255},
		{R: 27, G: 170, B: 139, A: 255},
		{R: 194, G: 140, B: 86, A: 255},
		{R: 140, G: 46, B: 49, A: 255},
		{R: 22, G: 44, B: 91, A: 255},
	}
	return col[brush%len(col)]
}

// buildData drops pairs that are not finite, which plotter rejects.
func buildData(xs, ys []float64) plotter.XYs {
	xy := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if !finite(xs[i]) || !finite(ys[i]) {
			continue
		}
		xy = append(xy, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return xy
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func scatter(p *plot.Plot, name string, xy plotter.XYs, brush int, radius vg.Length) error {
	s, err := plotter.NewScatter(xy)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	s.GlyphStyle.Color = palette(brush)
	s.GlyphStyle.Radius = radius
	s.GlyphStyle.Shape = draw.CircleGlyph{}

	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}

func line(p *plot.Plot, name string, xy plotter.XYs, brush int, dashed bool) error {
	l, err := plotter.NewLine(xy)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	l.LineStyle.Color = palette(brush)
	l.LineStyle.Width = vg.Points(2)
	if dashed {
		l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
	}

	p.Add(l)
	if name != "" {
		p.Legend.Add(name, l)
	}
	return nil
}

// savePlot writes p to dir/name.png and returns the path.
func savePlot(p *plot.Plot, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	if err := enclose(p); err != nil {
		return "", err
	}

	path := filepath.Join(dir, name+".png")
	if err := p.Save(Width, Height, path); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return path, nil
}
