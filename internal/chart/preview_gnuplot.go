//go:build gnuplot

package chart

import (
	"fmt"

	"github.com/Arafatk/glot"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// Preview hands the ln I - 1/kT chart of a run to gnuplot. With file set
// the chart is also written there. It needs gnuplot on the PATH.
func Preview(res *irm.Result, file string) error {
	if res.Fit == nil {
		return fmt.Errorf("%s: %w", res.Label, ErrNoPoints)
	}

	dimensions := 2
	persist := file == ""
	debug := false
	p, err := glot.NewPlot(dimensions, persist, debug)
	if err != nil {
		return fmt.Errorf("gnuplot: %w", err)
	}
	defer p.Close()

	p.SetTitle(res.Label)
	p.SetXLabel("1/kT (1/eV)")
	p.SetYLabel("ln(I)")

	if err := p.AddPointGroup("Samples", "points", columns(res.Raw)); err != nil {
		return err
	}
	if err := p.AddPointGroup("Fitted", "circle", columns(res.Fit.Used)); err != nil {
		return err
	}
	fit := [][]float64{make([]float64, len(res.Fit.Line)), make([]float64, len(res.Fit.Line))}
	for i, xy := range res.Fit.Line {
		fit[0][i], fit[1][i] = xy.X, xy.Y
	}
	if err := p.AddPointGroup(fmt.Sprintf("E = %.3f eV", res.Fit.Energy), "lines", fit); err != nil {
		return err
	}

	if file != "" {
		return p.SavePlot(file)
	}
	return nil
}

func columns(pts []irm.Point) [][]float64 {
	xy := pointsLn(pts)
	out := [][]float64{make([]float64, len(xy)), make([]float64, len(xy))}
	for i := range xy {
		out[0][i], out[1][i] = xy[i].X, xy[i].Y
	}
	return out
}
