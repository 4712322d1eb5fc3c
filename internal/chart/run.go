package chart

import (
	"fmt"

	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// TStop plots the whole glow curve of a run with a dashed marker at T_max.
// It writes <label>_TSTOP.png.
func TStop(dir string, run irm.Run, tMax, iMax float64) (string, error) {
	temps := make([]float64, len(run.Samples))
	ints := make([]float64, len(run.Samples))
	for i, s := range run.Samples {
		temps[i], ints[i] = s.Temp, s.Int
	}
	xy := buildData(temps, ints)
	if len(xy) == 0 {
		return "", fmt.Errorf("%s: %w", run.Label, ErrNoPoints)
	}

	p := prepPlot(run.Label, "Temperature (°C)", "Intensity")
	if err := scatter(p, "Glow curve", xy, 0, vg.Points(1.5)); err != nil {
		return "", err
	}
	marker := plotter.XYs{{X: tMax, Y: 0}, {X: tMax, Y: iMax}}
	if err := line(p, fmt.Sprintf("T_max = %.1f °C", tMax), marker, 1, true); err != nil {
		return "", err
	}

	return savePlot(p, dir, dataset.SafeName(run.Label)+"_TSTOP")
}

// Selection plots the rising edge up to the cutoff: every sample, the
// median curve, the selected samples and the threshold. It writes
// <label>_IRM_TI.png.
func Selection(dir string, res *irm.Result) (string, error) {
	raw := pointsTI(res.Raw, false)
	if len(raw) == 0 {
		return "", fmt.Errorf("%s: %w", res.Label, ErrNoPoints)
	}

	p := prepPlot(res.Label+" initial rise", "Temperature (°C)", "Intensity")
	if err := scatter(p, "Samples", raw, 0, vg.Points(1.5)); err != nil {
		return "", err
	}
	if err := line(p, "Median", pointsTI(res.Median, true), 2, false); err != nil {
		return "", err
	}
	if sel := pointsTI(res.Selected, false); len(sel) > 0 {
		if err := scatter(p, "Selected", sel, 1, vg.Points(2.5)); err != nil {
			return "", err
		}
	}
	threshold := plotter.XYs{{X: raw[0].X, Y: res.Threshold}, {X: res.Cutoff, Y: res.Threshold}}
	for _, xy := range raw {
		threshold[0].X = min(threshold[0].X, xy.X)
	}
	if err := line(p, fmt.Sprintf("Threshold %.4g", res.Threshold), threshold, 3, true); err != nil {
		return "", err
	}

	return savePlot(p, dir, dataset.SafeName(res.Label)+"_IRM_TI")
}

// LnKT plots ln I against 1/kT with the fitted line and the trap depth.
// It writes <label>_IRM_lnkT.png.
func LnKT(dir string, res *irm.Result) (string, error) {
	raw := pointsLn(res.Raw)
	if len(raw) == 0 || res.Fit == nil {
		return "", fmt.Errorf("%s: %w", res.Label, ErrNoPoints)
	}

	p := prepPlot(res.Label+" Arrhenius plot", "1/kT (1/eV)", "ln(I)")
	if err := scatter(p, "Samples", raw, 0, vg.Points(1.5)); err != nil {
		return "", err
	}
	if err := scatter(p, "Fitted", pointsLn(res.Fit.Used), 1, vg.Points(2.5)); err != nil {
		return "", err
	}

	fit := make(plotter.XYs, len(res.Fit.Line))
	for i, xy := range res.Fit.Line {
		fit[i] = plotter.XY{X: xy.X, Y: xy.Y}
	}
	name := fmt.Sprintf("E = %.3f ± %.3f eV", res.Fit.Energy, res.Fit.StdErr)
	if err := line(p, name, fit, 4, false); err != nil {
		return "", err
	}

	return savePlot(p, dir, dataset.SafeName(res.Label)+"_IRM_lnkT")
}

func pointsTI(pts []irm.Point, rounded bool) plotter.XYs {
	temps := make([]float64, len(pts))
	ints := make([]float64, len(pts))
	for i, pt := range pts {
		temps[i], ints[i] = pt.Temp, pt.Int
		if rounded {
			temps[i] = pt.RoundTemp
		}
	}
	return buildData(temps, ints)
}

func pointsLn(pts []irm.Point) plotter.XYs {
	xs := make([]float64, len(pts))
	ys := make([]float64, len(pts))
	for i, pt := range pts {
		xs[i], ys[i] = pt.X, pt.Y
	}
	return buildData(xs, ys)
}
