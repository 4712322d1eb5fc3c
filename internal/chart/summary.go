package chart

import (
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// SummaryName is the file the two panel summary is written to.
const SummaryName = "TmaxTstopEnergy.png"

// Summary draws T_max and E against T_stop as two stacked panels sharing
// the T_stop axis and writes dir/TmaxTstopEnergy.png.
func Summary(dir string, tStop, tMax, energy []float64) (string, error) {
	peaks := buildData(tStop, tMax)
	depths := buildData(tStop, energy)
	if len(peaks) == 0 || len(depths) == 0 {
		return "", fmt.Errorf("summary: %w", ErrNoPoints)
	}

	top := prepPlot("T_max - T_stop", "", "T_max (°C)")
	if err := scatter(top, "T_max", peaks, 0, vg.Points(3)); err != nil {
		return "", err
	}
	if err := line(top, "", peaks, 0, false); err != nil {
		return "", err
	}

	bottom := prepPlot("", "T_stop (°C)", "E (eV)")
	if err := scatter(bottom, "E", depths, 1, vg.Points(3)); err != nil {
		return "", err
	}
	if err := line(bottom, "", depths, 1, false); err != nil {
		return "", err
	}

	bottom.X.Min = min(bottom.X.Min, top.X.Min)
	bottom.X.Max = max(bottom.X.Max, top.X.Max)
	top.X.Min, top.X.Max = bottom.X.Min, bottom.X.Max

	for _, p := range []*plot.Plot{top, bottom} {
		if err := enclose(p); err != nil {
			return "", err
		}
	}

	img := vgimg.New(Width, 2*Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 1,
		PadX: vg.Millimeter,
		PadY: 4 * vg.Millimeter,
	}
	canvases := plot.Align([][]*plot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, SummaryName)
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return path, f.Close()
}
