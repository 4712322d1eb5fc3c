package irm

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FitResult is the trap depth estimate of one run.
type FitResult struct {
	// Energy is the trap depth in eV (positive).
	Energy float64
	// StdErr is the standard error of the refined slope. The blind sweep
	// contributes no uncertainty of its own.
	StdErr float64
	// Intercept of the combined line ln I = -Energy/kT + Intercept.
	Intercept float64

	Blind    Line
	Refined  Line
	RSquared float64

	// Used are the points the refinement was run over.
	Used []Point
	// Line samples the combined line at the 1/kT of Used.
	Line []XY
}

// Fit estimates the trap depth. The blind sweep takes its geometry from
// median and counts residuals over samples; the refinement runs over
// samples. A nil samples falls back to median.
func Fit(median, samples []Point) (*FitResult, error) {
	if len(samples) == 0 {
		samples = median
	}

	blind, err := blindFit(median, samples)
	if err != nil {
		return nil, err
	}

	refined, used, r2, stdErr, err := refine(blind, samples)
	if err != nil {
		return nil, err
	}

	combined := Line{
		Slope:     (refined.Slope + blind.Slope) / 2,
		Intercept: (refined.Intercept + blind.Intercept) / 2,
	}

	line := make([]XY, len(used))
	for i, p := range used {
		line[i] = XY{X: p.X, Y: combined.At(p.X)}
	}

	return &FitResult{
		Energy:    -combined.Slope,
		StdErr:    stdErr,
		Intercept: combined.Intercept,
		Blind:     blind,
		Refined:   refined,
		RSquared:  r2,
		Used:      used,
		Line:      line,
	}, nil
}

// refine keeps the points with a positive fitted value that the blind line
// reproduces to within AgreementRatio and runs an ordinary least squares fit
// over them. With two or fewer such points it falls back to every point the
// blind line was evaluated over.
func refine(blind Line, pts []Point) (Line, []Point, float64, float64, error) {
	var agreeing []Point
	for _, p := range pts {
		fitted := blind.At(p.X)
		if fitted > 0 && fitted/p.Y >= AgreementRatio {
			agreeing = append(agreeing, p)
		}
	}

	used := agreeing
	if len(used) <= 2 {
		used = pts
	}
	if len(used) < 2 {
		return Line{}, nil, 0, 0, fmt.Errorf("%w: %d points left for refinement", ErrDegenerateFit, len(used))
	}

	xs := make([]float64, len(used))
	ys := make([]float64, len(used))
	for i, p := range used {
		xs[i] = p.X
		ys[i] = p.Y
	}

	_, sxx := stat.MeanVariance(xs, nil)
	if !(sxx > 0) {
		return Line{}, nil, 0, 0, fmt.Errorf("%w: refinement points share one temperature", ErrDegenerateFit)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	r2 := stat.RSquared(xs, ys, nil, alpha, beta)

	return Line{Slope: beta, Intercept: alpha}, used, r2, slopeStdErr(xs, ys, alpha, beta), nil
}

// slopeStdErr is sqrt(RSS/(n-2) / Σ(x-x̄)²). NaN for two points.
func slopeStdErr(xs, ys []float64, alpha, beta float64) float64 {
	n := len(xs)
	if n < 3 {
		return math.NaN()
	}
	mean := stat.Mean(xs, nil)
	var rss, sxx float64
	for i := range xs {
		r := ys[i] - (alpha + beta*xs[i])
		rss += r * r
		d := xs[i] - mean
		sxx += d * d
	}
	return math.Sqrt(rss / float64(n-2) / sxx)
}
