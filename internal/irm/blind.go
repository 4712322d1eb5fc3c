package irm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// candidate is one line tried by the blind sweep. The line is
// ln I = -a·(1/kT) + b and passes through (x1, y2), the hottest 1/kT and the
// largest ln I of the median points.
type candidate struct {
	x2 float64
	a  float64
	b  float64

	inRange int     // evaluated points whose fitted value is above the floor
	within  int     // in-range points with |residual| <= ResidualTolerance
	sumErr  float64 // sum of |residual| over the in-range points
	p       float64 // within / (n-1)
}

func (c candidate) line() Line {
	return Line{Slope: -c.a, Intercept: c.b}
}

// sweep builds the candidate lines. Geometry comes from the median points,
// residuals are counted over eval.
//
// The candidates are returned in sweep order: x2 runs from the 1/kT of the
// hottest median point towards the coldest one, so the lines go from the
// steepest to the shallowest. A candidate with x2 == x1 is skipped.
func sweep(median, eval []Point) []candidate {
	n := len(median)
	if n < 2 {
		return nil
	}

	// Coldest first (largest 1/kT first).
	pts := append([]Point(nil), median...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].X > pts[j].X })

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range pts {
		xs[i] = p.X
		ys[i] = p.Y
	}
	x1 := floats.Min(xs)
	y1 := floats.Min(ys)
	y2 := floats.Max(ys)
	// The in-range floor is ln I of the coldest median point, not the
	// smallest ln I.
	floor := pts[0].Y

	steps := n - 1
	span := linspace(pts[0].X, pts[n-1].X, steps)

	cands := make([]candidate, 0, steps)
	for i := len(span) - 1; i >= 0; i-- {
		x2 := span[i]
		if x2 == x1 {
			continue
		}
		a := math.Abs((y2 - y1) / (x2 - x1))
		c := candidate{x2: x2, a: a, b: y2 + a*x1}

		l := c.line()
		for _, p := range eval {
			fitted := l.At(p.X)
			if !(fitted > floor) {
				continue
			}
			diff := math.Abs(p.Y - fitted)
			c.inRange++
			c.sumErr += diff
			if diff <= ResidualTolerance {
				c.within++
			}
		}
		c.p = float64(c.within) / float64(steps)
		cands = append(cands, c)
	}
	return cands
}

// choose picks the operating candidate.
//
// The p values rise while the candidates get closer to the linear part of the
// data. A drop before the global maximum, right after a candidate with
// p > InflectionFloor, marks the line bending into an L shape; the p of that
// earlier candidate is used instead of the maximum.
func choose(cands []candidate) (candidate, error) {
	if len(cands) < 2 {
		return candidate{}, fmt.Errorf("%w: %d viable sweep candidates", ErrDegenerateFit, len(cands))
	}

	maxIdx := 0
	for i, c := range cands {
		if c.p > cands[maxIdx].p {
			maxIdx = i
		}
	}
	target := cands[maxIdx].p
	for i := 1; i < maxIdx; i++ {
		if cands[i].p < cands[i-1].p && cands[i-1].p > InflectionFloor {
			target = cands[i-1].p
			break
		}
	}

	var ties []candidate
	for _, c := range cands {
		if c.p == target {
			ties = append(ties, c)
		}
	}

	if len(ties) == 1 {
		best := -1
		for i, c := range cands {
			if c.p < target || c.p > target+PWindow {
				continue
			}
			if best < 0 || c.sumErr < cands[best].sumErr {
				best = i
			}
		}
		return cands[best], nil
	}

	best := -1
	for i, c := range ties {
		if !(c.sumErr > 0) {
			continue
		}
		if best < 0 || c.sumErr < ties[best].sumErr {
			best = i
		}
	}
	if best < 0 {
		return ties[0], nil
	}
	return ties[best], nil
}

// blindFit runs the sweep and returns the chosen line.
func blindFit(median, eval []Point) (Line, error) {
	c, err := choose(sweep(median, eval))
	if err != nil {
		return Line{}, err
	}
	return c.line(), nil
}

// linspace mirrors numpy.linspace: n values from start to stop, both ends
// exact, and just start when n is 1.
func linspace(start, stop float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{start}
	}
	dst := floats.Span(make([]float64, n), start, stop)
	dst[n-1] = stop
	return dst
}
