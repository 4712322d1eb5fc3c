// Package peak finds T_max, the temperature of highest intensity of a glow
// curve.
package peak

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/maorshutman/lm"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// ErrNoPeak is returned when no sample has a finite temperature and intensity.
var ErrNoPeak = errors.New("no finite samples to find a peak in")

// Find averages the intensity per rounded temperature and returns the
// temperature and intensity of the highest average. Ties go to the colder
// temperature.
func Find(samples []irm.Sample) (float64, float64, error) {
	sums := map[float64]float64{}
	counts := map[float64]int{}
	for _, s := range samples {
		if math.IsNaN(s.Temp) || math.IsNaN(s.Int) {
			continue
		}
		t := irm.RoundTemp(s.Temp)
		sums[t] += s.Int
		counts[t]++
	}
	if len(sums) == 0 {
		return 0, 0, ErrNoPeak
	}

	temps := make([]float64, 0, len(sums))
	for t := range sums {
		temps = append(temps, t)
	}
	sort.Float64s(temps)

	tMax, iMax := temps[0], sums[temps[0]]/float64(counts[temps[0]])
	for _, t := range temps[1:] {
		if mean := sums[t] / float64(counts[t]); mean > iMax {
			tMax, iMax = t, mean
		}
	}
	return tMax, iMax, nil
}

// Gaussian is A·exp(-(T-T0)²/(2σ²)) + C.
func Gaussian(t, amp, t0, sigma, c float64) float64 {
	return amp*math.Exp(-math.Pow(t-t0, 2)/(2*math.Pow(sigma, 2))) + c
}

// Refine fits a Gaussian to the samples within ±halfWidth of the coarse
// peak and returns its centre. The coarse value is returned when there are
// too few samples or the centre leaves the window.
func Refine(samples []irm.Sample, tMax, halfWidth float64) (refined float64, err error) {
	var temps, ints []float64
	for _, s := range samples {
		if math.IsNaN(s.Temp) || math.IsNaN(s.Int) {
			continue
		}
		if math.Abs(s.Temp-tMax) <= halfWidth {
			temps = append(temps, s.Temp)
			ints = append(ints, s.Int)
		}
	}
	if len(temps) < 5 {
		return tMax, nil
	}

	lo, hi := ints[0], ints[0]
	for _, v := range ints {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	f := func(dst, params []float64) {
		amp, t0, sigma, c := params[0], params[1], params[2], params[3]
		for i := range temps {
			dst[i] = Gaussian(temps[i], amp, t0, sigma, c) - ints[i]
		}
	}

	jacobian := lm.NumJac{Func: f}

	toBeSolved := lm.LMProblem{
		Dim:        4,
		Size:       len(temps),
		Func:       f,
		Jac:        jacobian.Jac,
		InitParams: []float64{hi - lo, tMax, halfWidth / 2, lo},
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	// lm panics on a singular normal matrix.
	defer func() {
		if r := recover(); r != nil {
			refined, err = tMax, fmt.Errorf("peak refinement around %.1f: %v", tMax, r)
		}
	}()

	results, err := lm.LM(toBeSolved, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-16})
	if err != nil {
		return tMax, fmt.Errorf("peak refinement around %.1f: %w", tMax, err)
	}

	t0 := results.X[1]
	if math.IsNaN(t0) || math.Abs(t0-tMax) > halfWidth {
		return tMax, nil
	}
	return t0, nil
}
