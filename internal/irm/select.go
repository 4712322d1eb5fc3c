package irm

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Selection holds the tables derived from one run below its cutoff.
type Selection struct {
	Cutoff    float64
	Threshold float64

	// Raw are the deduplicated samples at or below the cutoff with
	// intensity > 1, in input order.
	Raw []Point

	// Median has one point per rounded temperature, ascending.
	Median []Point

	// Selected are the Raw points with intensity <= Threshold, ascending by
	// rounded temperature.
	Selected []Point

	// MedianSelected are the Median points with intensity <= Threshold.
	MedianSelected []Point
}

// Select deduplicates the run, drops everything above cutoff and builds the
// median curve and the low intensity subset used by Fit.
func Select(samples []Sample, cutoff float64) (*Selection, error) {
	samples = dedupe(samples)

	minTemp := math.Inf(1)
	for _, s := range samples {
		if !math.IsNaN(s.Temp) && s.Temp < minTemp {
			minTemp = s.Temp
		}
	}
	if math.IsInf(minTemp, 1) {
		return nil, fmt.Errorf("%w: run has no temperatures", ErrEmptyDataset)
	}
	if !(cutoff > minTemp) {
		return nil, fmt.Errorf("%w: cutoff %.2f, minimum %.2f", ErrInvalidCutoff, cutoff, minTemp)
	}

	var raw []Point
	for _, s := range samples {
		// NaN fails both comparisons and is dropped here.
		if !(s.Temp <= cutoff) || !(s.Int > 1) {
			continue
		}
		raw = append(raw, transform(s))
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: nothing with intensity > 1 at or below %.2f", ErrEmptyDataset, cutoff)
	}

	median := medianCurve(raw)

	ints := make([]float64, len(median))
	for i, p := range median {
		ints[i] = p.Int
	}
	iMin, iMax := floats.Min(ints), floats.Max(ints)
	threshold := (iMax-iMin)*ThresholdFraction + iMin

	var selected []Point
	for _, p := range raw {
		if p.Int <= threshold {
			selected = append(selected, p)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].RoundTemp < selected[j].RoundTemp
	})

	var medianSelected []Point
	for _, p := range median {
		if p.Int <= threshold {
			medianSelected = append(medianSelected, p)
		}
	}

	return &Selection{
		Cutoff:         cutoff,
		Threshold:      threshold,
		Raw:            raw,
		Median:         median,
		Selected:       selected,
		MedianSelected: medianSelected,
	}, nil
}

// dedupe drops exact repeats, keeping the first occurrence.
func dedupe(samples []Sample) []Sample {
	seen := make(map[Sample]struct{}, len(samples))
	out := make([]Sample, 0, len(samples))
	for _, s := range samples {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func medianCurve(raw []Point) []Point {
	groups := map[float64][]float64{}
	for _, p := range raw {
		groups[p.RoundTemp] = append(groups[p.RoundTemp], p.Int)
	}

	temps := make([]float64, 0, len(groups))
	for t := range groups {
		temps = append(temps, t)
	}
	sort.Float64s(temps)

	curve := make([]Point, len(temps))
	for i, t := range temps {
		m := median(groups[t])
		curve[i] = Point{
			Temp:      t,
			RoundTemp: t,
			Int:       m,
			X:         InverseKT(t),
			Y:         math.Log(m),
		}
	}
	return curve
}

// median averages the two middle values for even counts.
func median(values []float64) float64 {
	v := append([]float64(nil), values...)
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}
