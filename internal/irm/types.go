// Package irm implements the Initial Rise Method: selection of the
// low-intensity part of a thermoluminescence glow curve and the two stage
// line fit that turns it into a trap depth (activation energy, eV).
package irm

import (
	"errors"
	"math"
)

// Boltzmann is the Boltzmann constant in eV/K.
const Boltzmann = 8.617333262145e-5

// CelsiusOffset converts °C to K.
const CelsiusOffset = 273.15

// Policy constants of the method. They are fixed, not configuration.
const (
	// ThresholdFraction of the median intensity range (above its minimum)
	// below which samples are assumed to follow the initial rise law.
	ThresholdFraction = 0.15

	// ResidualTolerance is the largest |ln I - fitted| a point may have to
	// count as lying on a blind sweep candidate.
	ResidualTolerance = 0.1

	// InflectionFloor is the smallest p a candidate needs before a drop after
	// it is treated as the L-shape inflection.
	InflectionFloor = 0.05

	// PWindow widens the accepted p range when a single candidate holds the
	// chosen p.
	PWindow = 0.05

	// AgreementRatio is the minimum fitted/actual ln I ratio for a point to be
	// kept for the refinement.
	AgreementRatio = 0.9
)

var (
	// ErrInvalidCutoff is returned when the cutoff temperature is not above
	// the lowest temperature of the run.
	ErrInvalidCutoff = errors.New("cutoff temperature not above minimum temperature")

	// ErrEmptyDataset is returned when no sample with intensity > 1 is left
	// after cutoff filtering.
	ErrEmptyDataset = errors.New("no usable samples")

	// ErrDegenerateFit is returned when the sweep or the refinement cannot
	// produce a regression over at least two points.
	ErrDegenerateFit = errors.New("degenerate fit")
)

// Sample is one (temperature °C, intensity) reading.
type Sample struct {
	Temp float64
	Int  float64
}

// Run is one measurement run, labelled by its T_stop.
type Run struct {
	Label   string
	Samples []Sample
}

// Point is a sample carried into the transformed space.
// X is 1/kT (1/eV), Y is ln(I).
type Point struct {
	Temp      float64
	RoundTemp float64
	Int       float64
	X         float64
	Y         float64
}

// XY is a plain point on a fitted line.
type XY struct {
	X, Y float64
}

// Line is y = Slope*x + Intercept.
type Line struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// InverseKT returns 1/(k·T) for a temperature in °C.
func InverseKT(temp float64) float64 {
	return 1 / ((temp + CelsiusOffset) * Boltzmann)
}

// RoundTemp rounds a temperature to the whole degree it is grouped under,
// half to even.
func RoundTemp(temp float64) float64 {
	return math.RoundToEven(temp)
}

func transform(s Sample) Point {
	return Point{
		Temp:      s.Temp,
		RoundTemp: RoundTemp(s.Temp),
		Int:       s.Int,
		X:         InverseKT(s.Temp),
		Y:         math.Log(s.Int),
	}
}
