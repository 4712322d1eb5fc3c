package irm

// Result bundles everything computed for one run.
type Result struct {
	Label string
	TMax  float64
	*Selection
	Fit *FitResult
}

// Analyze selects the low intensity part of the run below tMax and fits it.
// The median rows below the threshold drive the sweep geometry, the per
// sample rows drive residual counting and the refinement.
func Analyze(run Run, tMax float64) (*Result, error) {
	sel, err := Select(run.Samples, tMax)
	if err != nil {
		return nil, err
	}
	fit, err := Fit(sel.MedianSelected, sel.Selected)
	if err != nil {
		return nil, err
	}
	return &Result{
		Label:     run.Label,
		TMax:      tMax,
		Selection: sel,
		Fit:       fit,
	}, nil
}
