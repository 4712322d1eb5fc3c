//go:build !gnuplot

package chart

import (
	"errors"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// ErrNoGnuplot is returned by Preview in builds without the gnuplot tag.
var ErrNoGnuplot = errors.New("gnuplot preview not built in, rebuild with -tags gnuplot")

// Preview is only available in builds with the gnuplot tag. glot needs
// gnuplot on the PATH as soon as it is linked.
func Preview(res *irm.Result, file string) error {
	return ErrNoGnuplot
}
