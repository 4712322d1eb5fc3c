package chart

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

func analyzed(t *testing.T) (irm.Run, *irm.Result) {
	t.Helper()
	var samples []irm.Sample
	for temp := 20.0; temp <= 100; temp++ {
		samples = append(samples, irm.Sample{Temp: temp, Int: math.Exp(31 - 0.8*irm.InverseKT(temp))})
	}
	samples = append(samples, irm.Sample{Temp: math.NaN(), Int: 5})
	run := irm.Run{Label: "T_stop: 30", Samples: samples}

	res, err := irm.Analyze(run, 100)
	require.NoError(t, err)
	return run, res
}

func TestRunCharts(t *testing.T) {
	dir := t.TempDir()
	run, res := analyzed(t)

	path, err := TStop(dir, run, 100, run.Samples[80].Int)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "T_stop__30_TSTOP.png"), path)
	assert.FileExists(t, path)

	path, err = Selection(dir, res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "T_stop__30_IRM_TI.png"), path)
	assert.FileExists(t, path)

	path, err = LnKT(dir, res)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "T_stop__30_IRM_lnkT.png"), path)
	assert.FileExists(t, path)
}

func TestTStopWithoutFiniteSamples(t *testing.T) {
	run := irm.Run{Label: "empty", Samples: []irm.Sample{{Temp: math.NaN(), Int: 3}}}
	_, err := TStop(t.TempDir(), run, 0, 0)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestSummary(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "Charts")

	path, err := Summary(dir,
		[]float64{30, 60, math.NaN(), 90},
		[]float64{110, 118, 120, 131},
		[]float64{0.81, 0.86, 0.9, 0.95},
	)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, SummaryName), path)
	assert.FileExists(t, path)

	_, err = Summary(dir, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoPoints)
}

func TestBuildDataDropsNonFinite(t *testing.T) {
	xy := buildData([]float64{1, math.NaN(), 3, 4}, []float64{1, 2, math.Inf(1), 4})
	require.Len(t, xy, 2)
	assert.Equal(t, 4.0, xy[1].X)
}

func TestPaletteWraps(t *testing.T) {
	assert.Equal(t, palette(0), palette(6))
	assert.NotEqual(t, palette(0), palette(1))
}
