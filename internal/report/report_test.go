package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/chart"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

func TestNewRow(t *testing.T) {
	res := &irm.Result{
		Label: "T_stop: 60",
		TMax:  120,
		Fit:   &irm.FitResult{Energy: 1, StdErr: 0.05},
	}

	r := NewRow(res, 2)
	assert.Equal(t, "T_stop: 60", r.Label)
	assert.Equal(t, 60.0, r.TStop)
	assert.Equal(t, 120.0, r.TMax)
	assert.InDelta(t, 5.0, r.RelErr, 1e-12)
	assert.Equal(t, Frequency(1, 120, 2), r.Frequency)
}

func TestNewRowWithoutNumericTStop(t *testing.T) {
	res := &irm.Result{Label: "run A", TMax: 90, Fit: &irm.FitResult{Energy: 0.7}}
	assert.True(t, math.IsNaN(NewRow(res, 1).TStop))
}

func TestFrequency(t *testing.T) {
	tm := 120 + irm.CelsiusOffset
	kT := irm.Boltzmann * tm
	want := 2 * 1.1 / (kT * tm) * math.Exp(1.1/kT)

	assert.InEpsilon(t, want, Frequency(1.1, 120, 2), 1e-12)
	assert.InEpsilon(t, 2*Frequency(1.1, 120, 1), Frequency(1.1, 120, 2), 1e-12)
}

func TestRound(t *testing.T) {
	assert.Equal(t, "1.235", Round(1.23456, 3))
	assert.Equal(t, "1.012", Round(1.0125, 3))
	assert.Equal(t, "2", Round(2.5, 0))
	assert.Equal(t, "120", Round(120, 3))
	assert.Equal(t, "nan", Round(math.NaN(), 3))
	assert.Equal(t, "-inf", Round(math.Inf(-1), 3))
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	rows := []Row{{Label: "T_stop: 30", TStop: 30, TMax: 110, Energy: 0.8, StdErr: 0.01, Frequency: 1e12, RelErr: 1.25}}

	require.NoError(t, WriteCSV(path, rows))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(Columns, ","), lines[0])
	assert.Equal(t, "T_stop: 30,30,110,0.8,0.01,1e+12,1.25", lines[1])
}

func TestWriteLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, WriteLog(path, []string{"Data set: a.csv\n", "Heating rate: 1\n"}))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Data set: a.csv\nHeating rate: 1\n", string(b))
}

func TestWritePDF(t *testing.T) {
	dir := t.TempDir()
	_, err := chart.Summary(dir, []float64{30, 60}, []float64{110, 118}, []float64{0.8, 0.85})
	require.NoError(t, err)

	rows := []Row{
		{Label: "T_stop: 30", TStop: 30, TMax: 110, Energy: 0.8, StdErr: 0.01, Frequency: 1e12, RelErr: 1.25},
		{Label: "T_stop: 60", TStop: 60, TMax: 118, Energy: 0.85, StdErr: math.NaN(), Frequency: 2e12, RelErr: math.NaN()},
	}
	path := filepath.Join(dir, "Report.pdf")
	require.NoError(t, WritePDF(path, rows, dir, time.Date(2024, 5, 6, 7, 8, 0, 0, time.UTC)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "%PDF-"))
}
