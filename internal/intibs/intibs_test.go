package intibs

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
)

// header returns n filler lines with the given overrides, separated by the
// odd blank line the instrument leaves around.
func header(n int, set map[int]string) []string {
	var lines []string
	for i := 0; i < n; i++ {
		if v, ok := set[i]; ok {
			lines = append(lines, v)
		} else {
			lines = append(lines, fmt.Sprintf("Field %d;value %d", i, i))
		}
		if i%10 == 0 {
			lines = append(lines, "")
		}
	}
	return lines
}

func pmtFile(seq, irr string, data ...string) string {
	lines := header(pmtDataLine, map[int]string{
		sequenceLine:  "Sequence position;" + seq,
		irradiateLine: "Irradiation;" + irr,
	})
	return strings.Join(append(lines, data...), "\r\n") + "\r\n"
}

func heaterFile(data ...string) string {
	return strings.Join(append(header(heaterDataLine, nil), data...), "\n") + "\n"
}

func settingsFile(tStop string) string {
	lines := header(tStopLine+1, map[int]string{tStopLine: "Stop temperature, " + tStop})
	return strings.Join(lines, "\n") + "\n"
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
	}
}

func TestOrganize(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"0001_Settings.txt":        settingsFile("90"),
		"0003_PMT_measured.txt":    pmtFile("1", "5Gy", "0.1,0,12", "0.2,0,15", "0.3,0,30"),
		"0005_Heater_measured.txt": heaterFile("0.1,25", "0.2,26"),
		"0011_Settings.txt":        settingsFile("60"),
		"0013_PMT_measured.txt":    pmtFile("1", "5Gy", "0.1,0,40"),
		"0015_Heater_measured.txt": heaterFile("0.1,24.5"),
		"notes.txt":                "not an export",
	})

	log, hook := test.NewNullLogger()
	o := &Organizer{Dir: dir, FirstPMT: 3, FirstHeat: 5, Log: log}

	paths, err := o.Organize()
	require.NoError(t, err)

	folder := filepath.Join(dir, "Sequence_position_1", "Irradiation_5Gy")
	assert.Equal(t, []string{filepath.Join(folder, "Data_set.csv")}, paths)
	assert.FileExists(t, filepath.Join(folder, "runs", "90.csv"))
	assert.FileExists(t, filepath.Join(folder, "runs", "60.csv"))

	runs, err := dataset.Read(paths[0])
	require.NoError(t, err)
	require.Len(t, runs, 2)

	assert.Equal(t, "T_stop: 60", runs[0].Label)
	require.Len(t, runs[0].Samples, 1)
	assert.Equal(t, 24.5, runs[0].Samples[0].Temp)
	assert.Equal(t, 40.0, runs[0].Samples[0].Int)

	assert.Equal(t, "T_stop: 90", runs[1].Label)
	require.Len(t, runs[1].Samples, 3)
	assert.Equal(t, 26.0, runs[1].Samples[1].Temp)
	assert.True(t, math.IsNaN(runs[1].Samples[2].Temp))
	assert.Equal(t, 30.0, runs[1].Samples[2].Int)

	for _, e := range hook.AllEntries() {
		assert.NotEqual(t, logrus.WarnLevel, e.Level, e.Message)
	}
}

func TestOrganizeSplitsIrradiations(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"0001_Settings.txt":        settingsFile("30"),
		"0003_PMT_measured.txt":    pmtFile("2", "1Gy", "1,0,5"),
		"0005_Heater_measured.txt": heaterFile("1,20"),
		"0007_Settings.txt":        settingsFile("30"),
		"0009_PMT_measured.txt":    pmtFile("2", "2Gy", "1,0,6"),
		"0011_Heater_measured.txt": heaterFile("1,21"),
	})

	log, _ := test.NewNullLogger()
	o := &Organizer{Dir: dir, FirstPMT: 3, FirstHeat: 5, Log: log}

	paths, err := o.Organize()
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "Sequence_position_2", "Irradiation_1Gy", "Data_set.csv"),
		filepath.Join(dir, "Sequence_position_2", "Irradiation_2Gy", "Data_set.csv"),
	}, paths)
}

func TestReadWarnsOnMissingFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"0003_PMT_measured.txt": pmtFile("1", "5Gy", "0.1,0,12"),
	})

	log, hook := test.NewNullLogger()
	o := &Organizer{Dir: dir, FirstPMT: 3, FirstHeat: 5, Log: log}

	ms, err := o.Read()
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "PMT_0003", ms[0].TStop)
	assert.True(t, math.IsNaN(ms[0].Rows[0].Temperature))

	var warnings int
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warnings++
		}
	}
	assert.Equal(t, 2, warnings)
}

func TestReadDecodesWindows1250(t *testing.T) {
	dir := t.TempDir()
	content, err := charmap.Windows1250.NewEncoder().String(pmtFile("1", "žiarenie 5", "0.1,0,12"))
	require.NoError(t, err)
	writeFiles(t, dir, map[string]string{
		"0001_Settings.txt":        settingsFile("45"),
		"0003_PMT_measured.txt":    content,
		"0005_Heater_measured.txt": heaterFile("0.1,25"),
	})

	enc, err := EncodingByName("windows-1250")
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	o := &Organizer{Dir: dir, FirstPMT: 3, FirstHeat: 5, Encoding: enc, Log: log}

	ms, err := o.Read()
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "žiarenie 5", ms[0].Irradiation)
	assert.Equal(t, "45", ms[0].TStop)
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := (&Organizer{Dir: dir, FirstPMT: 1}).Read()
	assert.ErrorIs(t, err, ErrNoPMT)

	writeFiles(t, dir, map[string]string{
		"0003_PMT_measured.txt": pmtFile("1", "5Gy", "0.1,0,bright"),
	})
	log, _ := test.NewNullLogger()
	_, err = (&Organizer{Dir: dir, FirstPMT: 3, FirstHeat: 5, Log: log}).Read()
	assert.ErrorContains(t, err, "value")

	_, err = (&Organizer{Dir: dir, FirstPMT: 4, Log: log}).Read()
	assert.ErrorContains(t, err, "0004")
}

func TestEncodingByName(t *testing.T) {
	enc, err := EncodingByName("")
	require.NoError(t, err)
	assert.Nil(t, enc)

	_, err = EncodingByName("klingon")
	assert.Error(t, err)
}

func TestMergeKeepsEveryIntensityReading(t *testing.T) {
	rows := Merge(
		[][2]float64{{1, 10}, {2, 20}, {3, 30}},
		[][2]float64{{2, 50}, {2, 51}, {1, 49}, {4, 60}},
	)

	require.Len(t, rows, 4)
	assert.Equal(t, Row{Time: 1, Temperature: 49, Intensity: 10}, rows[0])
	assert.Equal(t, Row{Time: 2, Temperature: 50, Intensity: 20}, rows[1])
	assert.Equal(t, Row{Time: 2, Temperature: 51, Intensity: 20}, rows[2])
	assert.Equal(t, 3.0, rows[3].Time)
	assert.True(t, math.IsNaN(rows[3].Temperature))
}

func TestCombineOrdersByTStop(t *testing.T) {
	runs := Combine([]Measurement{
		{TStop: "PMT_0009"},
		{TStop: "120"},
		{TStop: "35.5", Rows: []Row{{Time: 1, Temperature: 20, Intensity: 3}}},
	})

	require.Len(t, runs, 3)
	assert.Equal(t, "T_stop: 35.5", runs[0].Label)
	assert.Equal(t, 20.0, runs[0].Samples[0].Temp)
	assert.Equal(t, "T_stop: 120", runs[1].Label)
	assert.Equal(t, "T_stop: PMT_0009", runs[2].Label)
}
