// Package intibs turns a folder of raw INTiBS exports into per-run tables
// and one combined data set per irradiation condition.
//
// Every measurement step writes a file named NNNN_<kind>... . A run is a
// PMT_measured file (time, intensity), the Heater_measured file a fixed
// number of steps later (time, temperature) and the file two steps before
// the PMT file, which holds the T_stop of the run.
package intibs

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// Line positions inside the exports, counted over non-blank lines from 0.
const (
	sequenceLine   = 15
	irradiateLine  = 28
	pmtDataLine    = 44
	heaterDataLine = 41
	tStopLine      = 38

	tStopOffset = 2
)

// ErrNoPMT is returned when a folder holds no PMT_measured export.
var ErrNoPMT = errors.New("no PMT_measured files")

// Row is one merged reading of a run.
type Row struct {
	Time        float64
	Temperature float64
	Intensity   float64
}

// Measurement is one merged run.
type Measurement struct {
	PMT         int
	Sequence    string
	Irradiation string
	TStop       string
	Rows        []Row
}

// Label is the run label used in the combined data set.
func (m Measurement) Label() string {
	return "T_stop: " + m.TStop
}

// Organizer splits a raw folder.
type Organizer struct {
	Dir       string
	FirstPMT  int
	FirstHeat int
	// Encoding of the exports, nil for UTF-8.
	Encoding encoding.Encoding
	Log      logrus.FieldLogger
}

// EncodingByName resolves an encoding label such as "windows-1250". The
// empty label means UTF-8 and returns nil.
func EncodingByName(name string) (encoding.Encoding, error) {
	if name == "" {
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// Organize reads every run, writes it to
// Sequence_position_<seq>/Irradiation_<irr>/runs/<T_stop>.csv and writes one
// Data_set.csv per irradiation folder. It returns the data set paths in the
// order the folders were first seen.
func (o *Organizer) Organize() ([]string, error) {
	measurements, err := o.Read()
	if err != nil {
		return nil, err
	}

	var folders []string
	grouped := map[string][]Measurement{}
	for _, m := range measurements {
		folder := filepath.Join(o.Dir, "Sequence_position_"+m.Sequence, "Irradiation_"+m.Irradiation)
		if _, ok := grouped[folder]; !ok {
			folders = append(folders, folder)
		}
		grouped[folder] = append(grouped[folder], m)

		runDir := filepath.Join(folder, "runs")
		if err := os.MkdirAll(runDir, 0755); err != nil {
			return nil, err
		}
		path := filepath.Join(runDir, dataset.SafeName(m.TStop)+".csv")
		if err := writeRows(path, m.Rows); err != nil {
			return nil, err
		}
		o.logger().Debugf("PMT %04d -> %s (%d rows)", m.PMT, path, len(m.Rows))
	}

	var combined []string
	for _, folder := range folders {
		path := filepath.Join(folder, "Data_set.csv")
		if err := dataset.Write(path, Combine(grouped[folder])); err != nil {
			return nil, err
		}
		o.logger().Infof("Wrote %s", path)
		combined = append(combined, path)
	}
	return combined, nil
}

// Read parses and merges every run in the folder, in PMT order.
func (o *Organizer) Read() ([]Measurement, error) {
	files, err := listFiles(o.Dir)
	if err != nil {
		return nil, err
	}

	var pmts []int
	for n, name := range files {
		if isPMT(name) {
			pmts = append(pmts, n)
		}
	}
	if len(pmts) == 0 {
		return nil, fmt.Errorf("%s: %w", o.Dir, ErrNoPMT)
	}
	sort.Ints(pmts)

	step := 0
	if len(pmts) > 1 {
		step = pmts[1] - pmts[0]
	}
	heatOffset := o.FirstHeat - o.FirstPMT

	var out []Measurement
	for n := o.FirstPMT; ; n += step {
		name, ok := files[n]
		if !ok {
			break
		}
		m, err := o.readRun(files, n, name, heatOffset)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
		if step <= 0 {
			break
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s: no file numbered %04d", o.Dir, o.FirstPMT)
	}
	return out, nil
}

func (o *Organizer) readRun(files map[int]string, n int, name string, heatOffset int) (Measurement, error) {
	lines, err := o.readLines(name)
	if err != nil {
		return Measurement{}, err
	}
	if len(lines) <= pmtDataLine {
		return Measurement{}, fmt.Errorf("%s: only %d lines", name, len(lines))
	}

	m := Measurement{
		PMT:         n,
		Sequence:    lastField(lines[sequenceLine], ";"),
		Irradiation: lastField(lines[irradiateLine], ";"),
	}

	intensity, err := parsePairs(name, lines, pmtDataLine)
	if err != nil {
		return Measurement{}, err
	}

	var temperature [][2]float64
	if heater, ok := files[n+heatOffset]; ok {
		hl, err := o.readLines(heater)
		if err != nil {
			return Measurement{}, err
		}
		if temperature, err = parsePairs(heater, hl, heaterDataLine); err != nil {
			return Measurement{}, err
		}
	} else {
		o.logger().Warnf("PMT %04d: no heater file %04d, temperatures left empty", n, n+heatOffset)
	}

	if pre, ok := files[n-tStopOffset]; ok {
		pl, err := o.readLines(pre)
		if err != nil {
			return Measurement{}, err
		}
		if len(pl) > tStopLine {
			m.TStop = lastField(pl[tStopLine], ",")
		}
	}
	if m.TStop == "" {
		m.TStop = fmt.Sprintf("PMT_%04d", n)
		o.logger().Warnf("PMT %04d: no T_stop found, labelling run %s", n, m.TStop)
	}

	m.Rows = Merge(intensity, temperature)
	return m, nil
}

// Merge joins temperature readings onto intensity readings by exact time.
// Every intensity reading is kept, in order; one without a temperature at
// its time gets NaN, one with several gets a row per match.
func Merge(intensity, temperature [][2]float64) []Row {
	byTime := map[float64][]float64{}
	for _, tt := range temperature {
		byTime[tt[0]] = append(byTime[tt[0]], tt[1])
	}

	rows := make([]Row, 0, len(intensity))
	for _, ti := range intensity {
		temps, ok := byTime[ti[0]]
		if !ok {
			rows = append(rows, Row{Time: ti[0], Temperature: math.NaN(), Intensity: ti[1]})
			continue
		}
		for _, temp := range temps {
			rows = append(rows, Row{Time: ti[0], Temperature: temp, Intensity: ti[1]})
		}
	}
	return rows
}

// Combine orders measurements by numeric T_stop (unparsable last) and turns
// them into runs.
func Combine(ms []Measurement) []irm.Run {
	sorted := append([]Measurement(nil), ms...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, okA := dataset.ParseTStop(sorted[i].TStop)
		b, okB := dataset.ParseTStop(sorted[j].TStop)
		if okA != okB {
			return okA
		}
		return a < b
	})

	runs := make([]irm.Run, len(sorted))
	for i, m := range sorted {
		samples := make([]irm.Sample, len(m.Rows))
		for j, r := range m.Rows {
			samples[j] = irm.Sample{Temp: r.Temperature, Int: r.Intensity}
		}
		runs[i] = irm.Run{Label: m.Label(), Samples: samples}
	}
	return runs
}

func (o *Organizer) logger() logrus.FieldLogger {
	if o.Log == nil {
		return logrus.StandardLogger()
	}
	return o.Log
}

func (o *Organizer) readLines(name string) ([]string, error) {
	f, err := os.Open(filepath.Join(o.Dir, name))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var scanner *bufio.Scanner
	if o.Encoding != nil {
		scanner = bufio.NewScanner(o.Encoding.NewDecoder().Reader(f))
	} else {
		scanner = bufio.NewScanner(f)
	}

	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return lines, nil
}

// listFiles maps the 4 digit step number to the file name.
func listFiles(dir string) (map[int]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := map[int]string{}
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		name := e.Name()
		if len(name) < 5 || name[4] != '_' {
			continue
		}
		n, err := strconv.Atoi(name[:4])
		if err != nil {
			continue
		}
		files[n] = name
	}
	return files, nil
}

func isPMT(name string) bool {
	return len(name) >= 8 && name[5:8] == "PMT"
}

// parsePairs reads "time,...,value" lines from start on.
func parsePairs(name string, lines []string, start int) ([][2]float64, error) {
	var out [][2]float64
	for i := start; i < len(lines); i++ {
		fields := strings.Split(lines[i], ",")
		t, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: time: %w", name, i, err)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[len(fields)-1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s: line %d: value: %w", name, i, err)
		}
		out = append(out, [2]float64{t, v})
	}
	return out, nil
}

func lastField(line, sep string) string {
	fields := strings.Split(line, sep)
	return strings.TrimSpace(fields[len(fields)-1])
}

func writeRows(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Write([]string{"Time", "Temperature", "Intensity"})
	for _, r := range rows {
		w.Write([]string{
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			strconv.FormatFloat(r.Temperature, 'g', -1, 64),
			strconv.FormatFloat(r.Intensity, 'g', -1, 64),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
