// Package dataset reads and writes the flat CSV tables exchanged between
// the organizer, the analysis and whoever looks at the results.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// Header of a combined data set, one row per sample.
var Header = []string{"T_stop", "Temp", "Int"}

// Read loads a combined data set. Runs keep the order in which their labels
// first appear.
func Read(path string) ([]irm.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	runs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return runs, nil
}

// Decode reads a combined data set from r.
func Decode(r io.Reader) ([]irm.Run, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	head, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty data set")
		}
		return nil, err
	}
	for i, name := range Header {
		if strings.TrimSpace(head[i]) != name {
			return nil, fmt.Errorf("column %d is %q, want %q", i+1, head[i], name)
		}
	}

	var runs []irm.Run
	index := map[string]int{}
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		temp, err := parseValue(row[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: temperature: %w", line, err)
		}
		intensity, err := parseValue(row[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: intensity: %w", line, err)
		}

		label := row[0]
		i, ok := index[label]
		if !ok {
			i = len(runs)
			index[label] = i
			runs = append(runs, irm.Run{Label: label})
		}
		runs[i].Samples = append(runs[i].Samples, irm.Sample{Temp: temp, Int: intensity})
	}
	return runs, nil
}

// Write stores runs as a combined data set.
func Write(path string, runs []irm.Run) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, runs); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// Encode writes runs to w.
func Encode(w io.Writer, runs []irm.Run) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return err
	}
	for _, run := range runs {
		for _, s := range run.Samples {
			if err := writer.Write([]string{run.Label, formatValue(s.Temp), formatValue(s.Int)}); err != nil {
				return err
			}
		}
	}
	writer.Flush()
	return writer.Error()
}

// WritePoints exports the transformed points of a run.
func WritePoints(path string, points []irm.Point) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	writer := csv.NewWriter(f)
	writer.Write([]string{"", "1/kT", "ln(I)"})
	for i, p := range points {
		writer.Write([]string{strconv.Itoa(i), formatValue(p.X), formatValue(p.Y)})
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// ParseTStop returns the first whitespace separated token of a T_stop label that
// parses as a number, e.g. 30 for "T_stop: 30".
func ParseTStop(label string) (float64, bool) {
	for _, word := range strings.Fields(label) {
		if v, err := strconv.ParseFloat(word, 64); err == nil {
			return v, true
		}
	}
	return math.NaN(), false
}

var forbidden = strings.NewReplacer(
	`\`, "_", "/", "_", "*", "_", "?", "_", ":", "_",
	"|", "_", ">", "_", "<", "_", `"`, "_", ".", "_", " ", "_",
)

// SafeName turns a T_stop label into something usable in a file name.
func SafeName(label string) string {
	return forbidden.Replace(norm.NFKC.String(label))
}

func parseValue(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
