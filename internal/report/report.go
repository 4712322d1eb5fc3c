// Package report turns per-run results into the summary table, its CSV and
// the PDF report.
package report

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
)

// Columns of the summary table.
var Columns = []string{
	"T_stop [°C]",
	"T_stop (value)",
	"T_max [°C]",
	"Energy [ev]",
	"u(E) [eV]",
	"s",
	"u(E)/E [%]",
}

// Row is one line of the summary table.
type Row struct {
	Label  string
	TStop  float64
	TMax   float64
	Energy float64
	StdErr float64
	// Frequency is the frequency factor s in 1/s.
	Frequency float64
	// RelErr is u(E)/E in percent.
	RelErr float64
}

// NewRow summarises one analysed run. heatingRate is β in K/s.
func NewRow(res *irm.Result, heatingRate float64) Row {
	tStop, _ := dataset.ParseTStop(res.Label)
	return Row{
		Label:     res.Label,
		TStop:     tStop,
		TMax:      res.TMax,
		Energy:    res.Fit.Energy,
		StdErr:    res.Fit.StdErr,
		Frequency: Frequency(res.Fit.Energy, res.TMax, heatingRate),
		RelErr:    res.Fit.StdErr / res.Fit.Energy * 100,
	}
}

// Frequency is the first order frequency factor
// s = β·E/(k·Tm²) · exp(E/(k·Tm)) for a peak at tMax °C.
func Frequency(energy, tMax, heatingRate float64) float64 {
	tm := tMax + irm.CelsiusOffset
	return heatingRate * energy / (irm.Boltzmann * tm * tm) / math.Exp(-energy/(irm.Boltzmann*tm))
}

func (r Row) values() []float64 {
	return []float64{r.TStop, r.TMax, r.Energy, r.StdErr, r.Frequency, r.RelErr}
}

// WriteCSV stores the summary table.
func WriteCSV(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Write(Columns)
	for _, r := range rows {
		record := []string{r.Label}
		for _, v := range r.values() {
			record = append(record, strconv.FormatFloat(v, 'g', -1, 64))
		}
		w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}

// WriteLog writes the lines of a run log as they are.
func WriteLog(path string, lines []string) error {
	txt, err := os.Create(path)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(txt)
	for _, line := range lines {
		if _, err := w.WriteString(line); err != nil {
			txt.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		txt.Close()
		return err
	}
	return txt.Close()
}
