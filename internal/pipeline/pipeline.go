// Package pipeline runs the analysis of a whole data set: T_max and trap
// depth per run, the per-run charts and tables, then the summary files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/chart"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/irm"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/peak"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/report"
)

// ErrNothingAnalyzed is returned when every run failed the analysis.
var ErrNothingAnalyzed = errors.New("no run could be analysed")

// Config of an analysis.
type Config struct {
	// HeatingRate β in K/s, used for the frequency factor.
	HeatingRate float64 `mapstructure:"heating_rate"`
	// Workers bounds how many runs are processed at once, 0 for GOMAXPROCS.
	Workers int `mapstructure:"workers"`
	// RefinePeak fits a Gaussian around the coarse T_max.
	RefinePeak    bool    `mapstructure:"refine_peak"`
	PeakHalfWidth float64 `mapstructure:"peak_half_width"`
	// Preview shows every ln I - 1/kT chart in gnuplot.
	Preview bool `mapstructure:"preview"`
	// OutputDir receives Charts, IRM_results and the summary files.
	OutputDir string `mapstructure:"output_dir"`

	Log logrus.FieldLogger `mapstructure:"-"`
}

// DefaultConfig returns the settings used when nothing else is given.
func DefaultConfig() Config {
	return Config{
		HeatingRate:   1,
		Workers:       runtime.GOMAXPROCS(0),
		PeakHalfWidth: 10,
		OutputDir:     ".",
	}
}

// RunOutcome is what happened to one run.
type RunOutcome struct {
	Label  string
	TMax   float64
	IMax   float64
	Result *irm.Result
	// Err is set when the run was left out of the summary.
	Err error
}

// Outcome of a whole analysis.
type Outcome struct {
	ChartDir  string
	ResultDir string
	Runs      []RunOutcome
	Rows      []report.Row
	// Paths lists every file written, per-run files first in run order.
	Paths []string
}

// Run analyses every run and writes the charts, the transformed points and
// the summary. Runs that fail the analysis are logged and left out; I/O
// errors abort the whole batch.
func Run(ctx context.Context, cfg Config, runs []irm.Run) (*Outcome, error) {
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return nil, err
	}
	chartDir, err := numberedDir(cfg.OutputDir, "Charts")
	if err != nil {
		return nil, err
	}
	resultDir, err := numberedDir(cfg.OutputDir, "IRM_results")
	if err != nil {
		return nil, err
	}
	log.Infof("Writing charts to %s and results to %s", chartDir, resultDir)

	out := &Outcome{
		ChartDir:  chartDir,
		ResultDir: resultDir,
		Runs:      make([]RunOutcome, len(runs)),
	}
	paths := make([][]string, len(runs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers)
	for i, run := range runs {
		i, run := i, run
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var err error
			out.Runs[i], paths[i], err = analyzeRun(cfg, log, run, chartDir, resultDir)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logFile := logHeader(cfg, len(runs))
	var tStop, tMax, energy []float64
	for i, ro := range out.Runs {
		out.Paths = append(out.Paths, paths[i]...)
		if ro.Err != nil {
			logFile = append(logFile, fmt.Sprintf("%s: skipped: %v\n", ro.Label, ro.Err))
			continue
		}
		row := report.NewRow(ro.Result, cfg.HeatingRate)
		out.Rows = append(out.Rows, row)
		tStop = append(tStop, row.TStop)
		tMax = append(tMax, row.TMax)
		energy = append(energy, row.Energy)
		logFile = append(logFile, fmt.Sprintf("%s: T_max %.1f °C, E = %.4f ± %.4f eV\n",
			ro.Label, row.TMax, row.Energy, row.StdErr))
	}

	logPath := filepath.Join(chartDir, "log.txt")
	if err := report.WriteLog(logPath, logFile); err != nil {
		return nil, err
	}
	out.Paths = append(out.Paths, logPath)

	if len(out.Rows) == 0 {
		return out, ErrNothingAnalyzed
	}

	summary, err := chart.Summary(chartDir, tStop, tMax, energy)
	switch {
	case errors.Is(err, chart.ErrNoPoints):
		log.Warn("No numeric T_stop among the analysed runs, summary chart skipped")
	case err != nil:
		return nil, err
	default:
		out.Paths = append(out.Paths, summary)
	}

	csvPath := filepath.Join(cfg.OutputDir, "summary.csv")
	if err := report.WriteCSV(csvPath, out.Rows); err != nil {
		return nil, err
	}
	out.Paths = append(out.Paths, csvPath)

	pdfPath := filepath.Join(cfg.OutputDir, "Report.pdf")
	if err := report.WritePDF(pdfPath, out.Rows, chartDir, time.Now()); err != nil {
		return nil, err
	}
	out.Paths = append(out.Paths, pdfPath)

	log.Infof("Analysed %d of %d runs", len(out.Rows), len(runs))
	return out, nil
}

func analyzeRun(cfg Config, log logrus.FieldLogger, run irm.Run, chartDir, resultDir string) (RunOutcome, []string, error) {
	ro := RunOutcome{Label: run.Label}
	rlog := log.WithField("run", run.Label)

	tMax, iMax, err := peak.Find(run.Samples)
	if err != nil {
		rlog.Warnf("Skipped: %v", err)
		ro.Err = err
		return ro, nil, nil
	}
	if cfg.RefinePeak {
		refined, err := peak.Refine(run.Samples, tMax, cfg.PeakHalfWidth)
		if err != nil {
			rlog.Warnf("Keeping coarse T_max: %v", err)
		}
		tMax = refined
	}
	ro.TMax, ro.IMax = tMax, iMax

	var paths []string
	path, err := chart.TStop(chartDir, run, tMax, iMax)
	if err != nil {
		return ro, nil, err
	}
	paths = append(paths, path)

	res, err := irm.Analyze(run, tMax)
	if err != nil {
		rlog.Warnf("Skipped: %v", err)
		ro.Err = err
		return ro, paths, nil
	}
	ro.Result = res
	rlog.Debugf("T_max %.2f, E %.4f eV over %d points", tMax, res.Fit.Energy, len(res.Fit.Used))

	path = filepath.Join(resultDir, dataset.SafeName(run.Label)+"_IRM.csv")
	if err := dataset.WritePoints(path, res.Raw); err != nil {
		return ro, nil, err
	}
	paths = append(paths, path)

	for _, draw := range []func(string, *irm.Result) (string, error){chart.Selection, chart.LnKT} {
		path, err := draw(chartDir, res)
		if err != nil {
			return ro, nil, err
		}
		paths = append(paths, path)
	}

	if cfg.Preview {
		if err := chart.Preview(res, ""); err != nil {
			rlog.Warnf("Preview: %v", err)
		}
	}
	return ro, paths, nil
}

func logHeader(cfg Config, runs int) []string {
	logFile := []string{
		fmt.Sprintf("Analysis: %s\n", time.Now().Format(time.DateTime)),
		fmt.Sprintf("Runs: %d\n", runs),
		fmt.Sprintf("Heating rate: %g K/s\n", cfg.HeatingRate),
	}
	if cfg.RefinePeak {
		logFile = append(logFile, fmt.Sprintf("T_max refined by Gaussian fit within ±%g °C\n", cfg.PeakHalfWidth))
	}
	return append(logFile, "\n")
}

// numberedDir creates base/name, or base/name1, base/name2, ... when taken.
func numberedDir(base, name string) (string, error) {
	path := filepath.Join(base, name)
	for i := 1; ; i++ {
		err := os.Mkdir(path, 0755)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", err
		}
		path = filepath.Join(base, fmt.Sprintf("%s%d", name, i))
	}
}
