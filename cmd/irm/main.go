package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/dataset"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/intibs"
	"github.com/HamletTheHamster/Initial-Rise-Method/internal/pipeline"
)

var version = "<not set>"
var log = logrus.New()

type Args struct {
	Organize *OrganizeCmd `arg:"subcommand:organize" help:"Split a folder of INTiBS exports into runs and data sets."`
	Analyze  *AnalyzeCmd  `arg:"subcommand:analyze"  help:"Find T_max and the trap depth of every run in a data set."`
	Config   string       `arg:"-c,--config"         help:"configuration file (yaml, toml or json)"`
	LogLevel string       `arg:"-l,--log-level"      help:"Set the logging level (debug, info, warn, error)"`
}

type OrganizeCmd struct {
	Folder    string  `arg:"positional,required" help:"folder with the INTiBS exports"`
	FirstPMT  *int    `arg:"--first-pmt"         help:"number of the first PMT_measured file"`
	FirstHeat *int    `arg:"--first-heat"        help:"number of the first Heater_measured file"`
	Encoding  *string `arg:"--encoding"          help:"text encoding of the exports, e.g. windows-1250"`
}

type AnalyzeCmd struct {
	DataSet     string   `arg:"positional,required" help:"combined data set (Data_set.csv)"`
	HeatingRate *float64 `arg:"-b,--heating-rate"   help:"heating rate β in K/s"`
	Workers     *int     `arg:"-w,--workers"        help:"runs analysed at once"`
	RefinePeak  bool     `arg:"--refine-peak"       help:"refine T_max with a Gaussian fit"`
	Preview     bool     `arg:"--preview"           help:"show every Arrhenius plot in gnuplot"`
	Output      string   `arg:"-o,--output"         help:"output folder, defaults to the data set folder"`
}

func (Args) Version() string {
	return version
}

func procArgs() Args {
	args := Args{}
	p := arg.MustParse(&args)
	if p.Subcommand() == nil {
		p.Fail("missing subcommand (organize or analyze)")
	}
	return args
}

func main() {
	if err := runMain(); err != nil {
		log.Fatal(err)
	}
}

func runMain() error {
	log.SetFormatter(new(customFormatter))
	args := procArgs()

	conf, err := ParseConfig(args.Config)
	if err != nil {
		return err
	}
	if args.LogLevel != "" {
		conf.LogLevel = args.LogLevel
	}
	setLogLevel(conf.LogLevel)
	log.Debugf("Running version: %s", version)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case args.Organize != nil:
		return organize(conf, args.Organize)
	case args.Analyze != nil:
		return analyze(ctx, conf, args.Analyze)
	}
	return nil
}

func organize(conf *Config, cmd *OrganizeCmd) error {
	if err := conf.applyOrganize(cmd); err != nil {
		return err
	}
	enc, err := intibs.EncodingByName(conf.Encoding)
	if err != nil {
		return err
	}

	o := &intibs.Organizer{
		Dir:       cmd.Folder,
		FirstPMT:  conf.FirstPMT,
		FirstHeat: conf.FirstHeat,
		Encoding:  enc,
		Log:       log,
	}
	paths, err := o.Organize()
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}

func analyze(ctx context.Context, conf *Config, cmd *AnalyzeCmd) error {
	if err := conf.applyAnalyze(cmd); err != nil {
		return err
	}
	runs, err := dataset.Read(cmd.DataSet)
	if err != nil {
		return err
	}
	log.Infof("Read %d runs from %s", len(runs), cmd.DataSet)

	cfg := conf.Config
	cfg.Log = log
	out, err := pipeline.Run(ctx, cfg, runs)
	if errors.Is(err, pipeline.ErrNothingAnalyzed) {
		for _, ro := range out.Runs {
			log.Errorf("%s: %v", ro.Label, ro.Err)
		}
	}
	if err != nil {
		return err
	}

	for _, row := range out.Rows {
		log.Infof("%s: T_max %.1f °C, E = %.4f ± %.4f eV", row.Label, row.TMax, row.Energy, row.StdErr)
	}
	return nil
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		log.Warn("Unknown log level, defaulting to info")
	}
}

type customFormatter struct{}

func (f *customFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	msg := entry.Message
	if run, ok := entry.Data["run"]; ok {
		msg = fmt.Sprintf("%v: %s", run, msg)
	}
	return []byte(fmt.Sprintf("[%s] %s\n", strings.ToUpper(entry.Level.String()), msg)), nil
}
