package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/HamletTheHamster/Initial-Rise-Method/internal/pipeline"
)

// Config is the optional configuration file. Command line flags take
// precedence over it.
type Config struct {
	pipeline.Config `mapstructure:",squash"`

	FirstPMT  int    `mapstructure:"first_pmt"`
	FirstHeat int    `mapstructure:"first_heat"`
	Encoding  string `mapstructure:"encoding"`
	LogLevel  string `mapstructure:"log_level"`
}

func DefaultConfig() Config {
	c := Config{
		Config:   pipeline.DefaultConfig(),
		LogLevel: "info",
	}
	// Empty means next to the data set.
	c.OutputDir = ""
	return c
}

// ParseConfig reads the file at path over the defaults. An empty path
// returns the defaults.
func ParseConfig(path string) (*Config, error) {
	c := DefaultConfig()
	if path == "" {
		return &c, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyOrganize(cmd *OrganizeCmd) error {
	if cmd.FirstPMT != nil {
		c.FirstPMT = *cmd.FirstPMT
	}
	if cmd.FirstHeat != nil {
		c.FirstHeat = *cmd.FirstHeat
	}
	if cmd.Encoding != nil {
		c.Encoding = *cmd.Encoding
	}
	if c.FirstPMT <= 0 || c.FirstHeat <= 0 {
		return errors.New("first PMT and heater file numbers are required (--first-pmt, --first-heat)")
	}
	return nil
}

func (c *Config) applyAnalyze(cmd *AnalyzeCmd) error {
	if cmd.HeatingRate != nil {
		c.HeatingRate = *cmd.HeatingRate
	}
	if cmd.Workers != nil {
		c.Workers = *cmd.Workers
	}
	if cmd.RefinePeak {
		c.RefinePeak = true
	}
	if cmd.Preview {
		c.Preview = true
	}
	if cmd.Output != "" {
		c.OutputDir = cmd.Output
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Dir(cmd.DataSet)
	}
	if !(c.HeatingRate > 0) {
		return fmt.Errorf("heating rate must be positive, got %g", c.HeatingRate)
	}
	return nil
}
