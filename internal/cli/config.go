package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the command-line flags. Flags set on the command
// line override anything loaded from the file.
type fileConfig struct {
	Workers    int      `yaml:"workers"`
	Algo       string   `yaml:"algo"`
	Exclude    []string `yaml:"exclude"`
	DryRun     bool     `yaml:"dry-run"`
	Report     string   `yaml:"report"`
	NoProgress bool     `yaml:"no-progress"`
	Verbose    bool     `yaml:"verbose"`
}

func loadConfig(fsys afero.Fs, path string) (*fileConfig, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return &fileConfig{}, nil
		}
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return &cfg, nil
}

// applyConfig fills in options the user did not set on the command line.
func (o *options) applyConfig(flags *pflag.FlagSet, cfg *fileConfig) {
	if !flags.Changed("workers") && cfg.Workers > 0 {
		o.workers = cfg.Workers
	}
	if !flags.Changed("algo") && cfg.Algo != "" {
		o.algo = cfg.Algo
	}
	if !flags.Changed("exclude") && len(cfg.Exclude) > 0 {
		o.exclude = cfg.Exclude
	}
	if !flags.Changed("dry-run") && cfg.DryRun {
		o.dryRun = true
	}
	if !flags.Changed("report") && cfg.Report != "" {
		o.report = cfg.Report
	}
	if !flags.Changed("no-progress") && cfg.NoProgress {
		o.noProgress = true
	}
	if !flags.Changed("verbose") && cfg.Verbose {
		o.verbose = true
	}
}
