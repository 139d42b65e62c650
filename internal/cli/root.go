// Package cli owns the dir-diff command surface: flag parsing, input
// validation, report output, and exit codes. The core packages only ever
// see validated root paths.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/shv-ng/dir-diff/internal/dedup"
	"github.com/shv-ng/dir-diff/internal/diff"
	"github.com/shv-ng/dir-diff/internal/scan"
)

// Version is stamped by the release build.
var Version = "dev"

const (
	ExitOK      = 0
	ExitFailure = 1
)

type options struct {
	workers    int
	algo       string
	exclude    []string
	dryRun     bool
	report     string
	noProgress bool
	verbose    bool
	configPath string
}

// Execute runs the dir-diff command against the real filesystem and
// returns the process exit code.
func Execute(args []string) int {
	return execute(afero.NewOsFs(), os.Stdout, os.Stderr, args)
}

func execute(fsys afero.Fs, out, errOut io.Writer, args []string) int {
	cmd := newRootCmd(fsys, out, errOut)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(errOut, "dir-diff:", err)
		return ExitFailure
	}
	return ExitOK
}

func newRootCmd(fsys afero.Fs, out, errOut io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "dir-diff <dir1> [dir2]",
		Short: "Compare two directories by content, or deduplicate one",
		Long: `dir-diff fingerprints every regular file under the given roots.

With two directories it prints the files whose content is unique to
either side, ignoring names and locations. With one directory it deletes
duplicate files, preferring to keep copies that live outside date-named
(20*) folders, and then removes directories left empty.`,
		Version:       Version,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.configPath != "" {
				cfg, err := loadConfig(fsys, o.configPath)
				if err != nil {
					return err
				}
				o.applyConfig(cmd.Flags(), cfg)
			}
			return run(fsys, out, errOut, args, o)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&o.workers, "workers", "w", runtime.NumCPU(), "concurrent hashing workers")
	f.StringVar(&o.algo, "algo", string(scan.XXH64), "fingerprint algorithm (xxh64 or blake3)")
	f.StringSliceVarP(&o.exclude, "exclude", "e", nil, "directory names to skip while scanning")
	f.BoolVarP(&o.dryRun, "dry-run", "n", false, "report deletions without performing them")
	f.StringVar(&o.report, "report", "", "write a JSON report to this path (dedup mode)")
	f.BoolVar(&o.noProgress, "no-progress", false, "disable the hashing progress bar")
	f.BoolVarP(&o.verbose, "verbose", "v", false, "log individual deletions and removals")
	f.StringVar(&o.configPath, "config", "", "YAML config file; flags take precedence")
	f.BoolP("version", "V", false, "print version and exit")

	return cmd
}

func run(fsys afero.Fs, out, errOut io.Writer, args []string, o *options) error {
	algo, err := scan.ParseAlgorithm(o.algo)
	if err != nil {
		return err
	}
	for _, dir := range args {
		info, err := fsys.Stat(dir)
		if err != nil {
			return fmt.Errorf("cannot read %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
	}

	log := logrus.New()
	log.SetOutput(errOut)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if o.verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	scanOpts := scan.Options{
		Algorithm: algo,
		Workers:   o.workers,
		Exclude:   o.exclude,
		Log:       log,
	}
	if !o.noProgress {
		scanOpts.Progress = errOut
	}

	if len(args) == 2 {
		return runDiff(fsys, out, args[0], args[1], scanOpts)
	}
	return runDedup(fsys, out, args[0], scanOpts, o)
}

func runDiff(fsys afero.Fs, out io.Writer, dirA, dirB string, opts scan.Options) error {
	resA, err := scan.Scan(fsys, dirA, opts)
	if err != nil {
		return err
	}
	resB, err := scan.Scan(fsys, dirB, opts)
	if err != nil {
		return err
	}
	printDiff(out, dirA, dirB, diff.Diff(resA.Index, resB.Index))
	printScanSummary(out, resA, resB)
	return nil
}

func runDedup(fsys afero.Fs, out io.Writer, root string, opts scan.Options, o *options) error {
	res, err := scan.Scan(fsys, root, opts)
	if err != nil {
		return err
	}
	dres := dedup.Run(fsys, res, dedup.Options{DryRun: o.dryRun, Log: opts.Log})
	printDedup(out, dres, o.dryRun)
	printDedupSummary(out, res, dres, o.dryRun)
	if o.report != "" {
		if err := writeReport(fsys, o.report, root, res, dres, o.dryRun); err != nil {
			return err
		}
	}
	if dres.Failed() {
		return fmt.Errorf("%d paths could not be deleted", len(dres.Failures))
	}
	return nil
}
