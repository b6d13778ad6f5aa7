package cli

import (
	"errors"
	"flag"
	"fmt"

	"easytargetscan/internal/version"
)

// Defaults mirror the classic EasyTargetScan invocation.
const (
	DefaultOutputPrefix = "test_EasyTargetScan"
	DefaultTaxon        = 10090
	DefaultSeedSize     = 7
	DefaultMinLength    = 20
	DefaultPredictor    = "perl targetscan_70.pl"
	DefaultErrorLog     = "EasyTargetScan_error.log"
)

// Options holds all CLI flags; it is the only carrier of run configuration.
type Options struct {
	UTRFile      string
	MirFile      string
	OutputPrefix string
	Taxon        int

	SeedSize   int
	MinLength  int
	Predictor  string
	TimeoutSec int
	ErrorLog   string

	Quiet   bool
	Version bool
}

// NewFlagSet returns a configured FlagSet with custom usage/help.
func NewFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			`%s: run TargetScan over FASTA inputs and draw per-UTR site maps

Version: %s

Usage of %s:
`, name, version.Version, name)
		fs.PrintDefaults()
	}
	return fs
}

// ParseArgs registers and parses all flags, returns an Options struct.
func ParseArgs(fs *flag.FlagSet, argv []string) (Options, error) {
	var opt Options
	var help bool

	fs.StringVar(&opt.UTRFile, "utr", "", "FASTA file of sequences to scan [*]")
	fs.StringVar(&opt.MirFile, "mir", "", "FASTA file of mature miRNA sequences [*]")
	fs.StringVar(&opt.OutputPrefix, "output", DefaultOutputPrefix, "prefix of per-UTR output files ["+DefaultOutputPrefix+"]")
	fs.IntVar(&opt.Taxon, "Taxon", DefaultTaxon, "NCBI taxon id passed to the predictor (mouse by default) [10090]")

	fs.IntVar(&opt.SeedSize, "seed-size", DefaultSeedSize, "miRNA seed length [7]")
	fs.IntVar(&opt.MinLength, "min-length", DefaultMinLength, "minimum UTR length worth scanning [20]")
	fs.StringVar(&opt.Predictor, "predictor", DefaultPredictor, "predictor command prefix; three table paths are appended ["+DefaultPredictor+"]")
	fs.IntVar(&opt.TimeoutSec, "timeout", 0, "per-UTR predictor timeout in seconds (0 = none) [0]")
	fs.StringVar(&opt.ErrorLog, "error-log", DefaultErrorLog, "persistent error log path ["+DefaultErrorLog+"]")

	fs.BoolVar(&opt.Quiet, "quiet", false, "suppress per-UTR progress and warnings [false]")
	fs.BoolVar(&opt.Version, "v", false, "print version and exit (shorthand) [false]")
	fs.BoolVar(&opt.Version, "version", false, "print version and exit [false]")
	fs.BoolVar(&help, "h", false, "show this help message (shorthand) [false]")

	if err := fs.Parse(argv); err != nil {
		return opt, err
	}
	if help {
		fs.Usage()
		return opt, flag.ErrHelp
	}
	if opt.Version {
		return opt, nil
	}

	// Validation
	switch {
	case opt.UTRFile == "":
		return opt, errors.New("-utr is required")
	case opt.MirFile == "":
		return opt, errors.New("-mir is required")
	}
	if opt.OutputPrefix == "" {
		return opt, errors.New("-output must not be empty")
	}
	if opt.SeedSize < 1 {
		return opt, errors.New("-seed-size must be ≥ 1")
	}
	if opt.MinLength < 0 {
		return opt, errors.New("-min-length must be ≥ 0")
	}
	if opt.TimeoutSec < 0 {
		return opt, errors.New("-timeout must be ≥ 0")
	}
	if opt.Predictor == "" {
		return opt, errors.New("-predictor must not be empty")
	}
	return opt, nil
}
