package app

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"easytargetscan/internal/cli"
	"easytargetscan/internal/errlog"
	"easytargetscan/internal/pipeline"
	"easytargetscan/internal/predictor"
	"easytargetscan/internal/version"
)

// Shared temp-table names; one job in flight owns both (see pipeline.Config).
const (
	SeedTableName   = "miR_seeds_temp.txt"
	TargetTableName = "UTRs_temp.txt"
)

// RunContext parses argv, runs the batch, and prints a summary. Exit codes:
// 0 batch completed (per-job failures included), 1 batch-fatal error,
// 2 usage error.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	defer func() { _ = outw.Flush() }()

	fs := cli.NewFlagSet("easytargetscan")
	fs.SetOutput(io.Discard)

	opts, err := cli.ParseArgs(fs, argv)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(outw)
			fs.Usage()
			return 0
		}
		_, _ = fmt.Fprintln(stderr, err)
		fs.SetOutput(stderr)
		fs.Usage()
		return 2
	}

	if opts.Version {
		_, _ = fmt.Fprintf(outw, "easytargetscan version %s\n", version.Version)
		return 0
	}

	cfg := pipeline.Config{
		UTRFile:      opts.UTRFile,
		MirFile:      opts.MirFile,
		OutputPrefix: opts.OutputPrefix,
		Taxon:        opts.Taxon,
		SeedSize:     opts.SeedSize,
		MinTargetLen: opts.MinLength,
		SeedTable:    SeedTableName,
		TargetTable:  TargetTableName,
		Predictor: &predictor.Exec{
			Command: strings.Fields(opts.Predictor),
			Timeout: time.Duration(opts.TimeoutSec) * time.Second,
		},
		ErrLog: &errlog.Log{Path: opts.ErrorLog},
		Log:    stderr,
		Quiet:  opts.Quiet,
	}

	sum, err := pipeline.Run(parent, cfg)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, err)
		return 1
	}

	_, _ = fmt.Fprintf(outw, "targets: %d done, %d skipped, %d failed (seeds: %d written, %d skipped)\n",
		sum.Done, sum.Skipped, sum.Failed, sum.SeedsWritten, sum.SeedsSkipped)
	return 0
}

// Run is RunContext with a background context.
func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
