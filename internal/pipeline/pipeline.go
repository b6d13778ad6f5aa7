// Package pipeline drives the full scan batch: seed extraction, one
// predictor run per target, feature parsing, and diagram rendering.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"

	"easytargetscan/internal/common"
	"easytargetscan/internal/errlog"
	"easytargetscan/internal/fasta"
	"easytargetscan/internal/features"
	"easytargetscan/internal/predictor"
	"easytargetscan/internal/render"
	"easytargetscan/internal/seed"
)

// Config is the explicit orchestration state; there are no package globals.
type Config struct {
	UTRFile      string
	MirFile      string
	OutputPrefix string
	Taxon        int
	SeedSize     int
	MinTargetLen int

	// Shared temp-table paths. Jobs reuse both files, so the batch is
	// strictly one job in flight; parallel runs need per-job paths.
	SeedTable   string
	TargetTable string

	Predictor predictor.Predictor
	ErrLog    *errlog.Log
	Log       io.Writer // console diagnostics; nil discards
	Quiet     bool

	// RenderFunc defaults to render.Diagram; tests substitute it.
	RenderFunc func(seqLen int, feats []features.Feature, title, pngPath string) error
}

// Status classifies one target job.
type Status int

const (
	Done Status = iota
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Done:
		return "done"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome of one target job.
type Result struct {
	TargetID string
	Status   Status
	Artifact string // PNG path when Status == Done
	Features int
	Err      error
}

// Summary aggregates a whole batch.
type Summary struct {
	SeedsWritten int
	SeedsSkipped int
	Done         int
	Skipped      int
	Failed       int
	Results      []Result
}

// Run executes the batch. Per-job failures are contained in Results; the
// returned error is batch-fatal only (unreadable inputs, unwritable seed
// table, cancellation). The shared temp tables are removed on every exit
// path; removal failures are reported to cfg.Log, never returned.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	var sum Summary

	if cfg.Log == nil {
		cfg.Log = io.Discard
	}
	if cfg.RenderFunc == nil {
		cfg.RenderFunc = render.Diagram
	}

	defer func() {
		for _, fn := range []string{cfg.SeedTable, cfg.TargetTable} {
			if _, err := os.Stat(fn); err != nil {
				continue
			}
			if err := os.Remove(fn); err != nil {
				fmt.Fprintf(cfg.Log, "WARN: cleanup %s: %v\n", fn, err)
			}
		}
	}()

	warnf := func(format string, a ...any) {
		if !cfg.Quiet {
			fmt.Fprintf(cfg.Log, "WARN: "+format+"\n", a...)
		}
	}

	st, err := seed.Extract(ctx, cfg.MirFile, cfg.SeedTable, cfg.SeedSize, cfg.Taxon, warnf)
	sum.SeedsWritten, sum.SeedsSkipped = st.Written, st.Skipped
	if err != nil {
		return sum, fmt.Errorf("seed extraction: %w", err)
	}

	err = fasta.ForEachPath(ctx, cfg.UTRFile, func(rec fasta.Record) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		res := runJob(ctx, &cfg, rec, warnf)
		sum.Results = append(sum.Results, res)
		switch res.Status {
		case Done:
			sum.Done++
		case Skipped:
			sum.Skipped++
		case Failed:
			sum.Failed++
		}
		return nil
	})
	if err != nil {
		return sum, fmt.Errorf("target stream: %w", err)
	}
	return sum, nil
}

// runJob processes one target record start to finish. Panics are contained
// here and logged with a stack trace, so a single bad job cannot take down
// the batch.
func runJob(ctx context.Context, cfg *Config, rec fasta.Record, warnf func(string, ...any)) (res Result) {
	res = Result{TargetID: rec.ID}
	defer func() {
		if r := recover(); r != nil {
			res.Status = Failed
			res.Err = fmt.Errorf("panic: %v", r)
			_ = cfg.ErrLog.Append(fmt.Sprintf("processing %s: panic: %v", rec.ID, r), debug.Stack())
		}
	}()

	if len(rec.Seq) < cfg.MinTargetLen {
		warnf("skipping short UTR %s (len=%d)", rec.ID, len(rec.Seq))
		res.Status = Skipped
		return res
	}

	outFile := common.SanitizeID(rec.ID) + "_" + cfg.OutputPrefix

	row := fmt.Sprintf("%s\t%d\t%s\n", rec.ID, cfg.Taxon, rec.Seq)
	if err := os.WriteFile(cfg.TargetTable, []byte(row), 0o644); err != nil {
		return fail(cfg, res, fmt.Errorf("target table: %w", err))
	}

	if !cfg.Quiet {
		fmt.Fprintf(cfg.Log, "processing UTR %s\n", rec.ID)
	}
	out, err := cfg.Predictor.Predict(ctx, cfg.SeedTable, cfg.TargetTable, outFile)
	if err != nil {
		warnf("predictor failed for %s: %v", rec.ID, err)
		if len(out) > 0 {
			fmt.Fprintf(cfg.Log, "%s", out)
		}
		res.Status = Failed
		res.Err = err
		return res
	}

	if _, err := os.Stat(outFile); err != nil {
		warnf("predictor wrote no output file %s for %s", outFile, rec.ID)
		res.Status = Failed
		res.Err = fmt.Errorf("missing output file %s: %w", outFile, err)
		return res
	}

	feats, err := features.ParseFile(outFile, warnf)
	if err != nil {
		return fail(cfg, res, fmt.Errorf("parse %s: %w", outFile, err))
	}

	png := outFile + ".png"
	if err := cfg.RenderFunc(len(rec.Seq), feats, rec.ID+" sequence", png); err != nil {
		return fail(cfg, res, fmt.Errorf("render %s: %w", png, err))
	}

	res.Status = Done
	res.Artifact = png
	res.Features = len(feats)
	return res
}

// fail marks the job Failed and records the error in the persistent log.
func fail(cfg *Config, res Result, err error) Result {
	res.Status = Failed
	res.Err = err
	_ = cfg.ErrLog.Appendf("processing %s: %v", res.TargetID, err)
	return res
}
