package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"easytargetscan/internal/errlog"
	"easytargetscan/internal/features"
)

const predictorHeader = "Gene_ID\tmiRNA\tspecies\tstart\tend\tUTR_start\tUTR_end\tgroup\tsite_type\n"

// stubPredictor writes a canned output table, or fails on selected calls.
type stubPredictor struct {
	rows      string
	failCalls map[int]bool // 1-based call numbers that fail
	skipWrite bool
	calls     int
}

func (s *stubPredictor) Predict(_ context.Context, _, _, prefix string) ([]byte, error) {
	s.calls++
	if s.failCalls[s.calls] {
		return []byte("stub: scan blew up\n"), errors.New("exit status 2")
	}
	if s.skipWrite {
		return nil, nil
	}
	return nil, os.WriteFile(prefix, []byte(predictorHeader+s.rows), 0o644)
}

func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(old) })
	return dir
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	if err := os.WriteFile(name, []byte(data), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return name
}

func renderToFile(_ int, _ []features.Feature, _ string, pngPath string) error {
	return os.WriteFile(pngPath, []byte("png"), 0o644)
}

func baseConfig(t *testing.T) Config {
	t.Helper()
	return Config{
		UTRFile:      "utrs.fa",
		MirFile:      "mirs.fa",
		OutputPrefix: "scan",
		Taxon:        10090,
		SeedSize:     7,
		MinTargetLen: 20,
		SeedTable:    "miR_seeds_temp.txt",
		TargetTable:  "UTRs_temp.txt",
		ErrLog:       &errlog.Log{Path: "err.log"},
		Log:          &bytes.Buffer{},
		RenderFunc:   renderToFile,
	}
}

func assertNoTempFiles(t *testing.T, cfg Config) {
	t.Helper()
	for _, fn := range []string{cfg.SeedTable, cfg.TargetTable} {
		if _, err := os.Stat(fn); !os.IsNotExist(err) {
			t.Errorf("temp file %s left behind (err=%v)", fn, err)
		}
	}
}

func TestRunHappyPath(t *testing.T) {
	dir := chdir(t)
	writeFile(t, "mirs.fa", ">mmu-miR-1a-3p\nUGGAAUGUAAAGAAGUAUGUAU\n")
	writeFile(t, "utrs.fa", ">gene1\nACGTACGTACGTACGTACGTACGTA\n")

	cfg := baseConfig(t)
	cfg.Predictor = &stubPredictor{rows: "gene1\tmmu-miR-1a-3p\t10090\t10\t17\t10\t17\t1\t7mer-m8\n"}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Done != 1 || sum.Skipped != 0 || sum.Failed != 0 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.SeedsWritten != 1 {
		t.Errorf("seeds written = %d", sum.SeedsWritten)
	}
	want := filepath.Join(dir, "gene1_scan.png")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
	if sum.Results[0].Features != 1 {
		t.Errorf("features = %d, want 1", sum.Results[0].Features)
	}
	assertNoTempFiles(t, cfg)
}

func TestRunSkipsShortTargets(t *testing.T) {
	chdir(t)
	writeFile(t, "mirs.fa", ">m\nUGGAAUGUAAAGAAGUAUGUAU\n")
	writeFile(t, "utrs.fa", ">tiny\nACGTACGTACGT\n>gene1\nACGTACGTACGTACGTACGTACGTA\n")

	cfg := baseConfig(t)
	sp := &stubPredictor{rows: ""}
	cfg.Predictor = sp

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Skipped != 1 || sum.Done != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sp.calls != 1 {
		t.Errorf("predictor invoked %d times, want 1 (short target must not spawn a job)", sp.calls)
	}
	if _, err := os.Stat("tiny_scan.png"); !os.IsNotExist(err) {
		t.Error("artifact produced for skipped target")
	}
}

func TestRunIsolatesPredictorFailure(t *testing.T) {
	chdir(t)
	writeFile(t, "mirs.fa", ">m\nUGGAAUGUAAAGAAGUAUGUAU\n")
	writeFile(t, "utrs.fa", ">bad\nACGTACGTACGTACGTACGTACGTA\n>good\nACGTACGTACGTACGTACGTACGTA\n")

	var console bytes.Buffer
	cfg := baseConfig(t)
	cfg.Log = &console
	cfg.Predictor = &stubPredictor{failCalls: map[int]bool{1: true}}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("batch must survive per-job failure: %v", err)
	}
	if sum.Failed != 1 || sum.Done != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if !strings.Contains(console.String(), "scan blew up") {
		t.Errorf("captured predictor output not surfaced: %q", console.String())
	}
	assertNoTempFiles(t, cfg)
}

func TestRunMissingOutputFileFailsJob(t *testing.T) {
	chdir(t)
	writeFile(t, "mirs.fa", ">m\nUGGAAUGUAAAGAAGUAUGUAU\n")
	writeFile(t, "utrs.fa", ">gene1\nACGTACGTACGTACGTACGTACGTA\n")

	cfg := baseConfig(t)
	cfg.Predictor = &stubPredictor{skipWrite: true}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Results[0].Err == nil {
		t.Error("missing output file must carry an error")
	}
}

func TestRunRenderErrorGoesToErrLog(t *testing.T) {
	chdir(t)
	writeFile(t, "mirs.fa", ">m\nUGGAAUGUAAAGAAGUAUGUAU\n")
	writeFile(t, "utrs.fa", ">gene1\nACGTACGTACGTACGTACGTACGTA\n")

	cfg := baseConfig(t)
	cfg.Predictor = &stubPredictor{}
	cfg.RenderFunc = func(int, []features.Feature, string, string) error {
		return fmt.Errorf("no canvas")
	}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Failed != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	data, err := os.ReadFile("err.log")
	if err != nil {
		t.Fatalf("error log missing: %v", err)
	}
	if !strings.Contains(string(data), "no canvas") || !strings.Contains(string(data), "[ERROR]") {
		t.Errorf("error log entry malformed: %q", data)
	}
	assertNoTempFiles(t, cfg)
}

func TestRunPanicContained(t *testing.T) {
	chdir(t)
	writeFile(t, "mirs.fa", ">m\nUGGAAUGUAAAGAAGUAUGUAU\n")
	writeFile(t, "utrs.fa", ">gene1\nACGTACGTACGTACGTACGTACGTA\n>gene2\nACGTACGTACGTACGTACGTACGTA\n")

	cfg := baseConfig(t)
	cfg.Predictor = &stubPredictor{}
	first := true
	cfg.RenderFunc = func(n int, f []features.Feature, title, png string) error {
		if first {
			first = false
			panic("renderer bug")
		}
		return renderToFile(n, f, title, png)
	}

	sum, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("panic must not kill the batch: %v", err)
	}
	if sum.Failed != 1 || sum.Done != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	data, _ := os.ReadFile("err.log")
	if !strings.Contains(string(data), "panic: renderer bug") || !strings.Contains(string(data), "goroutine") {
		t.Errorf("panic not logged with stack: %q", data)
	}
	assertNoTempFiles(t, cfg)
}

func TestRunCleanupOnFatalError(t *testing.T) {
	chdir(t)
	writeFile(t, "mirs.fa", ">m\nUGGAAUGUAAAGAAGUAUGUAU\n")
	// UTR file intentionally absent: batch-fatal after seed extraction.

	cfg := baseConfig(t)
	cfg.Predictor = &stubPredictor{}

	if _, err := Run(context.Background(), cfg); err == nil {
		t.Fatal("expected batch-fatal error for missing UTR file")
	}
	assertNoTempFiles(t, cfg)
}
