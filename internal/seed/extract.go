// Package seed derives TargetScan seed tables from mature miRNA sequences.
package seed

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"easytargetscan/internal/fasta"
)

// Stats reports how many miRNA records produced a seed row and how many were
// too short to yield one.
type Stats struct {
	Written int
	Skipped int
}

// Extract streams miRNA records from mirFile and writes one tab-separated
// row per record to outPath: <id>\t<seed>\t<taxon>. The seed is
// seq[1:seedSize+1]; records shorter than seedSize+1 are skipped with a
// warning via warnf, not an error. Any existing file at outPath is
// overwritten.
func Extract(ctx context.Context, mirFile, outPath string, seedSize, taxon int, warnf func(string, ...any)) (Stats, error) {
	var st Stats

	fh, err := os.Create(outPath)
	if err != nil {
		return st, fmt.Errorf("seed table %s: %w", outPath, err)
	}
	w := bufio.NewWriter(fh)

	slen := seedSize + 1
	err = fasta.ForEachPath(ctx, mirFile, func(r fasta.Record) error {
		if len(r.Seq) < slen {
			st.Skipped++
			warnf("miRNA %s too short (len=%d), skipped", r.ID, len(r.Seq))
			return nil
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%d\n", r.ID, r.Seq[1:slen], taxon); err != nil {
			return err
		}
		st.Written++
		return nil
	})
	if err != nil {
		_ = fh.Close()
		return st, err
	}
	if err := w.Flush(); err != nil {
		_ = fh.Close()
		return st, err
	}
	return st, fh.Close()
}
