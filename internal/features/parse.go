// Package features turns TargetScan output rows into drawable site features.
package features

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

// Feature is one predicted target site placed on the linear sequence map.
type Feature struct {
	Start  int
	End    int
	Strand int
	Color  string // hex, e.g. "#ff66cc"
	Label  string
}

// DefaultColor is used for any seed-match type outside the known set.
const DefaultColor = "#ccccff"

var matchColors = map[string]string{
	"6mer":    "#00ff99",
	"7mer-1a": "#9999ff",
	"7mer-m8": "#ff66cc",
	"8mer-1a": "#ff0000",
}

// MatchTypes lists the known seed-match classes in legend order.
var MatchTypes = []string{"6mer", "7mer-1a", "7mer-m8", "8mer-1a"}

// Color maps a seed-match type to its display color. Unknown types get
// DefaultColor; this never fails.
func Color(matchType string) string {
	if c, ok := matchColors[matchType]; ok {
		return c
	}
	return DefaultColor
}

// organism code prefix on miRNA names, e.g. "mmu-" or "hsa-"
var orgPrefix = regexp.MustCompile(`^[a-z]{3}-`)

// Parse reads TargetScan tabular output: one header line, then tab-separated
// rows with at least 9 columns (col 2 = miRNA label, col 4 = start,
// col 5 = end, col 9 = seed-match type). Malformed rows are reported via
// warnf and skipped; parsing always continues. Returned features preserve
// file order.
func Parse(r io.Reader, warnf func(string, ...any)) []Feature {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 8*1024*1024)

	var feats []Feature
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		line := strings.TrimRight(sc.Text(), "\r\n")
		if line == "" {
			continue
		}
		cols := strings.Split(line, "\t")
		if len(cols) < 9 {
			warnf("bad row (%d columns): %s", len(cols), line)
			continue
		}
		start, err := strconv.Atoi(cols[3])
		if err != nil {
			warnf("bad start %q: %s", cols[3], line)
			continue
		}
		end, err := strconv.Atoi(cols[4])
		if err != nil {
			warnf("bad end %q: %s", cols[4], line)
			continue
		}
		feats = append(feats, Feature{
			Start:  start,
			End:    end,
			Strand: +1,
			Color:  Color(cols[8]),
			Label:  orgPrefix.ReplaceAllString(cols[1], ""),
		})
	}
	if err := sc.Err(); err != nil {
		warnf("read predictor output: %v", err)
	}
	return feats
}

// ParseFile opens path and runs Parse over it.
func ParseFile(path string, warnf func(string, ...any)) ([]Feature, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = fh.Close() }()
	return Parse(fh, warnf), nil
}
