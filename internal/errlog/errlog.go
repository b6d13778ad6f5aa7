// Package errlog appends job failures to a persistent on-disk log.
package errlog

import (
	"fmt"
	"os"
)

// Log appends "[ERROR] ..." entries (plus an optional stack trace) to a
// single file. The zero value with an empty Path discards entries.
type Log struct {
	Path string
}

// Append records one failure. Write problems are returned, never fatal to
// callers by convention.
func (l *Log) Append(msg string, stack []byte) error {
	if l == nil || l.Path == "" {
		return nil
	}
	fh, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, werr := fmt.Fprintf(fh, "[ERROR] %s\n", msg); werr != nil && err == nil {
		err = werr
	}
	if len(stack) > 0 {
		if _, werr := fh.Write(append(stack, '\n')); werr != nil && err == nil {
			err = werr
		}
	}
	if cerr := fh.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// Appendf is Append with formatting and no stack.
func (l *Log) Appendf(format string, a ...any) error {
	return l.Append(fmt.Sprintf(format, a...), nil)
}
