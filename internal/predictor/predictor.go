// Package predictor defines the boundary to the external TargetScan process.
package predictor

import (
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Predictor runs one target-site scan: given a seed table and a single-row
// target table, it must produce an output table at outputPrefix or fail.
// Implementations must be safe to call sequentially; nothing here supports
// concurrent calls against shared table paths.
type Predictor interface {
	Predict(ctx context.Context, seedTable, targetTable, outputPrefix string) ([]byte, error)
}

// RunError is a failed predictor invocation with its captured output.
type RunError struct {
	Cmd    string
	Output []byte
	Err    error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("predictor %s: %v", e.Cmd, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Exec invokes the predictor as a child process. Command is the argv prefix
// (e.g. ["perl", "targetscan_70.pl"]); the three table arguments are
// appended positionally. Stdout and stderr are captured together.
type Exec struct {
	Command []string
	Timeout time.Duration // 0 = no per-call timeout
}

// Predict blocks until the child exits or ctx/Timeout expires. The combined
// output is returned on success and retained inside RunError on failure.
func (x *Exec) Predict(ctx context.Context, seedTable, targetTable, outputPrefix string) ([]byte, error) {
	if len(x.Command) == 0 {
		return nil, &RunError{Cmd: "", Err: fmt.Errorf("empty predictor command")}
	}
	if x.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.Timeout)
		defer cancel()
	}
	args := append(append([]string(nil), x.Command[1:]...), seedTable, targetTable, outputPrefix)
	cmd := exec.CommandContext(ctx, x.Command[0], args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w (%v)", ctx.Err(), err)
		}
		return out, &RunError{Cmd: x.Command[0], Output: out, Err: err}
	}
	return out, nil
}
