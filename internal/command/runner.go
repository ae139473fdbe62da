// Package command runs the external programs the pipeline depends on
// (pdftoppm, tesseract) behind an interface that tests can replace.
package command

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"taxdoc/internal/logger"
)

// maxStderrLog caps how much stderr is copied into log lines.
const maxStderrLog = 8 << 10

// Runner executes a program and returns its captured output.
type Runner interface {
	Run(ctx context.Context, stdin []byte, name string, args ...string) (stdout, stderr []byte, err error)
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, stdin, name, args...)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct {
	log zerolog.Logger
}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{log: logger.WithComponent("command")}
}

// Run executes name with args, feeding stdin when it is non-nil.
func (r *ExecRunner) Run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		r.log.Error().
			Err(err).
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Dur("duration", dur).
			Str("stderr", Truncate(errb.String(), maxStderrLog)).
			Msg("Command failed")
	} else {
		r.log.Debug().
			Str("cmd", name).
			Str("args", strings.Join(args, " ")).
			Dur("duration", dur).
			Int("stdout_bytes", out.Len()).
			Msg("Command finished")
	}

	return out.Bytes(), errb.Bytes(), err
}

// Truncate shortens s to at most max bytes, marking the cut.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
