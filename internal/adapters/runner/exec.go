// Package runner provides the external process execution adapter.
// It implements domain.Runner on top of os/exec.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/MyCarrier-DevOps/relgate/internal/domain"
)

// ExecRunner runs commands with the caller's working directory and
// environment. Calls block for the full duration of the command; no
// timeout is applied beyond what the passed context carries.
type ExecRunner struct {
	// Dir overrides the working directory when non-empty.
	Dir string

	// Env replaces the inherited environment when non-nil.
	Env []string
}

// NewExecRunner creates an ExecRunner that inherits the current
// process's working directory and environment.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// NewExecRunnerAt creates an ExecRunner running commands in dir.
func NewExecRunnerAt(dir string) *ExecRunner {
	return &ExecRunner{Dir: dir}
}

// Run executes argv and reports its exit status. A non-zero exit is
// not an error: the CommandResult carries the status for the caller to
// inspect. The error return is reserved for being unable to start the
// command at all. Uncaptured streams are forwarded to the operator's
// own stdout/stderr.
func (r *ExecRunner) Run(ctx context.Context, argv []string, captureStdout, captureStderr bool) (domain.CommandResult, error) {
	if len(argv) == 0 {
		return domain.CommandResult{}, errors.New("empty command")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = r.Dir
	if r.Env != nil {
		cmd.Env = r.Env
	}

	var stdout, stderr bytes.Buffer
	if captureStdout {
		cmd.Stdout = &stdout
	} else {
		cmd.Stdout = os.Stdout
	}
	if captureStderr {
		cmd.Stderr = &stderr
	} else {
		cmd.Stderr = os.Stderr
	}

	err := cmd.Run()
	result := domain.CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("cannot run %s: %w", argv[0], err)
	}

	return result, nil
}
