//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/oshokin/schedule-bot-deploy/internal/logger"
)

// Runner executes external commands on behalf of a deployment flow.
// The installer shells out to apt, python and systemctl through this
// interface so tests can substitute fakes and assert on the call sequence.
type Runner interface {
	// Run executes the named command and blocks until it exits.
	// A non-zero exit status is returned as an error.
	Run(ctx context.Context, name string, args ...string) error
}

// ExecRunner runs commands via os/exec, streaming output to the operator.
type ExecRunner struct{}

// NewExecRunner returns a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run executes the command with the caller's environment.
// Stdout and stderr pass through so the underlying tool's diagnostics
// stay visible; the command inherits no timeout beyond the context.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	logger.InfoKV(ctx, "Running command", "command", FormatCommand(name, args...))

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", FormatCommand(name, args...), err)
	}

	return nil
}

// FormatCommand renders a command line for logs and error messages.
func FormatCommand(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}

	return name + " " + strings.Join(args, " ")
}
