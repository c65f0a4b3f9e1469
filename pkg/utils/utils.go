package utils

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

type CommandResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

/* CommandRunner is the boundary between the network code and the
 * system tools it drives. Everything that spawns a process goes
 * through one of these so tests can swap in a fake.
 *
 * Run returns a non-nil error when the command could not be started
 * or exited non-zero; the result is populated in both cases.
 */
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (CommandResult, error)
}

type ExecRunner struct {
	Log logrus.FieldLogger
}

func NewExecRunner(log logrus.FieldLogger) ExecRunner {
	return ExecRunner{Log: log}
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	// tool output is parsed, keep it untranslated
	cmd.Env = append(os.Environ(), "LC_ALL=C")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := CommandResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: cmd.ProcessState.ExitCode(),
	}

	entry := r.Log.WithFields(logrus.Fields{
		"cmd":  CommandLine(name, args...),
		"exit": res.ExitCode,
	})
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			res.ExitCode = -1
		}
		entry.WithError(err).Debug("Command failed")
		if s := strings.TrimSpace(res.Stderr); s != "" {
			entry.Debug(s)
		}
		return res, fmt.Errorf("%s: %w", name, err)
	}

	entry.Debug("Command completed")
	return res, nil
}

// CommandLine renders a command for logs and process matching.
func CommandLine(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}
