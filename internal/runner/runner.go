// SPDX-License-Identifier: Apache-2.0

// Package runner starts the external programs a project build depends on:
// the transliterator, the collator and pandoc.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/collatex-critical/critedit/internal/logging"
)

// ErrNotInstalled is returned when a program cannot be found on PATH.
var ErrNotInstalled = errors.New("program not installed")

// Runner runs one command to completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) error
}

// CommandError reports a command that exited unsuccessfully.
type CommandError struct {
	Name     string
	Args     []string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s exited with status %d", e.Name, e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

// lookPath is replaced in tests.
var lookPath = exec.LookPath

// Exec runs commands with os/exec.
type Exec struct {
	// Timeout bounds each command; zero means no limit.
	Timeout time.Duration
}

func (e Exec) Run(ctx context.Context, name string, args ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	logging.LoggerFromContext(ctx).Debug("running command", "name", name, "args", strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	if err == nil {
		logging.LoggerFromContext(ctx).Debug("command done", "name", name, "duration_ms", time.Since(start).Milliseconds())
		return nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &CommandError{
			Name:     name,
			Args:     args,
			ExitCode: exitErr.ExitCode(),
			Stderr:   strings.TrimSpace(stderr.String()),
		}
	}
	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotInstalled, name)
	}
	return fmt.Errorf("failed to run %s: %w", name, err)
}

// Require returns ErrNotInstalled unless every named program is on PATH.
func Require(names ...string) error {
	var missing []string
	for _, name := range names {
		if _, err := lookPath(name); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrNotInstalled, strings.Join(missing, ", "))
	}
	return nil
}
