// SPDX-License-Identifier: Apache-2.0

// Package translit converts editions between Sanskrit script schemes
// (devanagari, slp1, iast, ...) without touching footnote markers,
// witness tags or the lacuna sign.
package translit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/collatex-critical/critedit/internal/runner"
)

// ErrSegmentCount is returned when a transliterator does not return one
// line per line it was given.
var ErrSegmentCount = errors.New("transliterator changed the number of lines")

// Transliterator converts text from one scheme to another.
type Transliterator interface {
	Transliterate(ctx context.Context, text, from, to string) (string, error)
}

// Identity returns text unchanged.
type Identity struct{}

func (Identity) Transliterate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

// Sanscript runs the sanscript command line tool shipped with
// indic_transliteration. It works on files, so each call goes through a
// scratch directory.
type Sanscript struct {
	// Command defaults to "sanscript".
	Command string
	Runner  runner.Runner
	// TempDir is the parent of scratch directories; "" means os.TempDir.
	TempDir string
}

// NewSanscript returns a Sanscript that runs command through r.
func NewSanscript(command string, r runner.Runner) *Sanscript {
	if command == "" {
		command = "sanscript"
	}
	return &Sanscript{Command: command, Runner: r}
}

func (s *Sanscript) Transliterate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}
	dir, err := os.MkdirTemp(s.TempDir, "critedit-translit-*")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.txt")
	out := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(in, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("failed to write scratch input: %w", err)
	}
	if err := s.File(ctx, in, out, from, to); err != nil {
		return "", err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return "", fmt.Errorf("failed to read transliteration: %w", err)
	}
	result := string(data)
	if !strings.HasSuffix(text, "\n") {
		result = strings.TrimSuffix(result, "\n")
	}
	return result, nil
}

// File transliterates the file at in into out.
func (s *Sanscript) File(ctx context.Context, in, out, from, to string) error {
	cmd := s.Command
	if cmd == "" {
		cmd = "sanscript"
	}
	err := s.Runner.Run(ctx, cmd,
		"--from", from,
		"--to", to,
		"--input-file", in,
		"--output-file", out,
	)
	if err != nil {
		return fmt.Errorf("transliterating %s from %s to %s: %w", filepath.Base(in), from, to, err)
	}
	return nil
}
