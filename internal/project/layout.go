// SPDX-License-Identifier: Apache-2.0

// Package project builds critical editions from a directory of witness
// files:
//
//	input/<id>/<script>/*.txt      witnesses, one file each
//	output/<id>/<script>/<id>.json alignment table (collation script only)
//	output/<id>/<script>/<id>.md   edition, plus .html/.tex/.pdf
//	output/<id>/manifest.json      run record
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrInvalidProject is returned for project ids that are not a plain
	// directory name.
	ErrInvalidProject = errors.New("invalid project id")
	// ErrNoWitnesses is returned when a project has no witness files.
	ErrNoWitnesses = errors.New("no witness files")
)

var validID = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateID rejects ids that would escape the project tree.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || len(id) > 128 || !validID.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidProject, id)
	}
	return nil
}

// Layout resolves project paths under Root.
type Layout struct {
	Root string
}

func (l Layout) InputDir(id, script string) string {
	return filepath.Join(l.Root, "input", id, script)
}

func (l Layout) ProjectOutput(id string) string {
	return filepath.Join(l.Root, "output", id)
}

func (l Layout) OutputDir(id, script string) string {
	return filepath.Join(l.ProjectOutput(id), script)
}

// OutputFile is output/<id>/<script>/<id>.<ext>.
func (l Layout) OutputFile(id, script, ext string) string {
	return filepath.Join(l.OutputDir(id, script), id+"."+ext)
}

func (l Layout) ManifestPath(id string) string {
	return filepath.Join(l.ProjectOutput(id), "manifest.json")
}

// Projects lists the project ids found under input/.
func (l Layout) Projects() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.Root, "input"))
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() && ValidateID(e.Name()) == nil {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

// SourceFiles returns the regular files in the script directory of a
// project, in witness order.
func (l Layout) SourceFiles(id, script string) ([]string, error) {
	return l.list(id, script, func(string) bool { return true })
}

// WitnessFiles returns the .txt files of a script directory in witness
// order: numeric prefixes compare as numbers, so 2.txt precedes 10.txt.
func (l Layout) WitnessFiles(id, script string) ([]string, error) {
	return l.list(id, script, func(name string) bool { return strings.HasSuffix(name, ".txt") })
}

func (l Layout) list(id, script string, keep func(string) bool) ([]string, error) {
	dir := l.InputDir(id, script)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w in %s", ErrNoWitnesses, dir)
		}
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && keep(e.Name()) {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoWitnesses, dir)
	}
	SortWitnessNames(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

var numericPrefix = regexp.MustCompile(`^\d+`)

// SortWitnessNames orders file names by their leading number, names
// without one after numbered names and by name.
func SortWitnessNames(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := leadingNumber(names[i])
		b, bok := leadingNumber(names[j])
		switch {
		case aok && bok && a != b:
			return a < b
		case aok != bok:
			return aok
		}
		return names[i] < names[j]
	})
}

func leadingNumber(name string) (uint64, bool) {
	digits := numericPrefix.FindString(name)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
