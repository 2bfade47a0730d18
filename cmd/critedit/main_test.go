// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collatex-critical/critedit/internal/config"
	"github.com/collatex-critical/critedit/internal/project"
	"github.com/collatex-critical/critedit/internal/runner"
)

const koalaJSON = `{
  "witnesses": ["A", "B", "C"],
  "table": [
    [[{"t": "The "}], [{"t": "The "}], [{"t": "The "}]],
    [[{"t": "big "}], [{"t": "big "}], [{"t": "grey "}]],
    [[], [{"t": "fuzzy "}], []],
    [[], [{"t": "koala"}], []],
    [[{"t": "end"}], [{"t": "end"}], [{"t": "end"}]]
  ]
}`

// upperRunner stands in for the sanscript program: it upper-cases the
// input file into the output file.
type upperRunner struct{}

func (upperRunner) Run(_ context.Context, _ string, args ...string) error {
	var in, out string
	for i := 0; i+1 < len(args); i++ {
		switch args[i] {
		case "--input-file":
			in = args[i+1]
		case "--output-file":
			out = args[i+1]
		}
	}
	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	return os.WriteFile(out, bytes.ToUpper(data), 0o644)
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func writeTable(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "koala.json")
	require.NoError(t, os.WriteFile(path, []byte(koalaJSON), 0o644))
	return path
}

func TestConvertCmd(t *testing.T) {
	table := writeTable(t)
	root := t.TempDir()

	orig := newRunner
	newRunner = func() runner.Runner { return upperRunner{} }
	t.Cleanup(func() { newRunner = orig })

	tests := []struct {
		name           string
		stdin          string
		args           []string
		wantErr        bool
		validateOutput func(t *testing.T, out string)
	}{
		{
			name: "default options from config",
			args: []string{"--root", root, "convert", table},
			validateOutput: func(t *testing.T, out string) {
				assert.Equal(t, "The big[^1] Φ[^2] end\n\n[^1]: [C] grey\n[^2]: [B] fuzzy koala\n", out)
			},
		},
		{
			name:  "stdin with policy flags",
			stdin: koalaJSON,
			args:  []string{"--root", root, "convert", "--lacuna", "simple", "--merge", "none", "-"},
			validateOutput: func(t *testing.T, out string) {
				assert.Equal(t, "The big[^1] fuzzy koala end\n\n[^1]: [C] grey\n", out)
			},
		},
		{
			name: "witness order flag",
			args: []string{"--root", root, "convert", "--lacuna", "simple", "--witness-order", "C,B,A", table},
			validateOutput: func(t *testing.T, out string) {
				assert.True(t, strings.HasPrefix(out, "The big[^1]"), out)
			},
		},
		{
			name: "transliteration keeps markers",
			args: []string{"--root", root, "convert", "--to", "iast", table},
			validateOutput: func(t *testing.T, out string) {
				assert.Equal(t, "THE BIG[^1] Φ[^2] END\n\n[^1]: [C] GREY\n[^2]: [B] FUZZY KOALA\n", out)
			},
		},
		{
			name:    "unknown merge policy",
			args:    []string{"--root", root, "convert", "--merge", "greedy", table},
			wantErr: true,
		},
		{
			name:    "missing file",
			args:    []string{"--root", root, "convert", filepath.Join(root, "absent.json")},
			wantErr: true,
		},
		{
			name:    "bad log level",
			args:    []string{"--root", root, "--log-level", "loud", "convert", table},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.stdin, tt.args...)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, out)
			}
		})
	}
}

func TestConvertCmd_OutputFile(t *testing.T) {
	table := writeTable(t)
	dest := filepath.Join(t.TempDir(), "koala.md")

	out, err := execute(t, "", "--root", t.TempDir(), "convert", "-o", dest, table)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "The big[^1] Φ[^2] end\n\n[^1]: [C] grey\n[^2]: [B] fuzzy koala\n", string(data))
}

func TestConvertCmd_ConfigFile(t *testing.T) {
	table := writeTable(t)
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, config.FileName),
		[]byte("lacuna_policy: simple\nmerge_policy: none\n"), 0o644))

	out, err := execute(t, "", "--root", root, "convert", table)
	require.NoError(t, err)
	assert.Equal(t, "The big[^1] fuzzy koala end\n\n[^1]: [C] grey\n", out)
}

func TestConvertCmd_InvalidConfig(t *testing.T) {
	table := writeTable(t)
	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("lacuna_policy: lenient\n"), 0o644))

	_, err := execute(t, "", "--config", cfgPath, "convert", table)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestAdaptersCmd(t *testing.T) {
	out, err := execute(t, "", "--root", t.TempDir(), "adapters")
	require.NoError(t, err)
	assert.Equal(t, "tei\ncollatex-xml\ncollatex-json\ncolumns\n", out)
}

func TestGenerateCmd_MissingTools(t *testing.T) {
	orig := requireTools
	var asked []string
	requireTools = func(names ...string) error {
		asked = names
		return fmt.Errorf("%w: java", runner.ErrNotInstalled)
	}
	t.Cleanup(func() { requireTools = orig })

	_, err := execute(t, "", "--root", t.TempDir(), "generate", "koala")
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrNotInstalled)
	assert.Equal(t, []string{"java", "sanscript", "pandoc"}, asked)

	_, err = execute(t, "", "--root", t.TempDir(), "batch")
	assert.ErrorIs(t, err, runner.ErrNotInstalled)
}

func TestGenerateCmd_RequiresProject(t *testing.T) {
	_, err := execute(t, "", "--root", t.TempDir(), "generate")
	assert.Error(t, err)
}

func TestBundleCmd(t *testing.T) {
	root := t.TempDir()
	l := project.Layout{Root: root}
	require.NoError(t, os.MkdirAll(l.OutputDir("koala", "slp1"), 0o755))
	require.NoError(t, os.WriteFile(l.OutputFile("koala", "slp1", "md"), []byte("the koala"), 0o644))

	out, err := execute(t, "", "--root", root, "bundle", "koala")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "output", "koala.tar.xz")+"\n", out)
	assert.FileExists(t, filepath.Join(root, "output", "koala.tar.xz"))

	_, err = execute(t, "", "--root", root, "bundle", "wombat")
	assert.Error(t, err)
}
