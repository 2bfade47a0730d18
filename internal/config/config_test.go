// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collatex-critical/critedit/internal/config"
	"github.com/collatex-critical/critedit/internal/edition"
)

func TestDefault(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, edition.DefaultOptions(), cfg.EditionOptions())
	assert.True(t, cfg.WitnessOrder.Infer())
	assert.Equal(t, []string{"devanagari", "slp1", "iast"}, cfg.Scripts)
	assert.Equal(t, "Noto Serif Devanagari", cfg.Font("devanagari"))
}

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		content        string
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, cfg *config.Config)
	}{
		{
			name:    "empty file keeps defaults",
			content: "",
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name:    "comment-only file keeps defaults",
			content: "# critedit settings\n# lacuna_policy: simple\n",
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name:    "document marker with only a comment keeps defaults",
			content: "---\n# nothing yet\n",
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name: "policies and explicit witness order",
			content: `lacuna_policy: simple
merge_policy: single-lookahead
witness_order: [B, A, 3]
normalize: nfc
`,
			validateOutput: func(t *testing.T, cfg *config.Config) {
				opts := cfg.EditionOptions()
				assert.Equal(t, edition.LacunaSimple, opts.Lacuna.Mode)
				assert.Equal(t, edition.MergeSingleLookahead, opts.Merge)
				assert.Equal(t, []string{"B", "A", "3"}, opts.WitnessOrder)
				assert.Equal(t, edition.NormalizeNFC, opts.Normalization)
			},
		},
		{
			name:    "inferred witness order",
			content: "witness_order: infer-from-input\n",
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.True(t, cfg.WitnessOrder.Infer())
				assert.Nil(t, cfg.EditionOptions().WitnessOrder)
			},
		},
		{
			name: "thresholds",
			content: `lacuna:
  max_support: 2
  missing_fraction: 0.75
`,
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 2, cfg.EditionOptions().Lacuna.MaxSupport)
				assert.InDelta(t, 0.75, cfg.EditionOptions().Lacuna.MissingFraction, 1e-9)
			},
		},
		{
			name: "single script project",
			content: `scripts: [slp1]
input_script: slp1
fonts:
  slp1: Gentium
render:
  formats: [html]
`,
			validateOutput: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "Gentium", cfg.Font("slp1"))
				assert.Equal(t, []string{"html"}, cfg.Render.Formats)
			},
		},
		{
			name:        "unknown witness order keyword",
			content:     "witness_order: alphabetical\n",
			wantErr:     true,
			errContains: "witness_order",
		},
		{
			name:        "unknown key",
			content:     "colour: red\n",
			wantErr:     true,
			errContains: "colour",
		},
		{
			name:        "unknown lacuna policy",
			content:     "lacuna_policy: loose\n",
			wantErr:     true,
			errContains: "lacuna_policy",
		},
		{
			name:        "missing fraction above one",
			content:     "lacuna: {max_support: 1, missing_fraction: 1.5}\n",
			wantErr:     true,
			errContains: "missing_fraction",
		},
		{
			name:        "empty witness id",
			content:     "witness_order: [A, \"\"]\n",
			wantErr:     true,
			errContains: "witness_order",
		},
		{
			name:        "zero missing fraction",
			content:     "lacuna: {max_support: 1, missing_fraction: 0}\n",
			wantErr:     true,
			errContains: "missing_fraction",
		},
		{
			name:        "zero workers",
			content:     "workers: 0\n",
			wantErr:     true,
			errContains: "workers",
		},
		{
			name:        "unknown render format",
			content:     "render: {formats: [docx], pdf_engine: xelatex, html_header: \"\", tex_header: \"\"}\n",
			wantErr:     true,
			errContains: "formats",
		},
		{
			name:        "input script not published",
			content:     "scripts: [slp1, iast]\n",
			wantErr:     true,
			errContains: `script "devanagari" is not listed`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := config.Parse([]byte(tt.content))
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, config.ErrInvalidConfig)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			if tt.validateOutput != nil {
				tt.validateOutput(t, cfg)
			}
		})
	}
}

func TestValidate_MissingFont(t *testing.T) {
	cfg := config.Default()
	delete(cfg.Fonts, "iast")
	err := cfg.Validate()
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Contains(t, err.Error(), `no font for script "iast"`)

	cfg.Render.Formats = nil
	assert.NoError(t, cfg.Validate(), "fonts are only needed for rendering")
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte("merge_policy: none\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.MergePolicy)

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	cfg, err = config.LoadOptional(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
