// SPDX-License-Identifier: Apache-2.0

// Package config loads critedit.yaml: conversion policies, the scripts a
// project is published in and the external tools a build runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/goccy/go-yaml"
	"github.com/goccy/go-yaml/ast"
	"github.com/goccy/go-yaml/parser"

	"github.com/collatex-critical/critedit/internal/edition"
)

// FileName is the config file looked up in a project root.
const FileName = "critedit.yaml"

// InferWitnessOrder is the witness_order value that takes the order from
// the input table.
const InferWitnessOrder = "infer-from-input"

// DefaultCollateXURL is where collatex-tools 1.7.1 is published.
const DefaultCollateXURL = "https://oss.sonatype.org/service/local/repositories/releases/content/" +
	"eu/interedition/collatex-tools/1.7.1/collatex-tools-1.7.1.jar"

// ErrInvalidConfig is returned when a config does not satisfy the schema.
var ErrInvalidConfig = errors.New("invalid config")

//go:embed schema.cue
var schemaSource string

// Config is the content of critedit.yaml.
type Config struct {
	LacunaPolicy    string            `yaml:"lacuna_policy"`
	Lacuna          Thresholds        `yaml:"lacuna"`
	MergePolicy     string            `yaml:"merge_policy"`
	WitnessOrder    WitnessOrder      `yaml:"witness_order"`
	Normalize       string            `yaml:"normalize"`
	Scripts         []string          `yaml:"scripts"`
	InputScript     string            `yaml:"input_script"`
	CollationScript string            `yaml:"collation_script"`
	Tools           Tools             `yaml:"tools"`
	Fonts           map[string]string `yaml:"fonts"`
	Render          Render            `yaml:"render"`
	Log             Log               `yaml:"log"`
	Workers         int               `yaml:"workers"`
}

// Thresholds tune the strict lacuna policy.
type Thresholds struct {
	MaxSupport      int     `yaml:"max_support"`
	MissingFraction float64 `yaml:"missing_fraction"`
}

type Tools struct {
	Java string `yaml:"java"`
	// CollateXJar is the collatex-tools jar; "" means the cached download.
	CollateXJar string `yaml:"collatex_jar"`
	CollateXURL string `yaml:"collatex_url"`
	Sanscript   string `yaml:"sanscript"`
	Pandoc      string `yaml:"pandoc"`
}

// Render controls the pandoc outputs written next to each Markdown file.
type Render struct {
	Formats    []string `yaml:"formats"`
	PDFEngine  string   `yaml:"pdf_engine"`
	HTMLHeader string   `yaml:"html_header"`
	TeXHeader  string   `yaml:"tex_header"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WitnessOrder is either a list of witness ids or "infer-from-input".
type WitnessOrder struct {
	IDs []string
}

// Infer reports whether the order comes from the input table.
func (w WitnessOrder) Infer() bool {
	return len(w.IDs) == 0
}

func (w *WitnessOrder) UnmarshalYAML(b []byte) error {
	var raw interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("witness_order: %w", err)
	}
	switch v := raw.(type) {
	case string:
		if v != InferWitnessOrder {
			return fmt.Errorf("witness_order: expected a list or %q, got %q", InferWitnessOrder, v)
		}
		w.IDs = nil
		return nil
	case []interface{}:
		ids := make([]string, len(v))
		for i, item := range v {
			switch id := item.(type) {
			case string:
				ids[i] = id
			case int, int64, uint64:
				ids[i] = fmt.Sprint(id)
			default:
				return fmt.Errorf("witness_order: entry %d is not a witness id", i)
			}
		}
		w.IDs = ids
		return nil
	}
	return fmt.Errorf("witness_order: expected a list or %q", InferWitnessOrder)
}

func (w WitnessOrder) MarshalYAML() (interface{}, error) {
	if w.Infer() {
		return InferWitnessOrder, nil
	}
	return w.IDs, nil
}

// Default returns the settings the command line uses without a config
// file: witnesses typed in Devanagari, collated in SLP1, published in
// Devanagari, SLP1 and IAST.
func Default() *Config {
	opts := edition.DefaultOptions()
	return &Config{
		LacunaPolicy: string(opts.Lacuna.Mode),
		Lacuna: Thresholds{
			MaxSupport:      opts.Lacuna.MaxSupport,
			MissingFraction: opts.Lacuna.MissingFraction,
		},
		MergePolicy:     string(opts.Merge),
		Normalize:       edition.NormalizeNone,
		Scripts:         []string{"devanagari", "slp1", "iast"},
		InputScript:     "devanagari",
		CollationScript: "slp1",
		Tools: Tools{
			Java:        "java",
			CollateXURL: DefaultCollateXURL,
			Sanscript:   "sanscript",
			Pandoc:      "pandoc",
		},
		Fonts: map[string]string{
			"devanagari": "Noto Serif Devanagari",
			"slp1":       "Noto Serif",
			"iast":       "Noto Serif",
		},
		Render: Render{
			Formats:   []string{"html", "tex", "pdf"},
			PDFEngine: "xelatex",
		},
		Log:     Log{Level: "info", Format: "text"},
		Workers: 4,
	}
}

// Load reads path over the defaults and validates the result. Keys that
// are not part of the schema are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load for in-memory content.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	file, err := parser.ParseBytes(data, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if !hasBody(file) {
		return cfg, nil
	}
	if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// hasBody reports whether any document of file holds more than comments
// or a bare null. Decoding such a file would zero the defaults.
func hasBody(file *ast.File) bool {
	for _, doc := range file.Docs {
		if doc == nil || doc.Body == nil {
			continue
		}
		switch doc.Body.Type() {
		case ast.CommentType, ast.NullType:
			continue
		}
		return true
	}
	return false
}

// LoadOptional loads path when it exists and falls back to Default.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return Load(path)
}

// Validate checks the config against the embedded CUE schema and the
// constraints between fields the schema cannot express.
func (c *Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compiling config schema: %w", err)
	}

	v := schema.Unify(ctx.Encode(c.document()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, cueerrors.Details(err, nil))
	}

	for _, s := range []string{c.InputScript, c.CollationScript} {
		if !slices.Contains(c.Scripts, s) {
			return fmt.Errorf("%w: script %q is not listed in scripts", ErrInvalidConfig, s)
		}
	}
	if len(c.Render.Formats) > 0 {
		for _, s := range c.Scripts {
			if c.Fonts[s] == "" {
				return fmt.Errorf("%w: no font for script %q", ErrInvalidConfig, s)
			}
		}
	}
	return nil
}

// document is the config as the schema sees it.
func (c *Config) document() map[string]interface{} {
	var order interface{} = InferWitnessOrder
	if !c.WitnessOrder.Infer() {
		order = append([]string{}, c.WitnessOrder.IDs...)
	}
	fonts := make(map[string]string, len(c.Fonts))
	for k, v := range c.Fonts {
		fonts[k] = v
	}
	return map[string]interface{}{
		"lacuna_policy": c.LacunaPolicy,
		"lacuna": map[string]interface{}{
			"max_support":      c.Lacuna.MaxSupport,
			"missing_fraction": c.Lacuna.MissingFraction,
		},
		"merge_policy":     c.MergePolicy,
		"witness_order":    order,
		"normalize":        c.Normalize,
		"scripts":          append([]string{}, c.Scripts...),
		"input_script":     c.InputScript,
		"collation_script": c.CollationScript,
		"tools": map[string]interface{}{
			"java":         c.Tools.Java,
			"collatex_jar": c.Tools.CollateXJar,
			"collatex_url": c.Tools.CollateXURL,
			"sanscript":    c.Tools.Sanscript,
			"pandoc":       c.Tools.Pandoc,
		},
		"fonts": fonts,
		"render": map[string]interface{}{
			"formats":     append([]string{}, c.Render.Formats...),
			"pdf_engine":  c.Render.PDFEngine,
			"html_header": c.Render.HTMLHeader,
			"tex_header":  c.Render.TeXHeader,
		},
		"log": map[string]interface{}{
			"level":  c.Log.Level,
			"format": c.Log.Format,
		},
		"workers": c.Workers,
	}
}

// EditionOptions returns the conversion options the config selects.
func (c *Config) EditionOptions() edition.Options {
	return edition.Options{
		Lacuna: edition.LacunaPolicy{
			Mode:            edition.LacunaMode(c.LacunaPolicy),
			MaxSupport:      c.Lacuna.MaxSupport,
			MissingFraction: c.Lacuna.MissingFraction,
		},
		Merge:         edition.MergePolicy(c.MergePolicy),
		WitnessOrder:  append([]string(nil), c.WitnessOrder.IDs...),
		Normalization: c.Normalize,
	}
}

// Font returns the main font for script.
func (c *Config) Font(script string) string {
	return c.Fonts[script]
}
