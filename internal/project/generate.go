// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"

	"github.com/collatex-critical/critedit/internal/config"
	"github.com/collatex-critical/critedit/internal/edition"
	"github.com/collatex-critical/critedit/internal/edition/adapters"
	"github.com/collatex-critical/critedit/internal/logging"
	"github.com/collatex-critical/critedit/internal/runner"
	"github.com/collatex-critical/critedit/internal/translit"
)

// JarLocator returns the path of the collatex-tools jar.
type JarLocator interface {
	Jar(ctx context.Context) (string, error)
}

// Generator runs the whole build of a project: transliterate the
// witnesses, collate them, convert the table once and publish the edition
// in every configured script.
type Generator struct {
	Layout   Layout
	Config   *config.Config
	Runner   runner.Runner
	Translit translit.Transliterator
	Collator JarLocator

	now func() time.Time
}

// NewGenerator wires a Generator with the external tools named in cfg.
func NewGenerator(root string, cfg *config.Config, r runner.Runner) *Generator {
	return &Generator{
		Layout:   Layout{Root: root},
		Config:   cfg,
		Runner:   r,
		Translit: translit.NewSanscript(cfg.Tools.Sanscript, r),
		Collator: NewCollator(cfg.Tools),
		now:      time.Now,
	}
}

// Manifest records one project build.
type Manifest struct {
	RunID        string          `json:"run_id"`
	Project      string          `json:"project"`
	CreatedAt    time.Time       `json:"created_at"`
	Options      ManifestOptions `json:"options"`
	Adapter      string          `json:"adapter"`
	Witnesses    []string        `json:"witnesses"`
	WitnessFiles []string        `json:"witness_files"`
	Stats        edition.Stats   `json:"stats"`
	Outputs      []Output        `json:"outputs"`
}

type ManifestOptions struct {
	LacunaPolicy    string   `json:"lacuna_policy"`
	MaxSupport      int      `json:"max_support"`
	MissingFraction float64  `json:"missing_fraction"`
	MergePolicy     string   `json:"merge_policy"`
	WitnessOrder    []string `json:"witness_order,omitempty"`
	Normalize       string   `json:"normalize"`
}

// Output is one written file, relative to output/<id>.
type Output struct {
	Script string `json:"script"`
	Format string `json:"format"`
	Path   string `json:"path"`
	Digest string `json:"blake3"`
}

// build carries the state of one Generate call between steps.
type build struct {
	id       string
	table    string
	edition  *edition.Edition
	manifest *Manifest
}

type step struct {
	name string
	run  func(ctx context.Context, b *build) error
}

// Generate builds project id. Each step is logged; the first failing
// step ends the build.
func (g *Generator) Generate(ctx context.Context, id string) (*Manifest, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	runID := logging.NewRunID()
	ctx = logging.WithRunID(ctx, runID)

	now := time.Now
	if g.now != nil {
		now = g.now
	}
	b := &build{
		id: id,
		manifest: &Manifest{
			RunID:     runID,
			Project:   id,
			CreatedAt: now().UTC(),
			Options:   manifestOptions(g.Config),
		},
	}

	steps := []step{
		{"prepare", g.prepare},
		{"transliterate", g.transliterate},
		{"collate", g.collate},
		{"convert", g.convert},
		{"publish", g.publish},
		{"render", g.render},
		{"manifest", g.writeManifest},
	}
	for _, s := range steps {
		start := time.Now()
		if err := s.run(ctx, b); err != nil {
			logging.StepError(ctx, id, s.name, err)
			return nil, fmt.Errorf("project %s: %s: %w", id, s.name, err)
		}
		logging.Step(ctx, id, s.name, "duration_ms", time.Since(start).Milliseconds())
	}
	return b.manifest, nil
}

func manifestOptions(cfg *config.Config) ManifestOptions {
	return ManifestOptions{
		LacunaPolicy:    cfg.LacunaPolicy,
		MaxSupport:      cfg.Lacuna.MaxSupport,
		MissingFraction: cfg.Lacuna.MissingFraction,
		MergePolicy:     cfg.MergePolicy,
		WitnessOrder:    cfg.WitnessOrder.IDs,
		Normalize:       cfg.Normalize,
	}
}

func (g *Generator) prepare(_ context.Context, b *build) error {
	if _, err := g.Layout.SourceFiles(b.id, g.Config.InputScript); err != nil {
		return err
	}
	for _, script := range g.Config.Scripts {
		for _, dir := range []string{g.Layout.InputDir(b.id, script), g.Layout.OutputDir(b.id, script)} {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}
	}
	return nil
}

// transliterate copies every source file of the input script into the
// other scripts.
func (g *Generator) transliterate(ctx context.Context, b *build) error {
	from := g.Config.InputScript
	sources, err := g.Layout.SourceFiles(b.id, from)
	if err != nil {
		return err
	}
	for _, src := range sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to read witness: %w", err)
		}
		for _, to := range g.Config.Scripts {
			if to == from {
				continue
			}
			out, err := g.Translit.Transliterate(ctx, string(data), from, to)
			if err != nil {
				return err
			}
			dest := filepath.Join(g.Layout.InputDir(b.id, to), filepath.Base(src))
			if err := os.WriteFile(dest, []byte(out), 0o644); err != nil {
				return fmt.Errorf("failed to write witness: %w", err)
			}
		}
	}
	return nil
}

func (g *Generator) collate(ctx context.Context, b *build) error {
	script := g.Config.CollationScript
	files, err := g.Layout.WitnessFiles(b.id, script)
	if err != nil {
		return err
	}
	jar, err := g.Collator.Jar(ctx)
	if err != nil {
		return err
	}

	b.table = g.Layout.OutputFile(b.id, script, "json")
	args := append([]string{"-jar", jar, "-f", "json", "-o", b.table}, files...)
	if err := g.Runner.Run(ctx, g.Config.Tools.Java, args...); err != nil {
		return err
	}
	if _, err := os.Stat(b.table); err != nil {
		return fmt.Errorf("collator wrote no table: %w", err)
	}

	b.manifest.WitnessFiles = make([]string, len(files))
	for i, f := range files {
		b.manifest.WitnessFiles[i] = filepath.Base(f)
	}
	return nil
}

func (g *Generator) convert(ctx context.Context, b *build) error {
	content, err := os.ReadFile(b.table)
	if err != nil {
		return fmt.Errorf("failed to read table: %w", err)
	}
	p := edition.NewPipeline(g.Config.EditionOptions(), adapters.Default()...)
	result, err := p.RunWithMeta(ctx, edition.TableSource{
		Content: content,
		Format:  "collatex-json",
		ID:      filepath.Base(b.table),
	})
	if err != nil {
		return err
	}
	b.edition = result.Edition
	b.manifest.Adapter = result.AdapterUsed
	b.manifest.Witnesses = result.Witnesses
	b.manifest.Stats = result.Edition.Stats
	return nil
}

// publish writes the edition as Markdown in every script.
func (g *Generator) publish(ctx context.Context, b *build) error {
	for _, script := range g.Config.Scripts {
		ed, err := translit.Edition(ctx, g.Translit, b.edition, g.Config.CollationScript, script)
		if err != nil {
			return err
		}
		path := g.Layout.OutputFile(b.id, script, "md")
		if err := os.WriteFile(path, []byte(ed.Markdown()), 0o644); err != nil {
			return fmt.Errorf("failed to write edition: %w", err)
		}
		if err := g.record(b, script, "md", path); err != nil {
			return err
		}
	}
	return nil
}

// render converts each Markdown edition with pandoc.
func (g *Generator) render(ctx context.Context, b *build) error {
	r := g.Config.Render
	for _, script := range g.Config.Scripts {
		md := g.Layout.OutputFile(b.id, script, "md")
		for _, format := range r.Formats {
			out := g.Layout.OutputFile(b.id, script, format)
			var args []string
			switch format {
			case "html":
				args = []string{"--standalone"}
				if r.HTMLHeader != "" {
					args = append(args, "--include-in-header="+r.HTMLHeader)
				}
				args = append(args, md, "--metadata", "title="+b.id+"_"+script, "-o", out)
			case "tex", "pdf":
				args = []string{md, "-o", out,
					"--pdf-engine=" + r.PDFEngine,
					"-V", "mainfont=" + g.Config.Font(script),
				}
				if r.TeXHeader != "" {
					args = append(args, "--include-in-header", r.TeXHeader)
				}
			default:
				return fmt.Errorf("unknown render format %q", format)
			}
			if err := g.Runner.Run(ctx, g.Config.Tools.Pandoc, args...); err != nil {
				return err
			}
			if err := g.record(b, script, format, out); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Generator) record(b *build, script, format, path string) error {
	digest, err := FileDigest(path)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(g.Layout.ProjectOutput(b.id), path)
	if err != nil {
		return err
	}
	b.manifest.Outputs = append(b.manifest.Outputs, Output{
		Script: script,
		Format: format,
		Path:   filepath.ToSlash(rel),
		Digest: digest,
	})
	return nil
}

func (g *Generator) writeManifest(_ context.Context, b *build) error {
	data, err := json.MarshalIndent(b.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize manifest: %w", err)
	}
	return os.WriteFile(g.Layout.ManifestPath(b.id), append(data, '\n'), 0o644)
}

// FileDigest is the hex BLAKE3 hash of a file.
func FileDigest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
