// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/collatex-critical/critedit/internal/edition"
	"github.com/collatex-critical/critedit/internal/edition/adapters"
	"github.com/collatex-critical/critedit/internal/project"
	"github.com/collatex-critical/critedit/internal/runner"
	"github.com/collatex-critical/critedit/internal/tool"
	"github.com/collatex-critical/critedit/internal/translit"
)

// newRunner is replaced in tests.
var newRunner = func() runner.Runner { return runner.Exec{} }

// requireTools is replaced in tests.
var requireTools = runner.Require

func newConvertCmd(a *app) *cobra.Command {
	var (
		format       string
		witnessOrder []string
		lacuna       string
		merge        string
		output       string
		from, to     string
	)
	cmd := &cobra.Command{
		Use:   "convert FILE",
		Short: "Convert one alignment table to a Markdown edition",
		Long: "Convert reads a CollateX JSON or XML table, a TEI apparatus or a columns\n" +
			"table and writes the running text with its apparatus. FILE \"-\" reads stdin.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			opts := a.cfg.EditionOptions()
			if len(witnessOrder) > 0 {
				opts.WitnessOrder = witnessOrder
			}
			if lacuna != "" {
				opts.Lacuna.Mode = edition.LacunaMode(lacuna)
			}
			if merge != "" {
				opts.Merge = edition.MergePolicy(merge)
			}

			pipeline := edition.NewPipeline(opts, adapters.Default()...)
			ed, err := pipeline.Run(cmd.Context(), edition.TableSource{
				Content: content,
				Format:  format,
				ID:      args[0],
			})
			if err != nil {
				return err
			}

			if to != "" && to != from {
				t := translit.NewSanscript(a.cfg.Tools.Sanscript, newRunner())
				if ed, err = translit.Edition(cmd.Context(), t, ed, from, to); err != nil {
					return err
				}
			}

			if output == "" || output == "-" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), ed.Markdown())
				return err
			}
			return os.WriteFile(output, []byte(ed.Markdown()+"\n"), 0o644)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&format, "format", "f", "", "table format (default: detect)")
	flags.StringSliceVar(&witnessOrder, "witness-order", nil, "witness ids in precedence order")
	flags.StringVar(&lacuna, "lacuna", "", "lacuna policy: strict or simple")
	flags.StringVar(&merge, "merge", "", "merge policy: none, single-lookahead or unbounded-run")
	flags.StringVarP(&output, "output", "o", "", "write the edition to this file instead of stdout")
	flags.StringVar(&from, "from", "slp1", "script of the table")
	flags.StringVar(&to, "to", "", "transliterate the edition into this script")
	return cmd
}

func readInput(stdin io.Reader, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(name)
}

// requiredTools lists the programs a project build runs.
func (a *app) requiredTools() []string {
	tools := []string{a.cfg.Tools.Java, a.cfg.Tools.Sanscript}
	if len(a.cfg.Render.Formats) > 0 {
		tools = append(tools, a.cfg.Tools.Pandoc)
	}
	return tools
}

func newGenerateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "generate PROJECT...",
		Short: "Build the editions of one or more projects",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTools(a.requiredTools()...); err != nil {
				return err
			}
			g := project.NewGenerator(a.root, a.cfg, newRunner())
			for _, id := range args {
				m, err := g.Generate(cmd.Context(), id)
				if err != nil {
					return err
				}
				printManifest(cmd.OutOrStdout(), m)
			}
			return nil
		},
	}
}

func newBatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "batch [PROJECT...]",
		Short: "Build several projects concurrently (default: every project under input/)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireTools(a.requiredTools()...); err != nil {
				return err
			}
			g := project.NewGenerator(a.root, a.cfg, newRunner())
			ids := args
			if len(ids) == 0 {
				var err error
				if ids, err = g.Layout.Projects(); err != nil {
					return err
				}
			}

			results, err := g.Batch(cmd.Context(), ids)
			for _, r := range results {
				if r.Err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: failed: %v\n", r.Project, r.Err)
					continue
				}
				printManifest(cmd.OutOrStdout(), r.Manifest)
			}
			return err
		},
	}
}

func printManifest(w io.Writer, m *project.Manifest) {
	fmt.Fprintf(w, "%s: %d witnesses, %d outputs (run %s)\n", m.Project, len(m.Witnesses), len(m.Outputs), m.RunID)
}

func newBundleCmd(a *app) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "bundle PROJECT",
		Short: "Pack the outputs of a project into a tar.xz archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := project.Layout{Root: a.root}.Bundle(args[0], output)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "archive path (default output/PROJECT.tar.xz)")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the edition tools over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			server := tool.NewServer(version, a.cfg.EditionOptions())
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}
}

func newAdaptersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adapters",
		Short: "List the table formats in detection order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, name := range adapters.Formats() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
