// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/collatex-critical/critedit/internal/edition"
	"github.com/collatex-critical/critedit/internal/edition/adapters"
)

// MetadataRenderCriticalEdition describes the render_critical_edition tool.
var MetadataRenderCriticalEdition = &mcp.Tool{
	Name: "render_critical_edition",
	Description: "Convert a collation table produced by CollateX into a critical edition: running " +
		"text built from the best-attested reading of each column, with numbered Markdown " +
		"footnotes listing the rejected readings and the witnesses attesting them. " +
		"Supported formats: collatex-json, collatex-xml, tei, columns (YAML or JSON). " +
		"Under the strict lacuna policy, readings attested by a single witness or missing from " +
		"half of the witnesses are shown as Φ and moved to the footnote.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"content"},
		"properties": map[string]interface{}{
			"content": map[string]interface{}{
				"type":        "string",
				"description": "Serialized alignment table",
			},
			"format": map[string]interface{}{
				"type":        "string",
				"description": "Format hint. If omitted, auto-detection is used.",
				"enum":        []string{"collatex-json", "json", "collatex-xml", "xml", "tei", "columns", "yaml"},
			},
			"source_id": map[string]interface{}{
				"type":        "string",
				"description": "Optional identifier for the table (file path, URL, etc.) used in logs.",
			},
			"witness_order": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Canonical witness order used to break ties. Defaults to the order in the table.",
			},
			"lacuna_policy": map[string]interface{}{
				"type": "string",
				"enum": []string{"strict", "simple"},
			},
			"merge_policy": map[string]interface{}{
				"type": "string",
				"enum": []string{"none", "single-lookahead", "unbounded-run"},
			},
		},
	},
}

// InputRenderCriticalEdition is the input for the RenderCriticalEdition tool.
type InputRenderCriticalEdition struct {
	Content      string   `json:"content"`
	Format       string   `json:"format"`
	SourceID     string   `json:"source_id"`
	WitnessOrder []string `json:"witness_order"`
	LacunaPolicy string   `json:"lacuna_policy"`
	MergePolicy  string   `json:"merge_policy"`
}

// OutputRenderCriticalEdition is the output for the RenderCriticalEdition tool.
type OutputRenderCriticalEdition struct {
	// Markdown is the body, a blank line and the footnote lines.
	Markdown  string             `json:"markdown"`
	Body      string             `json:"body"`
	Footnotes []edition.Footnote `json:"footnotes"`
	// AdapterUsed is the name of the adapter that read the table.
	AdapterUsed string `json:"adapter_used"`
	ColumnCount int    `json:"column_count"`
	// Digest is the BLAKE3 hash of Markdown.
	Digest string `json:"digest"`
}

// Renderer converts tables with a base set of options; tool inputs
// override them per call.
type Renderer struct {
	Defaults edition.Options
}

func NewRenderer(defaults edition.Options) *Renderer {
	return &Renderer{Defaults: defaults}
}

func (r *Renderer) options(input InputRenderCriticalEdition) edition.Options {
	opts := r.Defaults
	if len(input.WitnessOrder) > 0 {
		opts.WitnessOrder = input.WitnessOrder
	}
	if input.LacunaPolicy != "" {
		opts.Lacuna.Mode = edition.LacunaMode(input.LacunaPolicy)
	}
	if input.MergePolicy != "" {
		opts.Merge = edition.MergePolicy(input.MergePolicy)
	}
	return opts
}

// RenderCriticalEdition runs the edition pipeline over the provided table.
func (r *Renderer) RenderCriticalEdition(ctx context.Context, _ *mcp.CallToolRequest, input InputRenderCriticalEdition) (*mcp.CallToolResult, OutputRenderCriticalEdition, error) {
	if input.Content == "" {
		return nil, OutputRenderCriticalEdition{}, fmt.Errorf("content is required")
	}

	sourceID := input.SourceID
	if sourceID == "" {
		sourceID = "unknown"
	}

	src := edition.TableSource{
		Content: []byte(input.Content),
		Format:  input.Format,
		ID:      sourceID,
	}

	pipeline := edition.NewPipeline(r.options(input), adapters.Default()...)
	result, err := pipeline.RunWithMeta(ctx, src)
	if err != nil {
		return nil, OutputRenderCriticalEdition{}, err
	}

	ed := result.Edition
	return nil, OutputRenderCriticalEdition{
		Markdown:    ed.Markdown(),
		Body:        ed.Body,
		Footnotes:   ed.Footnotes,
		AdapterUsed: result.AdapterUsed,
		ColumnCount: result.ColumnCount,
		Digest:      ed.Digest(),
	}, nil
}

// MetadataListTableFormats describes the list_table_formats tool.
var MetadataListTableFormats = &mcp.Tool{
	Name:        "list_table_formats",
	Description: "List the alignment table formats render_critical_edition can read, in detection order.",
}

type InputListTableFormats struct{}

type OutputListTableFormats struct {
	Formats []string `json:"formats"`
}

func ListTableFormats(_ context.Context, _ *mcp.CallToolRequest, _ InputListTableFormats) (*mcp.CallToolResult, OutputListTableFormats, error) {
	return nil, OutputListTableFormats{Formats: adapters.Formats()}, nil
}
