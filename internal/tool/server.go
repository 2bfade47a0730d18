// SPDX-License-Identifier: Apache-2.0

// Package tool exposes critical edition rendering as MCP tools.
package tool

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/collatex-critical/critedit/internal/edition"
)

// NewServer returns an MCP server with all critedit tools registered.
// defaults are the conversion options used when a call does not set them.
func NewServer(version string, defaults edition.Options) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "critedit",
		Version: version,
	}, nil)

	renderer := NewRenderer(defaults)
	mcp.AddTool(server, MetadataRenderCriticalEdition, renderer.RenderCriticalEdition)
	mcp.AddTool(server, MetadataListTableFormats, ListTableFormats)
	return server
}
