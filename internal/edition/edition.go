// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Lacuna is displayed in the running text when no reading qualifies as main text.
const Lacuna = "Φ"

// Reading is the text one witness attests at a column.
type Reading struct {
	Witness string
	Text    string
}

// Column is one aligned position of a collation table.
type Column struct {
	// Index is the position of the column in the source table.
	Index    int
	Readings []Reading
}

// Table is an alignment table produced by an external collation engine.
// Columns are in reading order and are never modified by a conversion.
type Table struct {
	// Witnesses is the order declared by, or first seen in, the source.
	Witnesses []string
	Columns   []Column
}

// InferWitnesses returns Witnesses when declared, otherwise the
// first-seen order of witnesses across the columns.
func (t Table) InferWitnesses() []string {
	if len(t.Witnesses) > 0 {
		return t.Witnesses
	}
	seen := make(map[string]bool)
	var ids []string
	for _, col := range t.Columns {
		for _, r := range col.Readings {
			if !seen[r.Witness] {
				seen[r.Witness] = true
				ids = append(ids, r.Witness)
			}
		}
	}
	return ids
}

// Variant is a distinct reading at a column with the witnesses attesting it.
type Variant struct {
	Text      string   `json:"text"`
	Witnesses []string `json:"witnesses"`
	// Precedence is the lowest canonical index among Witnesses.
	Precedence int `json:"-"`
}

// Support is the number of witnesses attesting the variant.
func (v Variant) Support() int {
	return len(v.Witnesses)
}

// Entry is one clause of a footnote.
type Entry struct {
	Text      string   `json:"text"`
	Witnesses []string `json:"witnesses"`
}

func (e Entry) String() string {
	return "[" + strings.Join(e.Witnesses, ",") + "] " + e.Text
}

// Footnote is a numbered apparatus entry.
type Footnote struct {
	Number  int     `json:"number"`
	Entries []Entry `json:"entries"`
}

// Marker is the in-body reference, e.g. "[^3]".
func (f Footnote) Marker() string {
	return fmt.Sprintf("[^%d]", f.Number)
}

// Content renders the clauses separated by "; ".
func (f Footnote) Content() string {
	parts := make([]string, len(f.Entries))
	for i, e := range f.Entries {
		parts[i] = e.String()
	}
	return strings.Join(parts, "; ")
}

// Line renders the footnote as it appears in the apparatus block.
func (f Footnote) Line() string {
	return f.Marker() + ": " + f.Content()
}

// Stats summarises one conversion.
type Stats struct {
	SourceColumns int `json:"source_columns"`
	MergedColumns int `json:"merged_columns"`
	Lacunae       int `json:"lacunae"`
}

// Edition is the result of a conversion: running text plus apparatus.
type Edition struct {
	Body      string     `json:"body"`
	Footnotes []Footnote `json:"footnotes"`
	Stats     Stats      `json:"stats"`
}

// Apparatus returns the footnote lines in ascending order.
func (e *Edition) Apparatus() []string {
	lines := make([]string, len(e.Footnotes))
	for i, f := range e.Footnotes {
		lines[i] = f.Line()
	}
	return lines
}

// Markdown renders the body, a blank line and the apparatus.
func (e *Edition) Markdown() string {
	return e.Body + "\n\n" + strings.Join(e.Apparatus(), "\n")
}

// Digest is the hex BLAKE3 hash of Markdown.
func (e *Edition) Digest() string {
	sum := blake3.Sum256([]byte(e.Markdown()))
	return hex.EncodeToString(sum[:])
}

// TableSource describes the raw input to the edition pipeline.
type TableSource struct {
	// Content is the serialized alignment table.
	Content []byte
	Format  string
	ID      string
}

// TableAdapter reads one serialized table shape.
type TableAdapter interface {
	CanHandle(source TableSource) bool
	Parse(ctx context.Context, source TableSource) (Table, error)
	Name() string
}
