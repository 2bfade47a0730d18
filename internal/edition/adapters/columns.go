// SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/collatex-critical/critedit/internal/edition"
	"github.com/goccy/go-yaml"
)

type columnsDocument struct {
	Witnesses []string        `yaml:"witnesses"`
	Columns   []yaml.MapSlice `yaml:"columns"`
}

// ColumnsAdapter reads hand-written or exported tables in YAML or JSON:
//
//	witnesses: [A, B, C]
//	columns:
//	  - {A: big, B: big, C: grey}
//	  - {A: old, B: null}
//
// Each column maps witness ids to readings; a null or missing key is a
// gap. When witnesses is omitted the first-seen key order is used.
type ColumnsAdapter struct{}

func NewColumnsAdapter() *ColumnsAdapter {
	return &ColumnsAdapter{}
}

func (a *ColumnsAdapter) Name() string {
	return "columns"
}

func (a *ColumnsAdapter) CanHandle(source edition.TableSource) bool {
	switch strings.ToLower(source.Format) {
	case "columns", "yaml", "yml":
		return true
	case "":
	default:
		return false
	}
	content := bytes.TrimSpace(source.Content)
	if bytes.HasPrefix(content, []byte("<")) {
		return false
	}
	return bytes.Contains(content, []byte(`"columns"`)) || bytes.Contains(content, []byte("columns:"))
}

func (a *ColumnsAdapter) Parse(_ context.Context, source edition.TableSource) (edition.Table, error) {
	var doc columnsDocument
	if err := yaml.Unmarshal(source.Content, &doc); err != nil {
		return edition.Table{}, edition.NewParse(a.Name(), source.ID, err)
	}

	table := edition.Table{
		Witnesses: doc.Witnesses,
		Columns:   make([]edition.Column, 0, len(doc.Columns)),
	}
	for i, entries := range doc.Columns {
		col := edition.Column{Index: i}
		for _, item := range entries {
			witness := fmt.Sprint(item.Key)
			text, present, err := scalarText(item.Value)
			if err != nil {
				return edition.Table{}, &edition.MalformedColumnError{Column: i, Witness: witness, Reason: err.Error()}
			}
			if present {
				col.Readings = append(col.Readings, edition.Reading{Witness: witness, Text: text})
			}
		}
		table.Columns = append(table.Columns, col)
	}
	return table, nil
}

func scalarText(v interface{}) (string, bool, error) {
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case bool, int, int64, uint64, float64:
		return fmt.Sprint(t), true, nil
	}
	return "", false, fmt.Errorf("reading is not text (got %T)", v)
}
