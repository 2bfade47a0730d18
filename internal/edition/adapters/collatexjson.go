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

// collatexDocument is the JSON alignment table written by
// `collatex-tools -f json`: one entry per column, one cell per witness
// position, each cell a list of tokens.
type collatexDocument struct {
	Witnesses []string        `yaml:"witnesses"`
	Table     [][]interface{} `yaml:"table"`
}

// CollateXJSONAdapter reads CollateX JSON alignment tables. JSON is parsed
// with the YAML decoder, of which it is a subset.
type CollateXJSONAdapter struct{}

func NewCollateXJSONAdapter() *CollateXJSONAdapter {
	return &CollateXJSONAdapter{}
}

func (a *CollateXJSONAdapter) Name() string {
	return "collatex-json"
}

// CanHandle returns true for the "collatex-json" and "json" format hints,
// or for a JSON object that carries a "table" member.
func (a *CollateXJSONAdapter) CanHandle(source edition.TableSource) bool {
	switch strings.ToLower(source.Format) {
	case "collatex-json", "json":
		return true
	case "":
	default:
		return false
	}
	content := bytes.TrimSpace(source.Content)
	return bytes.HasPrefix(content, []byte("{")) && bytes.Contains(content, []byte(`"table"`))
}

func (a *CollateXJSONAdapter) Parse(_ context.Context, source edition.TableSource) (edition.Table, error) {
	var doc collatexDocument
	if err := yaml.Unmarshal(source.Content, &doc); err != nil {
		return edition.Table{}, edition.NewParse(a.Name(), source.ID, err)
	}
	if len(doc.Table) > 0 && len(doc.Witnesses) == 0 {
		return edition.Table{}, edition.NewParse(a.Name(), source.ID, fmt.Errorf("table has columns but no witnesses"))
	}

	table := edition.Table{
		Witnesses: doc.Witnesses,
		Columns:   make([]edition.Column, 0, len(doc.Table)),
	}
	for i, cells := range doc.Table {
		if len(cells) > len(doc.Witnesses) {
			return edition.Table{}, &edition.MalformedColumnError{
				Column: i,
				Reason: fmt.Sprintf("%d cells for %d witnesses", len(cells), len(doc.Witnesses)),
			}
		}
		col := edition.Column{Index: i}
		for pos, cell := range cells {
			witness := doc.Witnesses[pos]
			text, present, err := cellText(cell)
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

// cellText concatenates the tokens of a cell. A null or empty cell is a
// gap. Tokens are strings or objects whose "t" member holds the original
// text including trailing whitespace.
func cellText(cell interface{}) (string, bool, error) {
	switch c := cell.(type) {
	case nil:
		return "", false, nil
	case string:
		return c, true, nil
	case []interface{}:
		if len(c) == 0 {
			return "", false, nil
		}
		var sb strings.Builder
		for _, tok := range c {
			switch t := tok.(type) {
			case string:
				sb.WriteString(t)
			case map[string]interface{}:
				text, ok := t["t"].(string)
				if !ok {
					return "", false, fmt.Errorf("token without text")
				}
				sb.WriteString(text)
			default:
				return "", false, fmt.Errorf("unexpected token of type %T", tok)
			}
		}
		return sb.String(), true, nil
	}
	return "", false, fmt.Errorf("unexpected cell of type %T", cell)
}
