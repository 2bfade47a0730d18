// SPDX-License-Identifier: Apache-2.0

package adapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/collatex-critical/critedit/internal/edition"
	"github.com/collatex-critical/critedit/internal/edition/adapters"
)

func readings(col edition.Column) map[string]string {
	out := map[string]string{}
	for _, r := range col.Readings {
		out[r.Witness] = r.Text
	}
	return out
}

// ---------------------------------------------------------------------------
// Detection
// ---------------------------------------------------------------------------

func TestDefault_Detection(t *testing.T) {
	tests := []struct {
		name    string
		source  edition.TableSource
		wantFmt string
	}{
		{"tei namespace", edition.TableSource{Content: []byte(`<TEI xmlns="http://www.tei-c.org/ns/1.0"><app/></TEI>`)}, "tei"},
		{"collatex apparatus", edition.TableSource{Content: []byte(`<cx:apparatus xmlns:cx="http://interedition.eu/collatex/ns/1.0">a <app/></cx:apparatus>`)}, "tei"},
		{"plain xml apparatus", edition.TableSource{Content: []byte(`<root><app><rdg wit="#A">x</rdg></app></root>`)}, "collatex-xml"},
		{"collatex json", edition.TableSource{Content: []byte(`{"witnesses": ["A"], "table": []}`)}, "collatex-json"},
		{"columns json", edition.TableSource{Content: []byte(`{"witnesses": ["A"], "columns": []}`)}, "columns"},
		{"columns yaml", edition.TableSource{Content: []byte("columns:\n  - {A: x}\n")}, "columns"},
		{"hint json", edition.TableSource{Format: "JSON", Content: []byte(`[]`)}, "collatex-json"},
		{"hint xml", edition.TableSource{Format: "xml"}, "collatex-xml"},
		{"hint yml", edition.TableSource{Format: "yml"}, "columns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			for _, a := range adapters.Default() {
				if a.CanHandle(tt.source) {
					got = a.Name()
					break
				}
			}
			assert.Equal(t, tt.wantFmt, got)
		})
	}
}

func TestDefault_NothingHandlesUnknownHint(t *testing.T) {
	for _, a := range adapters.Default() {
		assert.False(t, a.CanHandle(edition.TableSource{Format: "pdf", Content: []byte(`{"table": []}`)}), a.Name())
	}
}

func TestFormats(t *testing.T) {
	assert.Equal(t, []string{"tei", "collatex-xml", "collatex-json", "columns"}, adapters.Formats())
}

// ---------------------------------------------------------------------------
// CollateXJSONAdapter
// ---------------------------------------------------------------------------

func TestCollateXJSONAdapter_Parse(t *testing.T) {
	a := adapters.NewCollateXJSONAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{
		Content: []byte(`{
  "witnesses": ["W1", "W2", "W3"],
  "table": [
    [[{"t": "The ", "n": "the"}], ["The "], [{"t": "The"}]],
    [[{"t": "big "}, {"t": "old "}], null, []],
    [[], [{"t": "koala"}]]
  ]
}`),
		ID: "t.json",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"W1", "W2", "W3"}, tbl.Witnesses)
	require.Len(t, tbl.Columns, 3)
	assert.Equal(t, map[string]string{"W1": "The ", "W2": "The ", "W3": "The"}, readings(tbl.Columns[0]))
	assert.Equal(t, map[string]string{"W1": "big old "}, readings(tbl.Columns[1]), "tokens concatenate, null and [] are gaps")
	assert.Equal(t, map[string]string{"W2": "koala"}, readings(tbl.Columns[2]))
	assert.Equal(t, 2, tbl.Columns[2].Index)
}

func TestCollateXJSONAdapter_ParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{"invalid json", `{"table": [`, edition.ErrInvalidInput},
		{"no witnesses", `{"table": [[["x"]]]}`, edition.ErrInvalidInput},
		{"token without text", `{"witnesses": ["A"], "table": [[[{"n": "x"}]]]}`, edition.ErrMalformedColumn},
		{"too many cells", `{"witnesses": ["A"], "table": [[["x"], ["y"]]]}`, edition.ErrMalformedColumn},
		{"numeric token", `{"witnesses": ["A"], "table": [[[7]]]}`, edition.ErrMalformedColumn},
	}

	a := adapters.NewCollateXJSONAdapter()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := a.Parse(context.Background(), edition.TableSource{Content: []byte(tt.content), ID: "bad.json"})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// ---------------------------------------------------------------------------
// ColumnsAdapter
// ---------------------------------------------------------------------------

func TestColumnsAdapter_Parse(t *testing.T) {
	a := adapters.NewColumnsAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{
		Content: []byte(`columns:
  - {B: big, A: big, C: grey}
  - {A: old, B: null}
  - {A: 42, B: true}
`),
	})
	require.NoError(t, err)

	assert.Nil(t, tbl.Witnesses)
	assert.Equal(t, []string{"B", "A", "C"}, tbl.InferWitnesses(), "first-seen key order")
	require.Len(t, tbl.Columns, 3)
	assert.Equal(t, map[string]string{"A": "old"}, readings(tbl.Columns[1]))
	assert.Equal(t, map[string]string{"A": "42", "B": "true"}, readings(tbl.Columns[2]))
}

func TestColumnsAdapter_ParseJSON(t *testing.T) {
	a := adapters.NewColumnsAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{
		Content: []byte(`{"witnesses": ["A", "B"], "columns": [{"A": "x", "B": "y"}]}`),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, tbl.Witnesses)
	assert.Equal(t, map[string]string{"A": "x", "B": "y"}, readings(tbl.Columns[0]))
}

func TestColumnsAdapter_NestedReadingIsMalformed(t *testing.T) {
	a := adapters.NewColumnsAdapter()
	_, err := a.Parse(context.Background(), edition.TableSource{
		Content: []byte("columns:\n  - {A: [x, y]}\n"),
	})
	var mce *edition.MalformedColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, "A", mce.Witness)
}

// ---------------------------------------------------------------------------
// CollateXXMLAdapter
// ---------------------------------------------------------------------------

func TestCollateXXMLAdapter_Parse(t *testing.T) {
	a := adapters.NewCollateXXMLAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{
		Content: []byte(`<apparatus>
  <app><rdg wit="#A #B">The</rdg><rdg wit="#C">A</rdg></app>
  <app><rdg wit="#B">fuzzy</rdg></app>
  <app><lem wit="#A #B #C">koala</lem></app>
</apparatus>`),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, tbl.Witnesses)
	require.Len(t, tbl.Columns, 3)
	assert.Equal(t, map[string]string{"A": "The", "B": "The", "C": "A"}, readings(tbl.Columns[0]))
	assert.Equal(t, map[string]string{"B": "fuzzy"}, readings(tbl.Columns[1]))
	assert.Equal(t, map[string]string{"A": "koala", "B": "koala", "C": "koala"}, readings(tbl.Columns[2]))
}

func TestCollateXXMLAdapter_ParseErrors(t *testing.T) {
	a := adapters.NewCollateXXMLAdapter()

	_, err := a.Parse(context.Background(), edition.TableSource{Content: []byte(`<app><rdg wit="#A">x</rdg>`)})
	assert.ErrorIs(t, err, edition.ErrInvalidInput)

	_, err = a.Parse(context.Background(), edition.TableSource{Content: []byte(`<r><app><rdg wit="#A">x</rdg></app><app><rdg>y</rdg></app></r>`)})
	var mce *edition.MalformedColumnError
	require.ErrorAs(t, err, &mce)
	assert.Equal(t, 1, mce.Column)
}

// ---------------------------------------------------------------------------
// TEIAdapter
// ---------------------------------------------------------------------------

const teiApparatus = `<?xml version="1.0" encoding="UTF-8"?>
<cx:apparatus xmlns="http://www.tei-c.org/ns/1.0" xmlns:cx="http://interedition.eu/collatex/ns/1.0">The <app><rdg wit="#A #B">big</rdg><rdg wit="#C">grey</rdg></app> koala <app><rdg wit="#B">fuzzy</rdg></app> sat.</cx:apparatus>`

func TestTEIAdapter_Parse(t *testing.T) {
	a := adapters.NewTEIAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{Content: []byte(teiApparatus), ID: "t.xml"})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, tbl.Witnesses)
	require.Len(t, tbl.Columns, 5)
	assert.Equal(t, map[string]string{"A": "The", "B": "The", "C": "The"}, readings(tbl.Columns[0]))
	assert.Equal(t, map[string]string{"A": "big", "B": "big", "C": "grey"}, readings(tbl.Columns[1]))
	assert.Equal(t, map[string]string{"A": "koala", "B": "koala", "C": "koala"}, readings(tbl.Columns[2]))
	assert.Equal(t, map[string]string{"B": "fuzzy"}, readings(tbl.Columns[3]))
	assert.Equal(t, map[string]string{"A": "sat.", "B": "sat.", "C": "sat."}, readings(tbl.Columns[4]))
	for i, col := range tbl.Columns {
		assert.Equal(t, i, col.Index)
	}
}

func TestTEIAdapter_ConvertsEndToEnd(t *testing.T) {
	p := edition.NewPipeline(edition.DefaultOptions(), adapters.Default()...)
	result, err := p.RunWithMeta(context.Background(), edition.TableSource{Content: []byte(teiApparatus)})
	require.NoError(t, err)
	assert.Equal(t, "tei", result.AdapterUsed)
	assert.Equal(t, "The big[^1] koala Φ[^2] sat.", result.Edition.Body)
	assert.Equal(t, []string{"[^1]: [C] grey", "[^2]: [B] fuzzy"}, result.Edition.Apparatus())
}

const teiParagraphs = `<TEI xmlns="http://www.tei-c.org/ns/1.0">
<teiHeader><fileDesc><titleStmt><title>Koala</title></titleStmt></fileDesc></teiHeader>
<text><body>
<p>The <app><rdg wit="#A #B">big</rdg><rdg wit="#C">grey</rdg></app> koala</p>
<p>sat <app><rdg wit="#A #B">on</rdg><rdg wit="#C">in</rdg></app> the <hi>tree</hi>.</p>
</body></text></TEI>`

func TestTEIAdapter_ParseWholeBody(t *testing.T) {
	a := adapters.NewTEIAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{Content: []byte(teiParagraphs)})
	require.NoError(t, err)

	require.Len(t, tbl.Columns, 5)
	assert.Equal(t, map[string]string{"A": "koala sat", "B": "koala sat", "C": "koala sat"}, readings(tbl.Columns[2]))
	assert.Equal(t, map[string]string{"A": "on", "B": "on", "C": "in"}, readings(tbl.Columns[3]))
	assert.Equal(t, map[string]string{"A": "the tree.", "B": "the tree.", "C": "the tree."}, readings(tbl.Columns[4]))

	p := edition.NewPipeline(edition.DefaultOptions(), adapters.Default()...)
	result, err := p.RunWithMeta(context.Background(), edition.TableSource{Content: []byte(teiParagraphs)})
	require.NoError(t, err)
	assert.Equal(t, "The big[^1] koala sat on[^2] the tree.", result.Edition.Body)
	assert.Equal(t, []string{"[^1]: [C] grey", "[^2]: [C] in"}, result.Edition.Apparatus())
}

func TestTEIAdapter_NoVariation(t *testing.T) {
	a := adapters.NewTEIAdapter()
	tbl, err := a.Parse(context.Background(), edition.TableSource{
		Content: []byte(`<TEI xmlns="http://www.tei-c.org/ns/1.0"><text><body><p>plain text</p></body></text></TEI>`),
	})
	require.NoError(t, err)
	assert.Empty(t, tbl.Columns)
}
