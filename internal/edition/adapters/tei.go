// SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bytes"
	"context"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/collatex-critical/critedit/internal/edition"
)

// TEIAdapter reads TEI parallel segmentation as written by CollateX with
// output="tei". Text between <app> elements is shared by every witness
// and becomes a unanimous column; each <app> becomes a column of its own.
type TEIAdapter struct{}

func NewTEIAdapter() *TEIAdapter {
	return &TEIAdapter{}
}

func (a *TEIAdapter) Name() string {
	return "tei"
}

func (a *TEIAdapter) CanHandle(source edition.TableSource) bool {
	switch strings.ToLower(source.Format) {
	case "tei":
		return true
	case "":
	default:
		return false
	}
	content := source.Content
	return bytes.Contains(content, []byte("tei-c.org/ns")) || bytes.Contains(content, []byte("<cx:apparatus"))
}

func (a *TEIAdapter) Parse(_ context.Context, source edition.TableSource) (edition.Table, error) {
	doc, err := parseXML(a.Name(), source.ID, source.Content)
	if err != nil {
		return edition.Table{}, err
	}

	apps := xmlquery.QuerySelectorAll(doc, appExpr)
	if len(apps) == 0 {
		// No variation at all: nothing identifies the witnesses.
		return edition.Table{}, nil
	}

	// Witnesses are only named on readings, so collect them before
	// building the shared columns.
	var order firstSeen
	for _, app := range apps {
		for _, rdg := range xmlquery.QuerySelectorAll(app, readingExpr) {
			for _, id := range witnessIDs(rdg.SelectAttr("wit")) {
				order.add([]edition.Reading{{Witness: id}})
			}
		}
	}

	root := doc
	if body := xmlquery.QuerySelector(doc, bodyExpr); body != nil {
		root = body
	}
	w := &teiWalker{witnesses: order.ids}
	if err := w.walk(root); err != nil {
		return edition.Table{}, err
	}
	w.flush()
	return edition.Table{Witnesses: order.ids, Columns: w.columns}, nil
}

// teiBlocks are elements whose boundaries separate words. Other elements
// (hi, seg, ...) are inline and their text runs on.
var teiBlocks = map[string]bool{
	"p": true, "l": true, "lg": true, "ab": true, "div": true, "head": true,
	"lb": true, "pb": true, "cb": true, "item": true, "list": true, "sp": true,
}

// teiWalker turns a TEI tree into columns in document order: every <app>
// is a column, every run of shared text between two apps is a unanimous
// column.
type teiWalker struct {
	witnesses []string
	columns   []edition.Column
	shared    strings.Builder
}

func (w *teiWalker) walk(n *xmlquery.Node) error {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case xmlquery.TextNode, xmlquery.CharDataNode:
			w.shared.WriteString(c.Data)
		case xmlquery.ElementNode:
			if c.Data == "app" {
				w.flush()
				index := len(w.columns)
				readings, err := appReadings(c, index)
				if err != nil {
					return err
				}
				w.columns = append(w.columns, edition.Column{Index: index, Readings: readings})
				continue
			}
			block := teiBlocks[c.Data]
			if block {
				w.shared.WriteByte(' ')
			}
			if err := w.walk(c); err != nil {
				return err
			}
			if block {
				w.shared.WriteByte(' ')
			}
		}
	}
	return nil
}

// flush emits the pending shared text as a unanimous column.
func (w *teiWalker) flush() {
	text := strings.Join(strings.Fields(w.shared.String()), " ")
	w.shared.Reset()
	if text == "" {
		return
	}
	index := len(w.columns)
	readings := make([]edition.Reading, len(w.witnesses))
	for i, id := range w.witnesses {
		readings[i] = edition.Reading{Witness: id, Text: text}
	}
	w.columns = append(w.columns, edition.Column{Index: index, Readings: readings})
}
