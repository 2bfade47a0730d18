// SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bytes"
	"context"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/collatex-critical/critedit/internal/edition"
)

// CollateXXMLAdapter reads the XML output of CollateX: one <app> per
// column, one <rdg wit="#A"> per reading. Witness order is the order in
// which witnesses first appear.
type CollateXXMLAdapter struct{}

func NewCollateXXMLAdapter() *CollateXXMLAdapter {
	return &CollateXXMLAdapter{}
}

func (a *CollateXXMLAdapter) Name() string {
	return "collatex-xml"
}

func (a *CollateXXMLAdapter) CanHandle(source edition.TableSource) bool {
	switch strings.ToLower(source.Format) {
	case "collatex-xml", "xml":
		return true
	case "":
	default:
		return false
	}
	content := bytes.TrimSpace(source.Content)
	return bytes.HasPrefix(content, []byte("<")) && bytes.Contains(content, []byte("<app"))
}

func (a *CollateXXMLAdapter) Parse(_ context.Context, source edition.TableSource) (edition.Table, error) {
	doc, err := parseXML(a.Name(), source.ID, source.Content)
	if err != nil {
		return edition.Table{}, err
	}

	apps := xmlquery.QuerySelectorAll(doc, appExpr)
	table := edition.Table{Columns: make([]edition.Column, 0, len(apps))}
	var order firstSeen
	for i, app := range apps {
		readings, err := appReadings(app, i)
		if err != nil {
			return edition.Table{}, err
		}
		order.add(readings)
		table.Columns = append(table.Columns, edition.Column{Index: i, Readings: readings})
	}
	table.Witnesses = order.ids
	return table, nil
}
