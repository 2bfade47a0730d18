// SPDX-License-Identifier: Apache-2.0

package adapters

import (
	"bytes"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/collatex-critical/critedit/internal/edition"
)

// Namespaced documents (TEI) carry a default namespace, so elements are
// matched on their local name.
var (
	appExpr     = xpath.MustCompile("//*[local-name()='app']")
	readingExpr = xpath.MustCompile("./*[local-name()='rdg' or local-name()='lem']")
	bodyExpr    = xpath.MustCompile("//*[local-name()='body']")
)

// parseXML parses content with xmlquery, which builds on encoding/xml and
// does not resolve external entities.
func parseXML(format, sourceID string, content []byte) (*xmlquery.Node, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return nil, edition.NewParse(format, sourceID, err)
	}
	return doc, nil
}

// witnessIDs splits a wit attribute such as "#A #B" into ids.
func witnessIDs(wit string) []string {
	fields := strings.Fields(wit)
	ids := make([]string, 0, len(fields))
	for _, f := range fields {
		if id := strings.TrimPrefix(f, "#"); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// appReadings expands the rdg/lem children of an app element into one
// reading per witness. A reading element without witnesses is malformed.
func appReadings(app *xmlquery.Node, index int) ([]edition.Reading, error) {
	var readings []edition.Reading
	for _, rdg := range xmlquery.QuerySelectorAll(app, readingExpr) {
		ids := witnessIDs(rdg.SelectAttr("wit"))
		if len(ids) == 0 {
			return nil, &edition.MalformedColumnError{
				Column: index,
				Reason: "<" + rdg.Data + "> element without wit attribute",
			}
		}
		text := rdg.InnerText()
		for _, id := range ids {
			readings = append(readings, edition.Reading{Witness: id, Text: text})
		}
	}
	return readings, nil
}

// firstSeen collects witness ids in document order.
type firstSeen struct {
	seen map[string]bool
	ids  []string
}

func (f *firstSeen) add(readings []edition.Reading) {
	if f.seen == nil {
		f.seen = make(map[string]bool)
	}
	for _, r := range readings {
		if !f.seen[r.Witness] {
			f.seen[r.Witness] = true
			f.ids = append(f.ids, r.Witness)
		}
	}
}
