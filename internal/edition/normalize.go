// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

var normalForms = map[string]norm.Form{
	NormalizeNFC:  norm.NFC,
	NormalizeNFD:  norm.NFD,
	NormalizeNFKC: norm.NFKC,
	NormalizeNFKD: norm.NFKD,
}

// Normalize returns a copy of table with every reading and witness id put
// into the given Unicode normal form. Readings that differ only in
// composition (a precomposed vowel sign against a base letter plus
// combining mark) then aggregate into one variant. "" and "none" return
// the table unchanged.
func Normalize(table Table, form string) (Table, error) {
	if form == "" || form == NormalizeNone {
		return table, nil
	}
	f, ok := normalForms[form]
	if !ok {
		return Table{}, fmt.Errorf("%w: unknown normalization %q", ErrInvalidOptions, form)
	}

	out := Table{
		Witnesses: make([]string, len(table.Witnesses)),
		Columns:   make([]Column, len(table.Columns)),
	}
	for i, w := range table.Witnesses {
		out.Witnesses[i] = f.String(w)
	}
	for i, col := range table.Columns {
		readings := make([]Reading, len(col.Readings))
		for j, r := range col.Readings {
			readings[j] = Reading{Witness: f.String(r.Witness), Text: f.String(r.Text)}
		}
		out.Columns[i] = Column{Index: col.Index, Readings: readings}
	}
	return out, nil
}
