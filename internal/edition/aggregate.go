// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"sort"
	"strings"
)

// Aggregate groups the readings of a column into variants.
//
// Readings are trimmed and empty readings count as absent. Two readings
// are the same variant only if their trimmed text is byte-identical.
// Variants come back ordered by precedence, their witnesses in canonical
// order. A reading by a witness outside order, or a second reading by the
// same witness, is a MalformedColumnError.
func Aggregate(col Column, order *Order) ([]Variant, error) {
	seen := make(map[string]bool, len(col.Readings))
	byText := make(map[string]int, len(col.Readings))
	var variants []Variant

	for _, r := range col.Readings {
		idx, ok := order.Index(r.Witness)
		if !ok {
			return nil, &MalformedColumnError{Column: col.Index, Witness: r.Witness, Reason: "unknown witness"}
		}
		if seen[r.Witness] {
			return nil, &MalformedColumnError{Column: col.Index, Witness: r.Witness, Reason: "witness has more than one reading"}
		}
		seen[r.Witness] = true

		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		if i, ok := byText[text]; ok {
			variants[i].Witnesses = append(variants[i].Witnesses, r.Witness)
			if idx < variants[i].Precedence {
				variants[i].Precedence = idx
			}
			continue
		}
		byText[text] = len(variants)
		variants = append(variants, Variant{Text: text, Witnesses: []string{r.Witness}, Precedence: idx})
	}

	for i := range variants {
		order.Sort(variants[i].Witnesses)
	}
	sort.SliceStable(variants, func(i, j int) bool {
		return variants[i].Precedence < variants[j].Precedence
	})
	return variants, nil
}

// attested counts the witnesses with a reading across variants.
func attested(variants []Variant) int {
	n := 0
	for _, v := range variants {
		n += v.Support()
	}
	return n
}
