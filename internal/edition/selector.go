// SPDX-License-Identifier: Apache-2.0

package edition

import "sort"

// Selection is the outcome of choosing a column's main reading.
type Selection struct {
	// Main is the displayed text: a variant, Lacuna, or empty.
	Main string
	// Lacuna reports that the top-ranked variant was demoted to Φ.
	Lacuna bool
	// Rejected variants, in rank order, become the footnote.
	Rejected []Variant
}

// Rank orders variants by support, highest first, then by precedence.
// The input slice is not modified.
func Rank(variants []Variant) []Variant {
	ranked := append([]Variant(nil), variants...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Support() != ranked[j].Support() {
			return ranked[i].Support() > ranked[j].Support()
		}
		return ranked[i].Precedence < ranked[j].Precedence
	})
	return ranked
}

// Select chooses the main reading among variants of a column in an edition
// of total witnesses.
func (p LacunaPolicy) Select(variants []Variant, total int) Selection {
	ranked := Rank(variants)
	if len(ranked) == 0 {
		return Selection{}
	}
	top := ranked[0]
	if p.Mode == LacunaStrict && p.demotes(top, total-attested(ranked), total) {
		return Selection{Main: Lacuna, Lacuna: true, Rejected: ranked}
	}
	return Selection{Main: top.Text, Rejected: ranked[1:]}
}

// demotes applies the strict rule: weak support or a majority of absent
// witnesses. A unanimous reading is never demoted.
func (p LacunaPolicy) demotes(top Variant, missing, total int) bool {
	if top.Support() == total {
		return false
	}
	if top.Support() <= p.MaxSupport {
		return true
	}
	return float64(missing) >= p.MissingFraction*float64(total)
}
