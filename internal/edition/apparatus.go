// SPDX-License-Identifier: Apache-2.0

package edition

import "fmt"

// apparatusBuilder collects main-text tokens and footnotes for one
// conversion. Footnote numbers start at 1 and follow emission order.
type apparatusBuilder struct {
	tokens    []string
	footnotes []Footnote
	counter   int
}

// emit appends the main text of a column and, when it has rejected
// variants, a marker and a footnote.
func (b *apparatusBuilder) emit(sel Selection) {
	if len(sel.Rejected) == 0 {
		if sel.Main != "" {
			b.tokens = append(b.tokens, sel.Main)
		}
		return
	}

	b.counter++
	note := Footnote{Number: b.counter, Entries: make([]Entry, 0, len(sel.Rejected))}
	for _, v := range sel.Rejected {
		note.Entries = append(note.Entries, Entry{
			Text:      v.Text,
			Witnesses: append([]string(nil), v.Witnesses...),
		})
	}
	b.footnotes = append(b.footnotes, note)
	b.tokens = append(b.tokens, sel.Main+fmt.Sprintf("[^%d]", note.Number))
}

func (b *apparatusBuilder) edition(stats Stats) *Edition {
	footnotes := b.footnotes
	if footnotes == nil {
		footnotes = []Footnote{}
	}
	return &Edition{
		Body:      JoinTokens(b.tokens),
		Footnotes: footnotes,
		Stats:     stats,
	}
}
