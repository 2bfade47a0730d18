// SPDX-License-Identifier: Apache-2.0

package edition

import "strings"

// merger walks the columns of a table and folds continuation columns. The
// aligner splits a multi-word divergence of one witness into several
// singleton columns (one reading by one witness); left alone, each would
// get a footnote of its own.
//
// single-lookahead appends a singleton column to the column before it when
// that column has a reading by the same witness. unbounded-run gathers a
// whole run of consecutive singleton columns into a per-witness buffer and
// emits the run as one column once a column attested otherwise, or the
// end of the table, is reached.
type merger struct {
	columns []Column
	order   *Order
	policy  MergePolicy
	pos     int
	merged  int
}

func newMerger(columns []Column, order *Order, policy MergePolicy) *merger {
	return &merger{columns: columns, order: order, policy: policy}
}

// next returns the next column with its continuations folded in.
// Consumed columns are never returned on their own.
func (m *merger) next() (Column, bool, error) {
	if m.pos >= len(m.columns) {
		return Column{}, false, nil
	}
	current := cloneColumn(m.columns[m.pos])
	m.pos++

	switch m.policy {
	case MergeSingleLookahead:
		return m.lookahead(current)
	case MergeUnboundedRun:
		return m.run(current)
	}
	return current, true, nil
}

func (m *merger) lookahead(current Column) (Column, bool, error) {
	if m.pos >= len(m.columns) {
		return current, true, nil
	}
	witness, text, ok, err := singleton(m.columns[m.pos], m.order)
	if err != nil {
		return Column{}, false, err
	}
	if ok && appendReading(&current, witness, text) {
		m.pos++
		m.merged++
	}
	return current, true, nil
}

func (m *merger) run(current Column) (Column, bool, error) {
	witness, text, ok, err := singleton(current, m.order)
	if err != nil {
		return Column{}, false, err
	}
	if !ok {
		return current, true, nil
	}

	buf := newVariantBuffer()
	buf.add(witness, text)
	for m.pos < len(m.columns) {
		variants, err := Aggregate(m.columns[m.pos], m.order)
		if err != nil {
			return Column{}, false, err
		}
		if len(variants) > 0 && !isSingleton(variants) {
			break
		}
		for _, v := range variants {
			buf.add(v.Witnesses[0], v.Text)
		}
		m.pos++
		m.merged++
	}
	return buf.flush(current.Index), true, nil
}

// singleton reports the sole witness and text of a column that has exactly
// one reading attested by exactly one witness.
func singleton(col Column, order *Order) (string, string, bool, error) {
	variants, err := Aggregate(col, order)
	if err != nil {
		return "", "", false, err
	}
	if !isSingleton(variants) {
		return "", "", false, nil
	}
	return variants[0].Witnesses[0], variants[0].Text, true, nil
}

func isSingleton(variants []Variant) bool {
	return len(variants) == 1 && variants[0].Support() == 1
}

// appendReading joins text onto the reading of witness in col. It reports
// false when the witness has no reading there.
func appendReading(col *Column, witness, text string) bool {
	for i, r := range col.Readings {
		if r.Witness == witness && strings.TrimSpace(r.Text) != "" {
			col.Readings[i].Text = strings.TrimSpace(r.Text) + " " + text
			return true
		}
	}
	return false
}

func cloneColumn(col Column) Column {
	return Column{Index: col.Index, Readings: append([]Reading(nil), col.Readings...)}
}

// variantBuffer accumulates pending text per witness.
type variantBuffer struct {
	witnesses []string
	pending   map[string][]string
}

func newVariantBuffer() *variantBuffer {
	return &variantBuffer{pending: make(map[string][]string)}
}

func (b *variantBuffer) add(witness, text string) {
	if _, ok := b.pending[witness]; !ok {
		b.witnesses = append(b.witnesses, witness)
	}
	b.pending[witness] = append(b.pending[witness], text)
}

// flush turns the buffer into one column at index and empties it.
func (b *variantBuffer) flush(index int) Column {
	col := Column{Index: index, Readings: make([]Reading, 0, len(b.witnesses))}
	for _, w := range b.witnesses {
		col.Readings = append(col.Readings, Reading{Witness: w, Text: strings.Join(b.pending[w], " ")})
	}
	b.witnesses = nil
	clear(b.pending)
	return col
}

// Merge applies a merge policy to a whole column stream. Conversion runs
// the same merger lazily, one column at a time.
func Merge(columns []Column, order *Order, policy MergePolicy) ([]Column, error) {
	m := newMerger(columns, order, policy)
	var out []Column
	for {
		col, ok, err := m.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, col)
	}
}
