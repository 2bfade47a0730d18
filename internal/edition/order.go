// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"fmt"
	"sort"
	"strings"
)

// Order is the canonical witness order of one run.
type Order struct {
	ids   []string
	index map[string]int
}

// NewOrder builds an Order. Ids must be non-empty and unique.
func NewOrder(ids []string) (*Order, error) {
	o := &Order{
		ids:   make([]string, 0, len(ids)),
		index: make(map[string]int, len(ids)),
	}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%w: empty witness id in witness order", ErrInvalidInput)
		}
		if _, dup := o.index[id]; dup {
			return nil, fmt.Errorf("%w: witness %q listed twice in witness order", ErrInvalidInput, id)
		}
		o.index[id] = len(o.ids)
		o.ids = append(o.ids, id)
	}
	return o, nil
}

// Len is the total witness count.
func (o *Order) Len() int {
	return len(o.ids)
}

// IDs returns a copy of the ordered witness ids.
func (o *Order) IDs() []string {
	return append([]string(nil), o.ids...)
}

// Index returns the canonical position of a witness.
func (o *Order) Index(witness string) (int, bool) {
	i, ok := o.index[witness]
	return i, ok
}

// Sort orders witnesses canonically in place. All must be known.
func (o *Order) Sort(witnesses []string) {
	sort.SliceStable(witnesses, func(i, j int) bool {
		return o.index[witnesses[i]] < o.index[witnesses[j]]
	})
}
