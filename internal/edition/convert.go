// SPDX-License-Identifier: Apache-2.0

package edition

// Convert renders table as a critical edition.
//
// The conversion is a single pass over the columns. It either returns a
// complete edition or fails on the first malformed column; no partial
// edition is returned. A table without columns yields an empty edition.
func Convert(table Table, opts Options) (*Edition, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ids := opts.WitnessOrder
	if len(ids) == 0 {
		ids = table.InferWitnesses()
	}
	order, err := NewOrder(ids)
	if err != nil {
		return nil, err
	}

	c := &converter{
		order:  order,
		lacuna: opts.Lacuna,
		merger: newMerger(table.Columns, order, opts.Merge),
	}
	return c.run()
}

// converter owns the state of one conversion.
type converter struct {
	order   *Order
	lacuna  LacunaPolicy
	merger  *merger
	builder apparatusBuilder
	lacunae int
}

func (c *converter) run() (*Edition, error) {
	for {
		col, ok, err := c.merger.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		variants, err := Aggregate(col, c.order)
		if err != nil {
			return nil, err
		}
		if len(variants) == 0 {
			continue
		}
		sel := c.lacuna.Select(variants, c.order.Len())
		if sel.Lacuna {
			c.lacunae++
		}
		c.builder.emit(sel)
	}

	return c.builder.edition(Stats{
		SourceColumns: len(c.merger.columns),
		MergedColumns: c.merger.merged,
		Lacunae:       c.lacunae,
	}), nil
}
