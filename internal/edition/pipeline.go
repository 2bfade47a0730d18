// SPDX-License-Identifier: Apache-2.0

package edition

import (
	"context"
	"fmt"
	"time"

	"github.com/collatex-critical/critedit/internal/logging"
)

type Pipeline struct {
	adapters []TableAdapter
	opts     Options
}

// NewPipeline creates a Pipeline that converts with opts using the
// provided adapters.
func NewPipeline(opts Options, adapters ...TableAdapter) *Pipeline {
	return &Pipeline{
		adapters: adapters,
		opts:     opts,
	}
}

// RunResult is the output of a successful pipeline run.
type RunResult struct {
	Edition     *Edition
	AdapterUsed string
	ColumnCount int
	Witnesses   []string
}

func (p *Pipeline) Run(ctx context.Context, source TableSource) (*Edition, error) {
	result, err := p.RunWithMeta(ctx, source)
	if err != nil {
		return nil, err
	}
	return result.Edition, nil
}

func (p *Pipeline) RunWithMeta(ctx context.Context, source TableSource) (RunResult, error) {
	adapter, err := p.selectAdapter(source)
	if err != nil {
		return RunResult{}, err
	}

	start := time.Now()
	logging.ConversionStart(ctx, source.ID, adapter.Name(),
		"lacuna_policy", string(p.opts.Lacuna.Mode),
		"merge_policy", string(p.opts.Merge))

	table, err := adapter.Parse(ctx, source)
	if err != nil {
		return RunResult{}, fmt.Errorf("adapter %q failed: %w", adapter.Name(), err)
	}
	table, err = Normalize(table, p.opts.Normalization)
	if err != nil {
		return RunResult{}, err
	}

	ed, err := Convert(table, p.opts)
	if err != nil {
		return RunResult{}, fmt.Errorf("converting %s: %w", sourceName(source), err)
	}

	witnesses := p.opts.WitnessOrder
	if len(witnesses) == 0 {
		witnesses = table.InferWitnesses()
	}
	logging.ConversionDone(ctx, source.ID, len(table.Columns), len(ed.Footnotes), time.Since(start),
		"merged", ed.Stats.MergedColumns,
		"lacunae", ed.Stats.Lacunae)

	return RunResult{
		Edition:     ed,
		AdapterUsed: adapter.Name(),
		ColumnCount: len(table.Columns),
		Witnesses:   witnesses,
	}, nil
}

// selectAdapter returns the first registered adapter that can handle the given source.
func (p *Pipeline) selectAdapter(source TableSource) (TableAdapter, error) {
	for _, adapter := range p.adapters {
		if adapter.CanHandle(source) {
			return adapter, nil
		}
	}
	return nil, fmt.Errorf("%w: no adapter found for source %q (format hint: %q)", ErrUnsupportedFormat, source.ID, source.Format)
}

// RegisteredAdapters returns the names of all currently registered adapters.
func (p *Pipeline) RegisteredAdapters() []string {
	names := make([]string, len(p.adapters))
	for i, adapter := range p.adapters {
		names[i] = adapter.Name()
	}
	return names
}

func sourceName(source TableSource) string {
	if source.ID != "" {
		return source.ID
	}
	return "table"
}
