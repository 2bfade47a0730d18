// SPDX-License-Identifier: Apache-2.0

package project

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of one project in a batch.
type Result struct {
	Project  string
	Manifest *Manifest
	Err      error
}

// Batch generates several projects, at most Config.Workers at a time. A
// failing project does not stop the others; the returned error joins the
// failures. Results are in the order of ids.
func (g *Generator) Batch(ctx context.Context, ids []string) ([]Result, error) {
	results := make([]Result, len(ids))

	var eg errgroup.Group
	eg.SetLimit(max(1, g.Config.Workers))
	for i, id := range ids {
		eg.Go(func() error {
			m, err := g.Generate(ctx, id)
			results[i] = Result{Project: id, Manifest: m, Err: err}
			return err
		})
	}
	// Failures are reported per project below.
	_ = eg.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return results, errors.Join(errs...)
}
