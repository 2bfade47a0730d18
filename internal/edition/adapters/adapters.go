// SPDX-License-Identifier: Apache-2.0

// Package adapters reads serialized alignment tables into edition.Table.
package adapters

import "github.com/collatex-critical/critedit/internal/edition"

// Default returns all adapters in detection order. More specific formats
// (TEI, CollateX XML, CollateX JSON) are tried before the generic
// columns document to avoid mis-detection.
func Default() []edition.TableAdapter {
	return []edition.TableAdapter{
		NewTEIAdapter(),
		NewCollateXXMLAdapter(),
		NewCollateXJSONAdapter(),
		NewColumnsAdapter(),
	}
}

// Formats lists the names of the default adapters.
func Formats() []string {
	all := Default()
	names := make([]string, len(all))
	for i, a := range all {
		names[i] = a.Name()
	}
	return names
}
