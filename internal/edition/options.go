// SPDX-License-Identifier: Apache-2.0

package edition

import "fmt"

// LacunaMode selects whether weakly attested columns are shown as Φ.
type LacunaMode string

const (
	// LacunaStrict substitutes Φ for weak or mostly absent main readings.
	LacunaStrict LacunaMode = "strict"
	// LacunaSimple always shows the top-ranked reading.
	LacunaSimple LacunaMode = "simple"
)

// MergePolicy selects how continuation columns are folded.
type MergePolicy string

const (
	MergeNone MergePolicy = "none"
	// MergeSingleLookahead appends one following singleton column to the
	// reading of the same witness in the current column.
	MergeSingleLookahead MergePolicy = "single-lookahead"
	// MergeUnboundedRun folds a whole run of consecutive singleton columns
	// into one column of its own. The run starts at a singleton column and
	// is never attached to the column before it, so a witness that diverges
	// in a multi-reading column and then continues alone gets two footnotes
	// ("grey", then "old x"), where single-lookahead would write "grey old"
	// and leave the rest of the run unmerged.
	MergeUnboundedRun MergePolicy = "unbounded-run"
)

// Normalization forms accepted by Options.Normalization.
const (
	NormalizeNone = "none"
	NormalizeNFC  = "nfc"
	NormalizeNFD  = "nfd"
	NormalizeNFKC = "nfkc"
	NormalizeNFKD = "nfkd"
)

// LacunaPolicy decides the main reading of a column.
type LacunaPolicy struct {
	Mode LacunaMode
	// MaxSupport: a candidate attested by at most this many witnesses is
	// replaced by Φ in strict mode.
	MaxSupport int
	// MissingFraction: when at least this fraction of all witnesses has no
	// reading, the candidate is replaced by Φ in strict mode. It lies in
	// (0,1], the same range the config schema allows.
	MissingFraction float64
}

// Options configures one conversion.
type Options struct {
	Lacuna LacunaPolicy
	Merge  MergePolicy
	// WitnessOrder overrides the order declared by the table; empty infers it.
	WitnessOrder []string
	// Normalization is a Unicode form applied to readings before conversion.
	Normalization string
}

// DefaultOptions returns strict lacuna handling with unbounded-run merging.
func DefaultOptions() Options {
	return Options{
		Lacuna: LacunaPolicy{
			Mode:            LacunaStrict,
			MaxSupport:      1,
			MissingFraction: 0.5,
		},
		Merge:         MergeUnboundedRun,
		Normalization: NormalizeNone,
	}
}

// Validate reports unknown policies and out-of-range thresholds.
func (o Options) Validate() error {
	switch o.Lacuna.Mode {
	case LacunaStrict, LacunaSimple:
	default:
		return fmt.Errorf("%w: unknown lacuna policy %q", ErrInvalidOptions, o.Lacuna.Mode)
	}
	if o.Lacuna.MaxSupport < 0 {
		return fmt.Errorf("%w: lacuna max support must not be negative", ErrInvalidOptions)
	}
	if o.Lacuna.MissingFraction <= 0 || o.Lacuna.MissingFraction > 1 {
		return fmt.Errorf("%w: lacuna missing fraction %v outside (0,1]", ErrInvalidOptions, o.Lacuna.MissingFraction)
	}
	switch o.Merge {
	case MergeNone, MergeSingleLookahead, MergeUnboundedRun:
	default:
		return fmt.Errorf("%w: unknown merge policy %q", ErrInvalidOptions, o.Merge)
	}
	switch o.Normalization {
	case "", NormalizeNone, NormalizeNFC, NormalizeNFD, NormalizeNFKC, NormalizeNFKD:
	default:
		return fmt.Errorf("%w: unknown normalization %q", ErrInvalidOptions, o.Normalization)
	}
	return nil
}
