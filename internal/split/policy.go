// Package split holds the settlement calculation engine: the date-based
// split policy and the pure transformation from raw financial inputs to
// derived settlement figures.
package split

import (
	"errors"
	"fmt"

	"splitbook/internal/core"
)

// Fractions are the three party shares in basis points. Holding them as
// integers keeps the sum-to-one check and the share arithmetic exact.
type Fractions struct {
	PartyA int64
	PartyB int64
	PartyC int64
}

// Sum returns the total basis points across the three parties.
func (f Fractions) Sum() int64 {
	return f.PartyA + f.PartyB + f.PartyC
}

// For returns the fraction assigned to the given party.
func (f Fractions) For(p core.PartyID) int64 {
	switch p {
	case core.PartyA:
		return f.PartyA
	case core.PartyB:
		return f.PartyB
	default:
		return f.PartyC
	}
}

// Policy maps a settlement's period end date to a share triple. It is a
// two-bucket step function around a single cutoff date. If more buckets are
// ever needed this becomes an ordered list of (date, fractions) rules where
// the latest rule at or before the end date wins; that generalization is
// deliberately not built yet.
type Policy struct {
	cutoff core.Date
	before Fractions
	after  Fractions
}

// NewPolicy validates the configuration and returns a usable policy.
// Both triples must sum to exactly 1.0 (10000 basis points); a violation is
// a startup failure, never a per-request one.
func NewPolicy(cutoff core.Date, before, after Fractions) (*Policy, error) {
	if err := cutoff.Validate(); err != nil {
		return nil, errors.New("split policy: invalid cutoff date")
	}
	if got := before.Sum(); got != 10000 {
		return nil, fmt.Errorf("split policy: before fractions sum to %d basis points, want 10000", got)
	}
	if got := after.Sum(); got != 10000 {
		return nil, fmt.Errorf("split policy: after fractions sum to %d basis points, want 10000", got)
	}
	return &Policy{cutoff: cutoff, before: before, after: after}, nil
}

// Resolve picks the share triple for a period ending on weekEndDate.
// The comparison is strict and date-only: the cutoff date itself already
// uses the after rules.
func (p *Policy) Resolve(weekEndDate core.Date) Fractions {
	if weekEndDate.Before(p.cutoff) {
		return p.before
	}
	return p.after
}

// Cutoff returns the configured cutoff date.
func (p *Policy) Cutoff() core.Date {
	return p.cutoff
}
