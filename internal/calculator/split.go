// Package calculator implements the pure arithmetic of the ledger: equal
// splits, balance folding, and settlement optimization. Every amount is an
// int64 in minor currency units; no floating point is used anywhere.
package calculator

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSplit is returned for a non-positive total or zero participants.
	ErrInvalidSplit = errors.New("invalid split: amount and participant count must be positive")

	// ErrSplitMismatch is returned when custom shares do not sum to the total.
	ErrSplitMismatch = errors.New("shares do not sum to the expense amount")
)

// SplitEqual divides total into n shares that sum exactly to total.
//
// base = total/n (floor); the first total%n shares get base+1, the rest get
// base. Callers pass participants in selection order, so the allocation of
// the remainder is stable and reproducible.
func SplitEqual(total int64, n int) ([]int64, error) {
	if total <= 0 || n <= 0 {
		return nil, ErrInvalidSplit
	}

	base := total / int64(n)
	remainder := total - base*int64(n)

	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares, nil
}

// ValidateShares checks a custom (non-equal) split against the same
// invariant SplitEqual guarantees: positive shares summing exactly to the
// total. There is no silent rounding; a mismatch is rejected.
func ValidateShares(total int64, shares []int64) error {
	if total <= 0 || len(shares) == 0 {
		return ErrInvalidSplit
	}

	var sum int64
	for i, s := range shares {
		if s <= 0 {
			return fmt.Errorf("%w: share %d is not positive", ErrInvalidSplit, i)
		}
		sum += s
	}
	if sum != total {
		return fmt.Errorf("%w: shares sum to %d, expense amount is %d", ErrSplitMismatch, sum, total)
	}
	return nil
}
