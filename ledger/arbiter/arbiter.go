// Package arbiter defines the external adjudication contract consulted by
// the rail settlement engine (spec.md §4.D, §6) and a couple of reference
// implementations used by tests.
package arbiter

import "math/big"

// Result is the arbiter's verdict for one settlement segment. SettleUpTo
// must satisfy fromEpoch <= SettleUpTo <= toEpoch, and ModifiedAmount must
// not exceed the segment's rate times (SettleUpTo - fromEpoch); the engine
// treats violations as fatal to the calling command
// (ledger.ArbiterContractViolation).
type Result struct {
	ModifiedAmount *big.Int
	SettleUpTo     *big.Int
	Note           string
}

// Arbiter is implemented by third parties to adjudicate disputed settlement
// amounts. The engine must treat its return value as untrusted input.
type Arbiter interface {
	Arbitrate(railID *big.Int, proposedAmount, fromEpoch, toEpoch *big.Int) (Result, error)
}

// Faithful passes every segment through unmodified. Useful as a default
// and in tests that want settlement without arbitration noise.
type Faithful struct{}

func (Faithful) Arbitrate(_ *big.Int, proposedAmount, _, toEpoch *big.Int) (Result, error) {
	return Result{ModifiedAmount: proposedAmount, SettleUpTo: toEpoch}, nil
}

// FixedDiscount returns a fraction (numerator/denominator) of the proposed
// amount, settling the full requested range. Grounded on scenario 3 of
// spec.md §8 ("always returns modified = rate*(to-from)/2").
type FixedDiscount struct {
	Numerator, Denominator *big.Int
}

func (d FixedDiscount) Arbitrate(_ *big.Int, proposedAmount, _, toEpoch *big.Int) (Result, error) {
	modified := new(big.Int).Mul(proposedAmount, d.Numerator)
	modified.Div(modified, d.Denominator)
	return Result{ModifiedAmount: modified, SettleUpTo: toEpoch}, nil
}
