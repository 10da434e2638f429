package ledger

import "math/big"

// checkedSub returns a-b, or InvariantBroken if the subtraction would
// underflow: spec.md §3 mandates unbounded-range unsigned arithmetic where
// "any underflow is a fatal error, not a wraparound". Not every decrement in
// this package goes through it: several use subBig right after an explicit
// comparison, and saturateSub is used where a floor at zero is wanted.
func checkedSub(a, b *big.Int, what string) (*big.Int, error) {
	if a.Cmp(b) < 0 {
		return nil, newErr(InvariantBroken, "%s underflow: %s < %s", what, a.String(), b.String())
	}
	return new(big.Int).Sub(a, b), nil
}

// saturateSub returns max(0, a-b). Used by the operator approval accountant
// for usage decreases, which spec.md §4.C says must never go negative even
// when a prior increase already exceeded a newly-lowered allowance.
func saturateSub(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(a, b)
}

func minBig(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return a
	}
	return b
}

func addBig(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }
func subBig(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }
func mulBig(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }

var zero = big.NewInt(0)

func isZero(v *big.Int) bool { return v.Sign() == 0 }
