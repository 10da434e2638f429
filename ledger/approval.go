package ledger

import "math/big"

// admitLockupDelta applies an increase or decrease between oldTotal and
// newTotal against approval.LockupAllowance/LockupUsage — spec.md §4.C.
// Increases require headroom; decreases saturate-subtract and are always
// admitted, even past a since-lowered allowance, so honored commitments are
// never retroactively punished.
func admitLockupDelta(approval *OperatorApproval, oldTotal, newTotal *big.Int) error {
	switch oldTotal.Cmp(newTotal) {
	case -1: // increase
		delta := subBig(newTotal, oldTotal)
		if addBig(approval.LockupUsage, delta).Cmp(approval.LockupAllowance) > 0 {
			return newErr(AllowanceExceeded, "lockup usage %s + delta %s exceeds allowance %s",
				approval.LockupUsage, delta, approval.LockupAllowance)
		}
		approval.LockupUsage = addBig(approval.LockupUsage, delta)
	case 1: // decrease
		delta := subBig(oldTotal, newTotal)
		approval.LockupUsage = saturateSub(approval.LockupUsage, delta)
	}
	return nil
}

// admitRateDelta is the symmetric check against RateAllowance/RateUsage.
func admitRateDelta(approval *OperatorApproval, oldRate, newRate *big.Int) error {
	switch oldRate.Cmp(newRate) {
	case -1:
		delta := subBig(newRate, oldRate)
		if addBig(approval.RateUsage, delta).Cmp(approval.RateAllowance) > 0 {
			return newErr(AllowanceExceeded, "rate usage %s + delta %s exceeds allowance %s",
				approval.RateUsage, delta, approval.RateAllowance)
		}
		approval.RateUsage = addBig(approval.RateUsage, delta)
	case 1:
		delta := subBig(oldRate, newRate)
		approval.RateUsage = saturateSub(approval.RateUsage, delta)
	}
	return nil
}

// validateAndModifyRateChange admits a rate change (and the lockup delta it
// implies, since lockup total is rate-dependent) against an operator's
// allowances, mutating usage counters only on success — spec.md §4.C.
func validateAndModifyRateChange(rail *Rail, approval *OperatorApproval, oldRate, newRate *big.Int, oneTimePayment *big.Int) error {
	if oneTimePayment.Cmp(rail.LockupFixed) > 0 {
		return newErr(InsufficientFunds, "one_time_payment %s exceeds rail lockup_fixed %s", oneTimePayment, rail.LockupFixed)
	}

	oldTotal := addBig(mulBig(oldRate, rail.LockupPeriod), rail.LockupFixed)
	newTotal := addBig(mulBig(newRate, rail.LockupPeriod), rail.LockupFixed)

	prevLockupUsage := approval.LockupUsage
	if err := admitLockupDelta(approval, oldTotal, newTotal); err != nil {
		return err
	}
	if err := admitRateDelta(approval, oldRate, newRate); err != nil {
		approval.LockupUsage = prevLockupUsage
		return err
	}
	return nil
}

// validateLockupOnlyChange admits a lockup_period/lockup_fixed change at an
// unchanged rate, as used by modify_rail_lockup — spec.md §4.E.
func validateLockupOnlyChange(rail *Rail, approval *OperatorApproval, newPeriod, newFixed *big.Int) error {
	oldTotal := addBig(mulBig(rail.PaymentRate, rail.LockupPeriod), rail.LockupFixed)
	newTotal := addBig(mulBig(rail.PaymentRate, newPeriod), newFixed)
	return admitLockupDelta(approval, oldTotal, newTotal)
}
