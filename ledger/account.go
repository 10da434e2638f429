package ledger

import "math/big"

// settleAccountLockup advances account.LockupLastSettledAt, converting
// elapsed epochs times LockupRate into LockupCurrent, and reports whether
// the account is fully caught up to currentEpoch — spec.md §4.B.
//
// It is idempotent with respect to LockupLastSettledAt and must be called
// before any lockup-affecting decision. Truncating to a whole epoch on
// partial settlement is deliberate: the caller can never over-settle, only
// under-settle conservatively.
func settleAccountLockup(account *Account, currentEpoch *big.Int) (fullySettled bool, settledUpTo *big.Int, err error) {
	elapsed, err := checkedSub(currentEpoch, account.LockupLastSettledAt, "lockup elapsed epochs")
	if err != nil {
		return false, nil, err
	}
	if isZero(elapsed) {
		return true, new(big.Int).Set(account.LockupLastSettledAt), nil
	}

	if isZero(account.LockupRate) {
		account.LockupLastSettledAt = new(big.Int).Set(currentEpoch)
		return true, new(big.Int).Set(currentEpoch), nil
	}

	additional := mulBig(account.LockupRate, elapsed)
	if account.Funds.Cmp(addBig(account.LockupCurrent, additional)) >= 0 {
		account.LockupCurrent = addBig(account.LockupCurrent, additional)
		account.LockupLastSettledAt = new(big.Int).Set(currentEpoch)
		return true, new(big.Int).Set(currentEpoch), nil
	}

	available := subBig(account.Funds, account.LockupCurrent)
	if available.Sign() < 0 {
		available = big.NewInt(0)
	}
	if isZero(available) {
		return false, new(big.Int).Set(account.LockupLastSettledAt), nil
	}

	k := new(big.Int).Div(available, account.LockupRate)
	account.LockupCurrent = addBig(account.LockupCurrent, mulBig(account.LockupRate, k))
	account.LockupLastSettledAt = addBig(account.LockupLastSettledAt, k)
	return false, new(big.Int).Set(account.LockupLastSettledAt), nil
}
