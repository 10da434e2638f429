package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// createRail implements spec.md §4.E create_rail. The caller is the
// operator; it must already hold an approval from (token, from).
func createRail(
	rails map[uint64]*Rail,
	nextRailID *uint64,
	clientOperatorRails map[operatorRailsKey][]uint64,
	approval *OperatorApproval,
	token, from, to, operator, arb common.Address,
	currentEpoch *big.Int,
	requireFundedParties bool,
	payerAccount, payeeAccount *Account,
) (*Rail, error) {
	if !approval.IsApproved {
		return nil, newErr(OperatorNotApproved, "operator %s not approved for payer %s, token %s", operator.Hex(), from.Hex(), token.Hex())
	}
	if requireFundedParties {
		if payerAccount.Funds.Sign() <= 0 {
			return nil, newErr(InsufficientFunds, "payer account has no funds")
		}
		if payeeAccount.Funds.Sign() <= 0 {
			return nil, newErr(InsufficientFunds, "payee account has no funds")
		}
	}

	id := *nextRailID
	*nextRailID++

	rail := &Rail{
		ID:               id,
		Token:            token,
		From:             from,
		To:               to,
		Operator:         operator,
		Arbiter:          arb,
		IsActive:         true,
		PaymentRate:      big.NewInt(0),
		LockupPeriod:     big.NewInt(0),
		LockupFixed:      big.NewInt(0),
		SettledUpTo:      new(big.Int).Set(currentEpoch),
		TerminationEpoch: big.NewInt(0),
		Queue:            newRateChangeQueue(),
	}
	rails[id] = rail

	key := operatorRailsKey{payer: from, operator: operator}
	clientOperatorRails[key] = append(clientOperatorRails[key], id)

	return rail, nil
}

// modifyRailLockup implements spec.md §4.E modify_rail_lockup: operator-only,
// rate held fixed, requires the payer be fully settled to current epoch.
func modifyRailLockup(rail *Rail, payer *Account, approval *OperatorApproval, caller common.Address, currentEpoch, newPeriod, newFixed *big.Int) error {
	if caller != rail.Operator {
		return newErr(AuthorizationDenied, "caller %s is not rail operator %s", caller.Hex(), rail.Operator.Hex())
	}
	if rail.IsLocked {
		return newErr(ConcurrentModification, "rail %d is locked", rail.ID)
	}
	rail.IsLocked = true
	defer func() { rail.IsLocked = false }()

	payerSnap := snapshotAccount(payer)
	approvalSnap := snapshotApproval(approval)
	rollback := func() {
		payerSnap.restore(payer)
		approvalSnap.restore(approval)
	}

	fullySettled, _, err := settleAccountLockup(payer, currentEpoch)
	if err != nil {
		rollback()
		return err
	}
	if !fullySettled {
		rollback()
		return newErr(LockupNotSettled, "payer not fully settled to current epoch %s", currentEpoch)
	}

	if rail.isTerminated() {
		if newPeriod.Cmp(rail.LockupPeriod) != 0 {
			rollback()
			return newErr(TerminatedRailRestriction, "cannot change lockup_period on terminated rail %d", rail.ID)
		}
		if newFixed.Cmp(rail.LockupFixed) > 0 {
			rollback()
			return newErr(TerminatedRailRestriction, "cannot increase lockup_fixed on terminated rail %d", rail.ID)
		}
	}

	if err := validateLockupOnlyChange(rail, approval, newPeriod, newFixed); err != nil {
		rollback()
		return err
	}

	oldTotal := addBig(mulBig(rail.PaymentRate, rail.LockupPeriod), rail.LockupFixed)
	newTotal := addBig(mulBig(rail.PaymentRate, newPeriod), newFixed)

	switch oldTotal.Cmp(newTotal) {
	case -1:
		delta := subBig(newTotal, oldTotal)
		updated := addBig(payer.LockupCurrent, delta)
		if updated.Cmp(payer.Funds) > 0 {
			rollback()
			return newErr(InsufficientFunds, "lockup_current %s would exceed funds %s", updated, payer.Funds)
		}
		payer.LockupCurrent = updated
	case 1:
		delta := subBig(oldTotal, newTotal)
		released, serr := checkedSub(payer.LockupCurrent, delta, "modify_rail_lockup release")
		if serr != nil {
			rollback()
			return serr
		}
		payer.LockupCurrent = released
	}

	rail.LockupPeriod = new(big.Int).Set(newPeriod)
	rail.LockupFixed = new(big.Int).Set(newFixed)
	return nil
}

// modifyRailPayment implements spec.md §4.E modify_rail_payment. When the
// rate changes and the rail has no arbiter, it runs an internal
// settle_rail(until=current_epoch) with no arbiter and requires it to reach
// current_epoch; with an arbiter, the old rate is queued instead.
func modifyRailPayment(
	rail *Rail,
	payer, payee *Account,
	approval *OperatorApproval,
	caller common.Address,
	currentEpoch, newRate, oneTimePayment *big.Int,
) error {
	if caller != rail.Operator {
		return newErr(AuthorizationDenied, "caller %s is not rail operator %s", caller.Hex(), rail.Operator.Hex())
	}
	if rail.IsLocked {
		return newErr(ConcurrentModification, "rail %d is locked", rail.ID)
	}
	rail.IsLocked = true
	defer func() { rail.IsLocked = false }()

	// Everything from here on can mutate payer/payee funds, the approval's
	// usage counters, or the rail's own fields (settleRailSegments moves
	// funds and advances SettledUpTo on a rate change) before a later
	// precondition check fails. Snapshot the lot up front and roll back on
	// every error path so a failed command never leaves partial state
	// behind — spec.md §7.
	payerSnap := snapshotAccount(payer)
	payeeSnap := snapshotAccount(payee)
	approvalSnap := snapshotApproval(approval)
	railSnap := snapshotRail(rail)
	rollback := func() {
		payerSnap.restore(payer)
		payeeSnap.restore(payee)
		approvalSnap.restore(approval)
		railSnap.restore(rail)
	}

	oldRate := new(big.Int).Set(rail.PaymentRate)

	if rail.isTerminated() {
		if newRate.Cmp(oldRate) > 0 {
			return newErr(TerminatedRailRestriction, "cannot increase rate on terminated rail %d", rail.ID)
		}
	}
	if oneTimePayment.Cmp(rail.LockupFixed) > 0 {
		return newErr(InsufficientFunds, "one_time_payment %s exceeds lockup_fixed %s", oneTimePayment, rail.LockupFixed)
	}

	fullySettled, settledUpto, err := settleAccountLockup(payer, currentEpoch)
	if err != nil {
		rollback()
		return err
	}

	rateIncrease := newRate.Cmp(oldRate) > 0
	if rateIncrease && !(fullySettled && settledUpto.Cmp(currentEpoch) == 0) {
		rollback()
		return newErr(LockupNotSettled, "rate increase requires full settlement to current epoch")
	}

	rateChanges := newRate.Cmp(oldRate) != 0
	if rateChanges {
		debtBoundary := addBig(payer.LockupLastSettledAt, rail.LockupPeriod)
		if currentEpoch.Cmp(debtBoundary) >= 0 {
			rollback()
			return newErr(DebtBlocked, "rail %d in debt: current_epoch %s >= %s", rail.ID, currentEpoch, debtBoundary)
		}
	}

	if err := validateAndModifyRateChange(rail, approval, oldRate, newRate, oneTimePayment); err != nil {
		rollback()
		return err
	}

	if rateChanges {
		if !rail.hasArbiter() {
			_, finalEpoch, note, serr := settleRailSegments(rail, payer, payee, currentEpoch, currentEpoch, false, nil)
			if serr != nil {
				rollback()
				return serr
			}
			if finalEpoch.Cmp(currentEpoch) != 0 {
				rollback()
				return newErr(LockupNotSettled, "settlement stalled at %s (%s) before rate change", finalEpoch, note)
			}
		} else {
			head, ok := rail.Queue.Peek()
			if !ok || head.UntilEpoch.Cmp(currentEpoch) != 0 {
				rail.Queue.Enqueue(oldRate, currentEpoch)
			}
		}
	}

	effectivePeriod, perr := checkedSub(rail.LockupPeriod, subBig(currentEpoch, payer.LockupLastSettledAt), "modify_rail_payment effective_period")
	if perr != nil {
		rollback()
		return perr
	}
	required := addBig(mulBig(oldRate, effectivePeriod), oneTimePayment)
	if payer.LockupCurrent.Cmp(required) < 0 {
		rollback()
		return newErr(InsufficientLockup, "payer lockup %s below required %s", payer.LockupCurrent, required)
	}

	rail.LockupFixed = subBig(rail.LockupFixed, oneTimePayment)
	rail.PaymentRate = new(big.Int).Set(newRate)
	if !rail.isTerminated() {
		payer.LockupRate = addBig(subBig(payer.LockupRate, oldRate), newRate)
	}
	delta := subBig(mulBig(subBig(newRate, oldRate), effectivePeriod), oneTimePayment)
	payer.LockupCurrent = addBig(payer.LockupCurrent, delta)

	payer.Funds = subBig(payer.Funds, oneTimePayment)
	payee.Funds = addBig(payee.Funds, oneTimePayment)

	if payer.LockupCurrent.Cmp(payer.Funds) > 0 {
		rollback()
		return newErr(InvariantBroken, "lockup_current %s exceeds funds %s after modify_rail_payment", payer.LockupCurrent, payer.Funds)
	}

	if newRate.Cmp(oldRate) < 0 {
		fullySettled, settledUpto, serr := settleAccountLockup(payer, currentEpoch)
		if serr != nil {
			rollback()
			return serr
		}
		if !fullySettled || settledUpto.Cmp(currentEpoch) != 0 {
			rollback()
			return newErr(LockupNotSettled, "payer not fully settled to current epoch after rate decrease")
		}
	}

	return nil
}

// terminateRail implements spec.md §4.E terminate_rail. The grace window a
// terminated rail settles through is [termination_epoch,
// termination_epoch+lockup_period], but the rate-driven lockup buffer a
// non-terminated rail carries only covers [lockup_last_settled_at,
// lockup_last_settled_at+lockup_period]. Settling the payer's lockup to
// current_epoch before zeroing the rail's contribution to lockup_rate (as
// the teacher's terminateRail does) is what makes those two windows match;
// skipping it would undercount the locked buffer for the already-elapsed
// [lockup_last_settled_at, current_epoch) span, which can never be
// recovered once lockup_rate drops to zero.
func terminateRail(rail *Rail, payer *Account, caller common.Address, currentEpoch *big.Int) error {
	if caller != rail.From && caller != rail.Operator && caller != rail.To {
		return newErr(AuthorizationDenied, "caller %s is not payer, operator, or payee of rail %d", caller.Hex(), rail.ID)
	}
	if rail.IsLocked {
		return newErr(ConcurrentModification, "rail %d is locked", rail.ID)
	}
	rail.IsLocked = true
	defer func() { rail.IsLocked = false }()

	if rail.isTerminated() {
		return newErr(EntityInactive, "rail %d already terminated", rail.ID)
	}

	if _, _, err := settleAccountLockup(payer, currentEpoch); err != nil {
		return err
	}

	rail.TerminationEpoch = new(big.Int).Set(currentEpoch)
	payer.LockupRate = saturateSub(payer.LockupRate, rail.PaymentRate)
	return nil
}

// terminateOperator implements spec.md §4.E terminate_operator.
func terminateOperator(approval *OperatorApproval) {
	approval.IsApproved = false
	approval.RateAllowance = big.NewInt(0)
	approval.LockupAllowance = big.NewInt(0)
}
