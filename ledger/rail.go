package ledger

import (
	"math/big"

	"github.com/virajbhartiya/fws-payments/ledger/arbiter"
)

// settleRailSegments advances rail.SettledUpTo through zero or more
// historical rate segments up to untilEpoch, consulting an arbiter per
// segment when the rail has one, and transferring funds from payer to
// payee — spec.md §4.D. It returns the amount actually settled this call,
// the rail's final settled epoch, and a stable note describing why it
// stopped.
func settleRailSegments(
	rail *Rail,
	payer, payee *Account,
	currentEpoch, untilEpoch *big.Int,
	skipArbitration bool,
	arb arbiter.Arbiter,
) (totalSettled *big.Int, finalEpoch *big.Int, note string, err error) {
	if untilEpoch.Cmp(currentEpoch) > 0 {
		return nil, nil, "", newErr(InvariantBroken, "until_epoch %s exceeds current_epoch %s", untilEpoch, currentEpoch)
	}

	if !rail.IsActive {
		return big.NewInt(0), new(big.Int).Set(rail.SettledUpTo), "inactive", nil
	}

	if rail.isTerminated() {
		maxTerm := addBig(rail.TerminationEpoch, rail.LockupPeriod)
		if rail.SettledUpTo.Cmp(maxTerm) >= 0 {
			released, serr := checkedSub(payer.LockupCurrent, rail.LockupFixed, "finalize lockup release")
			if serr != nil {
				return nil, nil, "", serr
			}
			payer.LockupCurrent = released
			rail.LockupFixed = big.NewInt(0)
			rail.PaymentRate = big.NewInt(0)
			rail.IsActive = false
			return big.NewInt(0), new(big.Int).Set(rail.SettledUpTo), "finalized", nil
		}
		if untilEpoch.Cmp(maxTerm) > 0 {
			untilEpoch = maxTerm
		}
	}

	if _, _, serr := settleAccountLockup(payer, currentEpoch); serr != nil {
		return nil, nil, "", serr
	}

	target := minBig(untilEpoch, addBig(payer.LockupLastSettledAt, rail.LockupPeriod))
	if rail.isTerminated() {
		target = minBig(target, addBig(rail.TerminationEpoch, rail.LockupPeriod))
	}

	if rail.SettledUpTo.Cmp(target) >= 0 {
		return big.NewInt(0), new(big.Int).Set(rail.SettledUpTo), "already settled", nil
	}

	if isZero(rail.PaymentRate) && rail.Queue.IsEmpty() {
		rail.SettledUpTo = new(big.Int).Set(target)
		return big.NewInt(0), new(big.Int).Set(target), "zero-rate", nil
	}

	total := big.NewInt(0)
	processed := new(big.Int).Set(rail.SettledUpTo)

	for processed.Cmp(target) < 0 {
		var segmentEnd, segmentRate, queueHeadUntil *big.Int
		usingQueueHead := false

		if !rail.Queue.IsEmpty() {
			head, _ := rail.Queue.Peek()
			if head.UntilEpoch.Cmp(processed) < 0 {
				return nil, nil, "", newErr(InvariantBroken, "rate-change queue head %s precedes processed %s", head.UntilEpoch, processed)
			}
			segmentEnd = minBig(target, head.UntilEpoch)
			segmentRate = head.Rate
			queueHeadUntil = head.UntilEpoch
			usingQueueHead = true
		} else {
			segmentEnd = new(big.Int).Set(target)
			segmentRate = rail.PaymentRate
			if isZero(segmentRate) {
				rail.SettledUpTo = new(big.Int).Set(target)
				return total, new(big.Int).Set(target), "zero-rate", nil
			}
		}

		settleUpTo, amount, serr := settleSegment(rail, payer, payee, processed, segmentEnd, segmentRate, skipArbitration, arb)
		if serr != nil {
			return nil, nil, "", serr
		}
		total = addBig(total, amount)

		if settleUpTo.Cmp(processed) == 0 {
			rail.SettledUpTo = new(big.Int).Set(processed)
			return total, new(big.Int).Set(processed), "arbiter made no progress", nil
		}

		if settleUpTo.Cmp(segmentEnd) < 0 {
			rail.SettledUpTo = new(big.Int).Set(settleUpTo)
			return total, new(big.Int).Set(settleUpTo), "partial segment", nil
		}

		if usingQueueHead && segmentEnd.Cmp(queueHeadUntil) == 0 {
			rail.Queue.Dequeue()
		}
		rail.SettledUpTo = new(big.Int).Set(settleUpTo)
		processed = settleUpTo
	}

	return total, new(big.Int).Set(rail.SettledUpTo), "settled", nil
}

// settleSegment settles one (processed, segmentEnd] interval at segmentRate,
// consulting the arbiter if present, and performs the actual fund transfer.
func settleSegment(
	rail *Rail,
	payer, payee *Account,
	processed, segmentEnd, segmentRate *big.Int,
	skipArbitration bool,
	arb arbiter.Arbiter,
) (settleUpTo, amount *big.Int, err error) {
	proposed := mulBig(segmentRate, subBig(segmentEnd, processed))
	settleUpTo = new(big.Int).Set(segmentEnd)
	modified := proposed

	if rail.hasArbiter() && !skipArbitration && arb != nil {
		res, aerr := arb.Arbitrate(new(big.Int).SetUint64(rail.ID), proposed, processed, segmentEnd)
		if aerr != nil {
			return nil, nil, wrapErr(ArbiterContractViolation, aerr, "arbiter call failed")
		}
		if res.SettleUpTo.Cmp(processed) < 0 || res.SettleUpTo.Cmp(segmentEnd) > 0 {
			return nil, nil, newErr(ArbiterContractViolation, "settle_upto %s out of range [%s,%s]", res.SettleUpTo, processed, segmentEnd)
		}
		maxAllowed := mulBig(segmentRate, subBig(res.SettleUpTo, processed))
		if res.ModifiedAmount.Cmp(maxAllowed) > 0 {
			return nil, nil, newErr(ArbiterContractViolation, "modified_amount %s exceeds rate-bound %s", res.ModifiedAmount, maxAllowed)
		}
		settleUpTo = res.SettleUpTo
		modified = res.ModifiedAmount
	}

	if payer.Funds.Cmp(modified) < 0 {
		return nil, nil, newErr(InsufficientFunds, "payer funds %s below settlement amount %s", payer.Funds, modified)
	}
	if payer.LockupCurrent.Cmp(modified) < 0 {
		return nil, nil, newErr(InsufficientLockup, "payer lockup %s below settlement amount %s", payer.LockupCurrent, modified)
	}

	payer.Funds = subBig(payer.Funds, modified)
	payee.Funds = addBig(payee.Funds, modified)
	payer.LockupCurrent = subBig(payer.LockupCurrent, modified)

	return settleUpTo, modified, nil
}
