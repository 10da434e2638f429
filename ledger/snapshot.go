package ledger

import "math/big"

// accountSnapshot, approvalSnapshot, and railSnapshot capture the mutable
// fields a command touches before any precondition check that can still
// fail, so the command can restore exactly that prior state instead of
// leaving partial mutations in place — spec.md §7's transactional guarantee
// ("a failed command leaves state exactly as it was").
type accountSnapshot struct {
	funds               *big.Int
	lockupCurrent       *big.Int
	lockupRate          *big.Int
	lockupLastSettledAt *big.Int
}

func snapshotAccount(a *Account) accountSnapshot {
	return accountSnapshot{
		funds:               new(big.Int).Set(a.Funds),
		lockupCurrent:       new(big.Int).Set(a.LockupCurrent),
		lockupRate:          new(big.Int).Set(a.LockupRate),
		lockupLastSettledAt: new(big.Int).Set(a.LockupLastSettledAt),
	}
}

func (s accountSnapshot) restore(a *Account) {
	a.Funds = s.funds
	a.LockupCurrent = s.lockupCurrent
	a.LockupRate = s.lockupRate
	a.LockupLastSettledAt = s.lockupLastSettledAt
}

type approvalSnapshot struct {
	rateUsage   *big.Int
	lockupUsage *big.Int
}

func snapshotApproval(ap *OperatorApproval) approvalSnapshot {
	return approvalSnapshot{
		rateUsage:   new(big.Int).Set(ap.RateUsage),
		lockupUsage: new(big.Int).Set(ap.LockupUsage),
	}
}

func (s approvalSnapshot) restore(ap *OperatorApproval) {
	ap.RateUsage = s.rateUsage
	ap.LockupUsage = s.lockupUsage
}

type railSnapshot struct {
	paymentRate      *big.Int
	lockupPeriod     *big.Int
	lockupFixed      *big.Int
	settledUpTo      *big.Int
	terminationEpoch *big.Int
	queueEntries     []RateChangeEntry
	queueHead        int
}

func snapshotRail(r *Rail) railSnapshot {
	entries := make([]RateChangeEntry, len(r.Queue.entries))
	copy(entries, r.Queue.entries)
	return railSnapshot{
		paymentRate:      new(big.Int).Set(r.PaymentRate),
		lockupPeriod:     new(big.Int).Set(r.LockupPeriod),
		lockupFixed:      new(big.Int).Set(r.LockupFixed),
		settledUpTo:      new(big.Int).Set(r.SettledUpTo),
		terminationEpoch: new(big.Int).Set(r.TerminationEpoch),
		queueEntries:     entries,
		queueHead:        r.Queue.head,
	}
}

func (s railSnapshot) restore(r *Rail) {
	r.PaymentRate = s.paymentRate
	r.LockupPeriod = s.lockupPeriod
	r.LockupFixed = s.lockupFixed
	r.SettledUpTo = s.settledUpTo
	r.TerminationEpoch = s.terminationEpoch
	r.Queue.entries = s.queueEntries
	r.Queue.head = s.queueHead
}
