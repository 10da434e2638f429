package ledger

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Account is keyed by (token, owner) — spec.md §3.
type Account struct {
	Token common.Address
	Owner common.Address

	Funds               *big.Int
	LockupCurrent       *big.Int
	LockupRate          *big.Int
	LockupLastSettledAt *big.Int
}

func newAccount(token, owner common.Address) *Account {
	return &Account{
		Token:               token,
		Owner:               owner,
		Funds:               big.NewInt(0),
		LockupCurrent:       big.NewInt(0),
		LockupRate:          big.NewInt(0),
		LockupLastSettledAt: big.NewInt(0),
	}
}

type accountKey struct {
	token common.Address
	owner common.Address
}

func keyOfAccount(token, owner common.Address) accountKey {
	return accountKey{token: token, owner: owner}
}

// OperatorApproval is keyed by (token, payer, operator) — spec.md §3.
type OperatorApproval struct {
	IsApproved      bool
	RateAllowance   *big.Int
	LockupAllowance *big.Int
	RateUsage       *big.Int
	LockupUsage     *big.Int

	// BoundArbiter is only consulted when EngineConfig.ArbiterBinding is
	// set — spec.md §9 Open Question 2's legacy variant, where an operator
	// may only ever be assigned one specific arbiter across every rail it
	// creates for this (token, payer). Zero address means unbound.
	BoundArbiter common.Address
}

func newOperatorApproval() *OperatorApproval {
	return &OperatorApproval{
		RateAllowance:   big.NewInt(0),
		LockupAllowance: big.NewInt(0),
		RateUsage:       big.NewInt(0),
		LockupUsage:     big.NewInt(0),
	}
}

type approvalKey struct {
	token    common.Address
	payer    common.Address
	operator common.Address
}

func keyOfApproval(token, payer, operator common.Address) approvalKey {
	return approvalKey{token: token, payer: payer, operator: operator}
}

type operatorRailsKey struct {
	payer    common.Address
	operator common.Address
}

// Rail is keyed by a globally unique, monotonically assigned rail ID —
// spec.md §3. IDs are plain uint64 internally (the counter is process-local
// and never needs to cross a 256-bit wire format the way an amount does);
// the public API accepts/returns *big.Int to match the rest of the ledger's
// arithmetic surface.
type Rail struct {
	ID uint64

	Token    common.Address
	From     common.Address
	To       common.Address
	Operator common.Address
	Arbiter  common.Address // zero address means "no arbiter"

	IsActive bool

	PaymentRate  *big.Int
	LockupPeriod *big.Int
	LockupFixed  *big.Int

	SettledUpTo      *big.Int
	TerminationEpoch *big.Int

	Queue *RateChangeQueue

	IsLocked bool
}

func (r *Rail) hasArbiter() bool {
	return r.Arbiter != (common.Address{})
}

func (r *Rail) isTerminated() bool {
	return r.TerminationEpoch.Sign() > 0
}

// RailView is a read-only snapshot returned by queries, grounded on the
// teacher's payments.RailView (payments/types.go).
type RailView struct {
	ID               *big.Int
	Token            common.Address
	From             common.Address
	To               common.Address
	Operator         common.Address
	Arbiter          common.Address
	IsActive         bool
	PaymentRate      *big.Int
	LockupPeriod     *big.Int
	LockupFixed      *big.Int
	SettledUpTo      *big.Int
	TerminationEpoch *big.Int
}

func (r *Rail) view() *RailView {
	return &RailView{
		ID:               new(big.Int).SetUint64(r.ID),
		Token:            r.Token,
		From:             r.From,
		To:               r.To,
		Operator:         r.Operator,
		Arbiter:          r.Arbiter,
		IsActive:         r.IsActive,
		PaymentRate:      new(big.Int).Set(r.PaymentRate),
		LockupPeriod:     new(big.Int).Set(r.LockupPeriod),
		LockupFixed:      new(big.Int).Set(r.LockupFixed),
		SettledUpTo:      new(big.Int).Set(r.SettledUpTo),
		TerminationEpoch: new(big.Int).Set(r.TerminationEpoch),
	}
}

// AccountInfo is a read-only, settle-simulated projection of an account,
// grounded on payments.Service.AccountInfo in the teacher.
type AccountInfo struct {
	Funds               *big.Int
	LockupCurrent       *big.Int
	LockupRate          *big.Int
	LockupLastSettledAt *big.Int
	FundedUntilEpoch    *big.Int
	AvailableFunds      *big.Int
}

// RailSummary is the lightweight per-rail entry used by the payer/operator
// rail listings (which return every rail, without pagination), grounded on
// payments.RailInfo.
type RailSummary struct {
	RailID       *big.Int
	IsTerminated bool
	IsActive     bool
}
