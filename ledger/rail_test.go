package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/virajbhartiya/fws-payments/ledger/arbiter"
)

func newTestRail(rate, period int64) (*Rail, *Account, *Account) {
	payer := newAccount(common.Address{}, common.HexToAddress("0x1"))
	payee := newAccount(common.Address{}, common.HexToAddress("0x2"))
	rail := &Rail{
		ID:               1,
		From:             payer.Owner,
		To:               payee.Owner,
		IsActive:         true,
		PaymentRate:      big.NewInt(rate),
		LockupPeriod:     big.NewInt(period),
		LockupFixed:      big.NewInt(0),
		SettledUpTo:      big.NewInt(0),
		TerminationEpoch: big.NewInt(0),
		Queue:            newRateChangeQueue(),
	}
	return rail, payer, payee
}

func TestSettleRailSegments_BasicStream(t *testing.T) {
	// spec.md §8 scenario 1: rate=5, period=10, advance to E=10, no arbiter.
	rail, payer, payee := newTestRail(5, 10)
	payer.Funds = big.NewInt(1000)
	payer.LockupCurrent = big.NewInt(50)
	payer.LockupRate = big.NewInt(5)
	payer.LockupLastSettledAt = big.NewInt(0)

	total, final, note, err := settleRailSegments(rail, payer, payee, big.NewInt(10), big.NewInt(10), false, arbiter.Faithful{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("total settled = %s, want 50", total)
	}
	if final.Cmp(big.NewInt(10)) != 0 {
		t.Errorf("final epoch = %s, want 10", final)
	}
	if note != "settled" {
		t.Errorf("note = %q, want %q", note, "settled")
	}
	if payer.Funds.Cmp(big.NewInt(950)) != 0 {
		t.Errorf("payer funds = %s, want 950", payer.Funds)
	}
	if payee.Funds.Cmp(big.NewInt(50)) != 0 {
		t.Errorf("payee funds = %s, want 50", payee.Funds)
	}
}

func TestSettleRailSegments_TerminationGrace(t *testing.T) {
	// spec.md §8 scenario 2, continuing scenario 1: terminate at E=12 with
	// rate=5, period=10 -> max_term=22. Settle at E=17 pays 5*(17-10)=35,
	// then settle at E=25 pays 5*(22-17)=25 and finalizes.
	rail, payer, payee := newTestRail(5, 10)
	payer.Funds = big.NewInt(1000)
	payer.LockupCurrent = big.NewInt(60)
	payer.LockupRate = big.NewInt(0)
	payer.LockupLastSettledAt = big.NewInt(12)
	rail.SettledUpTo = big.NewInt(10)
	rail.TerminationEpoch = big.NewInt(12)

	total, final, note, err := settleRailSegments(rail, payer, payee, big.NewInt(17), big.NewInt(17), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.Cmp(big.NewInt(35)) != 0 {
		t.Errorf("first settle total = %s, want 35", total)
	}
	if final.Cmp(big.NewInt(17)) != 0 {
		t.Errorf("first settle final = %s, want 17", final)
	}
	if note != "settled" {
		t.Errorf("note = %q, want settled", note)
	}

	total, final, note, err = settleRailSegments(rail, payer, payee, big.NewInt(25), big.NewInt(25), false, nil)
	if err != nil {
		t.Fatalf("unexpected error on second settle: %v", err)
	}
	if total.Cmp(big.NewInt(25)) != 0 {
		t.Errorf("second settle total = %s, want 25", total)
	}
	if final.Cmp(big.NewInt(22)) != 0 {
		t.Errorf("second settle final = %s, want 22 (capped at max_term)", final)
	}
	if note != "settled" {
		t.Errorf("note = %q, want settled", note)
	}

	total, final, note, err = settleRailSegments(rail, payer, payee, big.NewInt(30), big.NewInt(30), false, nil)
	if err != nil {
		t.Fatalf("unexpected error finalizing: %v", err)
	}
	if !isZero(total) {
		t.Errorf("finalize settles nothing further, got %s", total)
	}
	if note != "finalized" {
		t.Errorf("note = %q, want finalized", note)
	}
	if rail.IsActive {
		t.Error("rail should be inactive after finalization")
	}
	if !isZero(rail.LockupFixed) {
		t.Errorf("lockup_fixed should be released, got %s", rail.LockupFixed)
	}
	_ = final
}

func TestSettleRailSegments_ArbiterPartialSettlement(t *testing.T) {
	// spec.md §8 scenario 3: rate=10, period=5, arbiter halves every segment.
	rail, payer, payee := newTestRail(10, 5)
	rail.Arbiter = common.HexToAddress("0xA2B1")
	payer.Funds = big.NewInt(1000)
	payer.LockupCurrent = big.NewInt(40)
	payer.LockupRate = big.NewInt(10)
	payer.LockupLastSettledAt = big.NewInt(0)

	half := arbiter.FixedDiscount{Numerator: big.NewInt(1), Denominator: big.NewInt(2)}
	total, final, _, err := settleRailSegments(rail, payer, payee, big.NewInt(4), big.NewInt(4), false, half)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.Cmp(big.NewInt(20)) != 0 {
		t.Errorf("total = %s, want 20 (10*4/2)", total)
	}
	if final.Cmp(big.NewInt(4)) != 0 {
		t.Errorf("final epoch = %s, want 4", final)
	}
}

func TestSettleRailSegments_RateChangeWithQueue(t *testing.T) {
	// spec.md §8 scenario 4, arbiter branch: queue holds {rate=5,until=3},
	// rate changes to 8 after. settle_rail(until=7) with identity arbiter
	// pays 5*3 + 8*(7-3) = 47.
	rail, payer, payee := newTestRail(8, 100)
	rail.Arbiter = common.HexToAddress("0xA2B1")
	rail.Queue.Enqueue(big.NewInt(5), big.NewInt(3))
	payer.Funds = big.NewInt(1000)
	payer.LockupCurrent = big.NewInt(900)
	payer.LockupRate = big.NewInt(8)
	payer.LockupLastSettledAt = big.NewInt(0)

	total, final, note, err := settleRailSegments(rail, payer, payee, big.NewInt(7), big.NewInt(7), false, arbiter.Faithful{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total.Cmp(big.NewInt(47)) != 0 {
		t.Errorf("total = %s, want 47", total)
	}
	if final.Cmp(big.NewInt(7)) != 0 {
		t.Errorf("final = %s, want 7", final)
	}
	if note != "settled" {
		t.Errorf("note = %q, want settled", note)
	}
	if !rail.Queue.IsEmpty() {
		t.Error("queue should be drained once its segment is fully settled")
	}
}

func TestSettleRailSegments_InactiveRailNoOp(t *testing.T) {
	rail, payer, payee := newTestRail(5, 10)
	rail.IsActive = false
	rail.SettledUpTo = big.NewInt(3)

	total, final, note, err := settleRailSegments(rail, payer, payee, big.NewInt(10), big.NewInt(10), false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !isZero(total) || final.Cmp(big.NewInt(3)) != 0 || note != "inactive" {
		t.Errorf("got (%s, %s, %q), want (0, 3, inactive)", total, final, note)
	}
}

func TestSettleRailSegments_ArbiterContractViolation(t *testing.T) {
	rail, payer, payee := newTestRail(5, 10)
	rail.Arbiter = common.HexToAddress("0xBAD")
	payer.Funds = big.NewInt(1000)
	payer.LockupCurrent = big.NewInt(50)
	payer.LockupRate = big.NewInt(5)

	bad := arbiter.FixedDiscount{Numerator: big.NewInt(10), Denominator: big.NewInt(1)} // modified > rate-bound
	_, _, _, err := settleRailSegments(rail, payer, payee, big.NewInt(10), big.NewInt(10), false, bad)
	if KindOf(err) != ArbiterContractViolation {
		t.Fatalf("kind = %s, want %s", KindOf(err), ArbiterContractViolation)
	}
}
