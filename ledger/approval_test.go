package ledger

import (
	"math/big"
	"testing"
)

func TestAdmitLockupDelta(t *testing.T) {
	t.Run("increase within allowance", func(t *testing.T) {
		a := newOperatorApproval()
		a.LockupAllowance = big.NewInt(100)
		if err := admitLockupDelta(a, big.NewInt(10), big.NewInt(40)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.LockupUsage.Cmp(big.NewInt(30)) != 0 {
			t.Errorf("lockup_usage = %s, want 30", a.LockupUsage)
		}
	})

	t.Run("increase beyond allowance is rejected", func(t *testing.T) {
		a := newOperatorApproval()
		a.LockupAllowance = big.NewInt(20)
		err := admitLockupDelta(a, big.NewInt(10), big.NewInt(40))
		if KindOf(err) != AllowanceExceeded {
			t.Fatalf("kind = %s, want %s", KindOf(err), AllowanceExceeded)
		}
		if !isZero(a.LockupUsage) {
			t.Errorf("usage must not mutate on rejection, got %s", a.LockupUsage)
		}
	})

	t.Run("decrease always admitted even past a lowered allowance", func(t *testing.T) {
		a := newOperatorApproval()
		a.LockupAllowance = big.NewInt(5)
		a.LockupUsage = big.NewInt(50)
		if err := admitLockupDelta(a, big.NewInt(50), big.NewInt(10)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if a.LockupUsage.Cmp(big.NewInt(10)) != 0 {
			t.Errorf("lockup_usage = %s, want 10", a.LockupUsage)
		}
	})

	t.Run("decrease saturates at zero", func(t *testing.T) {
		a := newOperatorApproval()
		a.LockupUsage = big.NewInt(5)
		if err := admitLockupDelta(a, big.NewInt(20), big.NewInt(0)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !isZero(a.LockupUsage) {
			t.Errorf("lockup_usage = %s, want 0", a.LockupUsage)
		}
	})
}

func TestAdmitRateDelta(t *testing.T) {
	t.Run("increase beyond allowance is rejected", func(t *testing.T) {
		a := newOperatorApproval()
		a.RateAllowance = big.NewInt(10)
		err := admitRateDelta(a, big.NewInt(0), big.NewInt(11))
		if KindOf(err) != AllowanceExceeded {
			t.Fatalf("kind = %s, want %s", KindOf(err), AllowanceExceeded)
		}
	})

	t.Run("allowance reduced then decrease still admitted", func(t *testing.T) {
		// scenario 6: approve rate_allowance=10, create rail rate=10 (usage=10),
		// reduce allowance to 3, then reduce rail rate 10 -> 2 must succeed.
		a := newOperatorApproval()
		a.RateAllowance = big.NewInt(10)
		if err := admitRateDelta(a, big.NewInt(0), big.NewInt(10)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		a.RateAllowance = big.NewInt(3)
		if err := admitRateDelta(a, big.NewInt(10), big.NewInt(2)); err != nil {
			t.Fatalf("unexpected error admitting decrease: %v", err)
		}
		if a.RateUsage.Cmp(big.NewInt(2)) != 0 {
			t.Errorf("rate_usage = %s, want 2", a.RateUsage)
		}
	})
}

func TestValidateAndModifyRateChange(t *testing.T) {
	t.Run("one_time_payment exceeding lockup_fixed is rejected", func(t *testing.T) {
		rail := &Rail{LockupPeriod: big.NewInt(10), LockupFixed: big.NewInt(5)}
		a := newOperatorApproval()
		a.LockupAllowance = big.NewInt(1000)
		a.RateAllowance = big.NewInt(1000)
		err := validateAndModifyRateChange(rail, a, big.NewInt(0), big.NewInt(5), big.NewInt(6))
		if KindOf(err) != InsufficientFunds {
			t.Fatalf("kind = %s, want %s", KindOf(err), InsufficientFunds)
		}
	})
}
