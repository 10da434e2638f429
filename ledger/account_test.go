package ledger

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestSettleAccountLockup(t *testing.T) {
	t.Run("no elapsed epochs is idempotent", func(t *testing.T) {
		acc := newAccount(common.Address{}, common.Address{})
		acc.LockupLastSettledAt = big.NewInt(5)

		fully, upto, err := settleAccountLockup(acc, big.NewInt(5))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fully || upto.Cmp(big.NewInt(5)) != 0 {
			t.Errorf("got (%v, %s), want (true, 5)", fully, upto)
		}
	})

	t.Run("zero rate advances immediately", func(t *testing.T) {
		acc := newAccount(common.Address{}, common.Address{})
		acc.LockupLastSettledAt = big.NewInt(5)

		fully, upto, err := settleAccountLockup(acc, big.NewInt(20))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fully || upto.Cmp(big.NewInt(20)) != 0 {
			t.Errorf("got (%v, %s), want (true, 20)", fully, upto)
		}
		if acc.LockupLastSettledAt.Cmp(big.NewInt(20)) != 0 {
			t.Errorf("lockup_last_settled_at = %s, want 20", acc.LockupLastSettledAt)
		}
	})

	t.Run("fully funded settlement", func(t *testing.T) {
		acc := newAccount(common.Address{}, common.Address{})
		acc.Funds = big.NewInt(1000)
		acc.LockupRate = big.NewInt(5)
		acc.LockupLastSettledAt = big.NewInt(0)

		fully, upto, err := settleAccountLockup(acc, big.NewInt(10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !fully || upto.Cmp(big.NewInt(10)) != 0 {
			t.Errorf("got (%v, %s), want (true, 10)", fully, upto)
		}
		if acc.LockupCurrent.Cmp(big.NewInt(50)) != 0 {
			t.Errorf("lockup_current = %s, want 50", acc.LockupCurrent)
		}
	})

	t.Run("insufficient funds settle partially to a whole epoch", func(t *testing.T) {
		acc := newAccount(common.Address{}, common.Address{})
		acc.Funds = big.NewInt(37)
		acc.LockupRate = big.NewInt(5)
		acc.LockupLastSettledAt = big.NewInt(0)

		fully, upto, err := settleAccountLockup(acc, big.NewInt(10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fully {
			t.Error("expected partial settlement")
		}
		if upto.Cmp(big.NewInt(7)) != 0 {
			t.Errorf("settled_upto = %s, want 7 (37/5=7)", upto)
		}
		if acc.LockupCurrent.Cmp(big.NewInt(35)) != 0 {
			t.Errorf("lockup_current = %s, want 35", acc.LockupCurrent)
		}
	})

	t.Run("no available funds makes no progress", func(t *testing.T) {
		acc := newAccount(common.Address{}, common.Address{})
		acc.Funds = big.NewInt(10)
		acc.LockupCurrent = big.NewInt(10)
		acc.LockupRate = big.NewInt(5)
		acc.LockupLastSettledAt = big.NewInt(3)

		fully, upto, err := settleAccountLockup(acc, big.NewInt(10))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fully {
			t.Error("expected no progress, not full settlement")
		}
		if upto.Cmp(big.NewInt(3)) != 0 {
			t.Errorf("settled_upto = %s, want unchanged at 3", upto)
		}
	})
}
