package tokenvault

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Memory is an in-process Vault backed by plain balances, for tests and
// standalone (non-chain-connected) deployments of the ledger.
type Memory struct {
	mu       sync.Mutex
	balances map[common.Address]map[common.Address]*big.Int // token -> holder -> balance
}

// NewMemory returns an empty in-memory vault.
func NewMemory() *Memory {
	return &Memory{balances: make(map[common.Address]map[common.Address]*big.Int)}
}

// Credit gives a holder tokens out of thin air, for test setup (simulating
// a prior on-chain acquisition).
func (m *Memory) Credit(token, holder common.Address, amount *big.Int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(token, holder, amount)
}

// BalanceOf reports a holder's wallet balance (distinct from their ledger
// account funds, which only change once deposited).
func (m *Memory) BalanceOf(token, holder common.Address) *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.get(token, holder))
}

func (m *Memory) Pull(_ context.Context, token, from common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	bal := m.get(token, from)
	if bal.Cmp(amount) < 0 {
		return fmt.Errorf("tokenvault: %s has insufficient balance: have %s, want %s", from.Hex(), bal, amount)
	}
	m.add(token, from, new(big.Int).Neg(amount))
	return nil
}

func (m *Memory) Push(_ context.Context, token, to common.Address, amount *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.add(token, to, amount)
	return nil
}

func (m *Memory) get(token, holder common.Address) *big.Int {
	byHolder, ok := m.balances[token]
	if !ok {
		return big.NewInt(0)
	}
	bal, ok := byHolder[holder]
	if !ok {
		return big.NewInt(0)
	}
	return bal
}

func (m *Memory) add(token, holder common.Address, delta *big.Int) {
	byHolder, ok := m.balances[token]
	if !ok {
		byHolder = make(map[common.Address]*big.Int)
		m.balances[token] = byHolder
	}
	cur, ok := byHolder[holder]
	if !ok {
		cur = big.NewInt(0)
	}
	byHolder[holder] = new(big.Int).Add(cur, delta)
}
