// Package clock supplies the external, monotonically increasing epoch the
// ledger engine is a pure function of (spec.md §1, §5). The engine never
// reads wall-clock time itself — every command takes an explicit epoch —
// this package just gives callers two ready-made EpochSource
// implementations instead of hand-rolling epoch bookkeeping.
package clock

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/virajbhartiya/fws-payments/constants"
)

// EpochSource reports the current external epoch.
type EpochSource interface {
	CurrentEpoch(ctx context.Context) (*big.Int, error)
}

// Manual is an EpochSource for tests and command-replay tooling: the epoch
// only moves when Advance or Set is called.
type Manual struct {
	epoch *big.Int
}

// NewManual starts a manual clock at the given epoch.
func NewManual(start *big.Int) *Manual {
	return &Manual{epoch: new(big.Int).Set(start)}
}

func (m *Manual) CurrentEpoch(context.Context) (*big.Int, error) {
	return new(big.Int).Set(m.epoch), nil
}

// Advance moves the clock forward by delta epochs and returns the new epoch.
func (m *Manual) Advance(delta *big.Int) *big.Int {
	m.epoch = new(big.Int).Add(m.epoch, delta)
	return new(big.Int).Set(m.epoch)
}

// Set pins the clock to an explicit epoch (must be monotonic; callers are
// responsible for that, per spec.md §1).
func (m *Manual) Set(epoch *big.Int) {
	m.epoch = new(big.Int).Set(epoch)
}

// Chain derives the current epoch from wall-clock time elapsed since the
// network's genesis (constants.CurrentEpoch); it does not query the client
// for block height. Grounded on the teacher's constants.CurrentEpoch /
// network.DetectNetwork.
type Chain struct {
	client  *ethclient.Client
	chainID int64
}

// NewChain builds a chain-driven EpochSource for the network the client is
// connected to.
func NewChain(client *ethclient.Client, chainID int64) *Chain {
	return &Chain{client: client, chainID: chainID}
}

func (c *Chain) CurrentEpoch(context.Context) (*big.Int, error) {
	return constants.CurrentEpoch(c.chainID), nil
}
