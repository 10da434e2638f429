// Package tokenvault provides the TokenVault collaborator spec.md §1 treats
// as out of scope for the core engine ("a generic TokenVault with
// pull(from,amount) / push(to,amount)"). The ledger engine calls Vault to
// move real tokens on deposit/withdraw; internal rail settlement never
// touches it (funds move between ledger accounts in memory, not on-chain,
// until withdrawn).
package tokenvault

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Vault pulls tokens from an external holder into the ledger's custody, or
// pushes tokens out of it. Implementations decide what "custody" means: an
// in-memory balance for tests, or an on-chain ERC-20 transfer for
// production use.
type Vault interface {
	Pull(ctx context.Context, token, from common.Address, amount *big.Int) error
	Push(ctx context.Context, token, to common.Address, amount *big.Int) error
}
