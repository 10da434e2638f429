package tokenvault

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/virajbhartiya/fws-payments/constants"
	"github.com/virajbhartiya/fws-payments/contracts"
	"github.com/virajbhartiya/fws-payments/pkg/txutil"
	"github.com/virajbhartiya/fws-payments/signer"
)

// Eth is a Vault backed by real ERC-20 transfers, adapted from the
// teacher's payments.Service (which drove an already-deployed Payments
// contract over RPC). Here the ledger engine owns the bookkeeping and this
// Vault's only job is moving the underlying token: Pull calls transferFrom
// out of the depositor's wallet into the signer's EVM address acting as
// custodian; Push calls transfer out of the custodian to the withdrawer.
type Eth struct {
	client       *ethclient.Client
	evm          signer.EVMSigner
	custodian    common.Address
	chainID      *big.Int
	nonceManager *txutil.NonceManager
	retryConfig  txutil.RetryConfig
}

// NewEth builds a chain-backed vault. custodian is the address that holds
// pulled tokens (and from which pushed tokens are sent); it is always the
// EVM address derived from evm's key.
func NewEth(client *ethclient.Client, evm signer.EVMSigner, chainID *big.Int) *Eth {
	custodian := evm.EVMAddress()
	return &Eth{
		client:       client,
		evm:          evm,
		custodian:    custodian,
		chainID:      chainID,
		nonceManager: txutil.NewNonceManager(client, custodian),
		retryConfig:  txutil.DefaultRetryConfig(),
	}
}

func (v *Eth) Pull(ctx context.Context, token, from common.Address, amount *big.Int) error {
	erc20, err := contracts.NewERC20Contract(token, v.client)
	if err != nil {
		return fmt.Errorf("tokenvault: building ERC20 binding: %w", err)
	}

	opts, err := v.evm.Transactor(v.chainID)
	if err != nil {
		return fmt.Errorf("tokenvault: building transactor: %w", err)
	}
	opts.Context = ctx

	nonce, err := v.nonceManager.GetNonce(ctx)
	if err != nil {
		return fmt.Errorf("tokenvault: allocating nonce: %w", err)
	}
	sent := false
	defer func() {
		if !sent {
			v.nonceManager.MarkFailed(nonce)
		}
	}()
	opts.Nonce = new(big.Int).SetUint64(nonce)

	tx, err := erc20.TransferFrom(opts, from, v.custodian, amount)
	if err != nil {
		return fmt.Errorf("tokenvault: pulling %s from %s: %w", amount, from.Hex(), err)
	}
	sent = true

	receipt, err := txutil.WaitForReceipt(ctx, v.client, tx.Hash(), constants.TransactionPropagationTimeout)
	if err != nil {
		return fmt.Errorf("tokenvault: waiting for pull receipt: %w", err)
	}
	_ = receipt
	v.nonceManager.MarkConfirmed(nonce)
	return nil
}

func (v *Eth) Push(ctx context.Context, token, to common.Address, amount *big.Int) error {
	erc20, err := contracts.NewERC20Contract(token, v.client)
	if err != nil {
		return fmt.Errorf("tokenvault: building ERC20 binding: %w", err)
	}

	opts, err := v.evm.Transactor(v.chainID)
	if err != nil {
		return fmt.Errorf("tokenvault: building transactor: %w", err)
	}
	opts.Context = ctx

	nonce, err := v.nonceManager.GetNonce(ctx)
	if err != nil {
		return fmt.Errorf("tokenvault: allocating nonce: %w", err)
	}
	sent := false
	defer func() {
		if !sent {
			v.nonceManager.MarkFailed(nonce)
		}
	}()
	opts.Nonce = new(big.Int).SetUint64(nonce)

	tx, err := erc20.Transfer(opts, to, amount)
	if err != nil {
		return fmt.Errorf("tokenvault: pushing %s to %s: %w", amount, to.Hex(), err)
	}
	sent = true

	receipt, err := txutil.WaitForReceipt(ctx, v.client, tx.Hash(), constants.TransactionPropagationTimeout)
	if err != nil {
		return fmt.Errorf("tokenvault: waiting for push receipt: %w", err)
	}
	_ = receipt
	v.nonceManager.MarkConfirmed(nonce)
	return nil
}
