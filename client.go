// Package fwspayments wires the ledger engine, a token vault, and an
// epoch source into one client, the way the teacher's synapse package wired
// storage/PDP collaborators behind a single Client.
package fwspayments

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/virajbhartiya/fws-payments/clock"
	"github.com/virajbhartiya/fws-payments/constants"
	"github.com/virajbhartiya/fws-payments/internal/retry"
	"github.com/virajbhartiya/fws-payments/ledger"
	"github.com/virajbhartiya/fws-payments/signer"
	"github.com/virajbhartiya/fws-payments/tokenvault"
)

// Options configures New. Either dial a live chain (RPCURL set) for an
// on-chain-backed vault and clock, or leave it empty for a standalone,
// in-memory deployment — e.g. tests, or a ledger with no chain of record.
type Options struct {
	PrivateKey *ecdsa.PrivateKey

	RPCURL string

	EngineConfig ledger.EngineConfig

	Logger *zap.Logger
}

// Client bundles the ledger engine with whichever EpochSource/Vault pair
// Options selected, grounded on the teacher's Client (synapse.go).
type Client struct {
	network Network
	chainID int64

	ethClient *ethclient.Client
	address   common.Address

	engine *ledger.Engine
	clock  clock.EpochSource
}

// New connects (if RPCURL is set) and builds a ready-to-use Client. A
// PrivateKey is required whenever RPCURL is set, since the on-chain vault
// signs transfers with it; a standalone, in-memory deployment needs neither.
func New(ctx context.Context, opts Options) (*Client, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	engineConfig := opts.EngineConfig
	if (engineConfig == ledger.EngineConfig{}) {
		engineConfig = ledger.DefaultEngineConfig()
	}

	if opts.RPCURL == "" {
		engine := ledger.NewEngine(tokenvault.NewMemory(), engineConfig, logger)
		return &Client{engine: engine, clock: clock.NewManual(big.NewInt(0))}, nil
	}

	if opts.PrivateKey == nil {
		return nil, fmt.Errorf("fwspayments: private key is required when RPCURL is set")
	}

	var ethClient *ethclient.Client
	dialErr := retry.Do(ctx, retry.DefaultConfig(), func() error {
		c, err := ethclient.DialContext(ctx, opts.RPCURL)
		if err != nil {
			return err
		}
		ethClient = c
		return nil
	})
	if dialErr != nil {
		return nil, fmt.Errorf("fwspayments: connecting to %s: %w", opts.RPCURL, dialErr)
	}

	network, chainID, err := DetectNetwork(ctx, ethClient)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("fwspayments: detecting network: %w", err)
	}

	address := crypto.PubkeyToAddress(opts.PrivateKey.PublicKey)
	evmSigner, err := signer.NewSecp256k1SignerFromECDSA(opts.PrivateKey)
	if err != nil {
		ethClient.Close()
		return nil, fmt.Errorf("fwspayments: building signer: %w", err)
	}
	vault := tokenvault.NewEth(ethClient, evmSigner, big.NewInt(chainID))
	engine := ledger.NewEngine(vault, engineConfig, logger)

	return &Client{
		network:   network,
		chainID:   chainID,
		ethClient: ethClient,
		address:   address,
		engine:    engine,
		clock:     clock.NewChain(ethClient, chainID),
	}, nil
}

func (c *Client) Network() Network { return c.network }

func (c *Client) ChainID() int64 { return c.chainID }

func (c *Client) Address() common.Address { return c.address }

func (c *Client) EthClient() *ethclient.Client { return c.ethClient }

// Engine exposes the ledger state machine for every command and query.
func (c *Client) Engine() *ledger.Engine { return c.engine }

// CurrentEpoch reads the client's epoch source.
func (c *Client) CurrentEpoch(ctx context.Context) (*big.Int, error) {
	return c.clock.CurrentEpoch(ctx)
}

// WaitForEpoch polls the epoch source until it reaches target, grounded on
// the teacher's internal/retry.Poll pattern for deadline-bound on-chain
// waits (pkg/txutil.WaitForReceipt is the sibling for transaction receipts).
func (c *Client) WaitForEpoch(ctx context.Context, target *big.Int, pollInterval, timeout time.Duration) error {
	return retry.Poll(ctx, pollInterval, timeout, func() (bool, error) {
		epoch, err := c.clock.CurrentEpoch(ctx)
		if err != nil {
			return false, err
		}
		return epoch.Cmp(target) >= 0, nil
	})
}

func (c *Client) Close() {
	if c.ethClient != nil {
		c.ethClient.Close()
	}
}

// USDFCAddress returns the reference stablecoin's address on the client's
// network, a convenience for examples and tests.
func (c *Client) USDFCAddress() (common.Address, bool) {
	addr, ok := constants.USDFCAddresses[constants.Network(c.network)]
	return addr, ok
}
