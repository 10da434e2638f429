package fwspayments

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/virajbhartiya/fws-payments/constants"
)

// Network re-exports constants.Network so callers never import the
// constants package directly, the way the teacher's network.go aliased it.
type Network = constants.Network

const (
	NetworkMainnet     = constants.NetworkMainnet
	NetworkCalibration = constants.NetworkCalibration
	ChainIDMainnet     = constants.ChainIDMainnet
	ChainIDCalibration = constants.ChainIDCalibration
)

var (
	Multicall3Addresses = constants.Multicall3Addresses
	USDFCAddresses      = constants.USDFCAddresses
	RPCURLs             = constants.RPCURLs
)

const (
	EpochDuration  = constants.EpochDurationSeconds
	EpochsPerDay   = constants.EpochsPerDay
	EpochsPerMonth = constants.EpochsPerMonth
)

// DetectNetwork reads the connected chain's ID and maps it to a known
// Network.
func DetectNetwork(ctx context.Context, client *ethclient.Client) (Network, int64, error) {
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return NetworkFromChainID(chainID)
}

func NetworkFromChainID(chainID *big.Int) (Network, int64, error) {
	id := chainID.Int64()
	switch id {
	case ChainIDMainnet:
		return NetworkMainnet, id, nil
	case ChainIDCalibration:
		return NetworkCalibration, id, nil
	default:
		return "", 0, fmt.Errorf("unsupported chain ID: %d (expected %d for mainnet or %d for calibration)",
			id, ChainIDMainnet, ChainIDCalibration)
	}
}
