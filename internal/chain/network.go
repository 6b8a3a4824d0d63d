package chain

import (
	"context"
	"fmt"
	"math/big"
)

var gweiWei = big.NewFloat(1e9)

// NetworkMonitor gates trade selection on current chain conditions. It
// satisfies domain.NetworkChecker.
type NetworkMonitor struct {
	client      *Client
	maxGasPrice float64 // gwei
}

// NewNetworkMonitor creates a monitor that rejects trading whenever the
// suggested gas price exceeds maxGasPriceGwei or the node is still syncing.
func NewNetworkMonitor(client *Client, maxGasPriceGwei float64) *NetworkMonitor {
	return &NetworkMonitor{client: client, maxGasPrice: maxGasPriceGwei}
}

// CheckNetworkConditions reports whether on-chain conditions permit trading.
// A degraded node or RPC failure is an error, not an unfavorable verdict.
func (m *NetworkMonitor) CheckNetworkConditions(ctx context.Context) (bool, error) {
	progress, err := m.client.eth.SyncProgress(ctx)
	if err != nil {
		return false, fmt.Errorf("chain: sync progress: %w", err)
	}
	if progress != nil {
		m.client.logger.Warn("node still syncing",
			"current_block", progress.CurrentBlock, "highest_block", progress.HighestBlock)
		return false, nil
	}

	gasWei, err := m.client.eth.SuggestGasPrice(ctx)
	if err != nil {
		return false, fmt.Errorf("chain: suggest gas price: %w", err)
	}
	gasGwei, _ := new(big.Float).Quo(new(big.Float).SetInt(gasWei), gweiWei).Float64()
	if gasGwei > m.maxGasPrice {
		m.client.logger.Info("gas price above trading ceiling",
			"gas_gwei", gasGwei, "max_gwei", m.maxGasPrice)
		return false, nil
	}
	return true, nil
}

// GasPriceGwei returns the node's current suggested gas price in gwei.
func (m *NetworkMonitor) GasPriceGwei(ctx context.Context) (float64, error) {
	gasWei, err := m.client.eth.SuggestGasPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: suggest gas price: %w", err)
	}
	out, _ := new(big.Float).Quo(new(big.Float).SetInt(gasWei), gweiWei).Float64()
	return out, nil
}
