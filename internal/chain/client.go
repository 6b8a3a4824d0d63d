// Package chain provides read-only access to the EVM network backing the
// engine: wallet balances, lending reserve state, and gas conditions. All
// contract calls are eth_call only; nothing here signs or broadcasts.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Client wraps an ethclient connection to a JSON-RPC node.
type Client struct {
	eth     *ethclient.Client
	chainID int64
	logger  *slog.Logger
}

// Dial connects to the given JSON-RPC endpoint and verifies the reported
// chain ID matches the configured one.
func Dial(ctx context.Context, rpcEndpoint string, chainID int64, logger *slog.Logger) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", rpcEndpoint, err)
	}

	reported, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("chain: query chain id: %w", err)
	}
	if reported.Int64() != chainID {
		eth.Close()
		return nil, fmt.Errorf("chain: node reports chain %d, expected %d", reported.Int64(), chainID)
	}

	return &Client{
		eth:     eth,
		chainID: chainID,
		logger:  logger.With(slog.String("component", "chain")),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// selector returns the 4-byte function selector for a canonical signature.
func selector(signature string) []byte {
	return ethcrypto.Keccak256([]byte(signature))[:4]
}

// callContract performs an eth_call against the given contract.
func (c *Client) callContract(ctx context.Context, contract common.Address, data []byte) ([]byte, error) {
	msg := ethereum.CallMsg{To: &contract, Data: data}
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s: %w", contract.Hex(), err)
	}
	return out, nil
}

// word extracts the i-th 32-byte word of an ABI-encoded return payload.
func word(data []byte, i int) (*big.Int, error) {
	start := i * 32
	if len(data) < start+32 {
		return nil, fmt.Errorf("chain: return data too short: want word %d, have %d bytes", i, len(data))
	}
	return new(big.Int).SetBytes(data[start : start+32]), nil
}
