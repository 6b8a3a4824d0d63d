package chain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/0xfern/dexarb/internal/domain"
)

var (
	balanceOfSelector = selector("balanceOf(address)")
	decimalsSelector  = selector("decimals()")
)

// contractCaller is the eth_call surface BalanceReader reads through.
type contractCaller interface {
	callContract(ctx context.Context, contract common.Address, data []byte) ([]byte, error)
}

// BalanceReader reads ERC-20 balances for a single wallet. It satisfies
// domain.BalanceSource.
type BalanceReader struct {
	client contractCaller
	wallet common.Address

	mu       sync.Mutex
	decimals map[common.Address]uint8
}

// NewBalanceReader creates a BalanceReader for the given wallet address.
func NewBalanceReader(client *Client, walletAddr string) (*BalanceReader, error) {
	if !common.IsHexAddress(walletAddr) {
		return nil, fmt.Errorf("chain: wallet address %q: %w", walletAddr, domain.ErrInvalidParameter)
	}
	return &BalanceReader{
		client:   client,
		wallet:   common.HexToAddress(walletAddr),
		decimals: make(map[common.Address]uint8),
	}, nil
}

// Balances returns the wallet's balance for each token address, in whole
// token units (raw balance scaled down by the token's decimals). The result
// is keyed by the address strings exactly as given, so a lookup made with the
// same token-registry string always matches regardless of hex casing.
func (r *BalanceReader) Balances(ctx context.Context, tokenAddrs []string) (domain.Balances, error) {
	out := make(domain.Balances, len(tokenAddrs))
	for _, addr := range tokenAddrs {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("chain: token address %q: %w", addr, domain.ErrInvalidParameter)
		}
		token := common.HexToAddress(addr)

		raw, err := r.rawBalance(ctx, token)
		if err != nil {
			return nil, err
		}
		dec, err := r.tokenDecimals(ctx, token)
		if err != nil {
			return nil, err
		}
		out[addr] = scaleDown(raw, dec)
	}
	return out, nil
}

func (r *BalanceReader) rawBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	data := append(append([]byte{}, balanceOfSelector...), common.LeftPadBytes(r.wallet.Bytes(), 32)...)
	ret, err := r.client.callContract(ctx, token, data)
	if err != nil {
		return nil, fmt.Errorf("chain: balanceOf %s: %w", token.Hex(), err)
	}
	return word(ret, 0)
}

// tokenDecimals returns the token's decimals, cached after the first call.
func (r *BalanceReader) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	r.mu.Lock()
	dec, ok := r.decimals[token]
	r.mu.Unlock()
	if ok {
		return dec, nil
	}

	ret, err := r.client.callContract(ctx, token, decimalsSelector)
	if err != nil {
		return 0, fmt.Errorf("chain: decimals %s: %w", token.Hex(), err)
	}
	w, err := word(ret, 0)
	if err != nil {
		return 0, err
	}
	if !w.IsUint64() || w.Uint64() > 77 {
		return 0, fmt.Errorf("chain: decimals %s: implausible value %s", token.Hex(), w)
	}

	dec = uint8(w.Uint64())
	r.mu.Lock()
	r.decimals[token] = dec
	r.mu.Unlock()
	return dec, nil
}

// scaleDown converts a raw integer token amount to whole units as float64.
func scaleDown(raw *big.Int, decimals uint8) float64 {
	f := new(big.Float).SetInt(raw)
	divisor := new(big.Float).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
	out, _ := new(big.Float).Quo(f, divisor).Float64()
	return out
}
