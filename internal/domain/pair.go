// Package domain defines the core data model for the arbitrage engine:
// trading pairs, price quotes and snapshots, evaluation decisions,
// opportunities, balances, and the store/cache interfaces implemented by the
// infrastructure packages.
package domain

import (
	"fmt"
	"strings"
)

// TradingPair is an ordered (base, quote) asset pair, both identified by
// symbol, e.g. base "ETH" quote "USDT" for "ETH/USDT".
type TradingPair struct {
	Base  string
	Quote string
}

// ParsePair parses a "BASE/QUOTE" string into a TradingPair.
func ParsePair(s string) (TradingPair, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return TradingPair{}, fmt.Errorf("%w: pair %q must be BASE/QUOTE", ErrInvalidParameter, s)
	}
	p := TradingPair{
		Base:  strings.ToUpper(strings.TrimSpace(parts[0])),
		Quote: strings.ToUpper(strings.TrimSpace(parts[1])),
	}
	if err := p.Validate(); err != nil {
		return TradingPair{}, err
	}
	return p, nil
}

// Validate checks the pair invariants: both symbols non-empty and distinct.
func (p TradingPair) Validate() error {
	if p.Base == "" || p.Quote == "" {
		return fmt.Errorf("%w: pair %q has empty symbol", ErrInvalidParameter, p)
	}
	if p.Base == p.Quote {
		return fmt.Errorf("%w: pair %q base equals quote", ErrInvalidParameter, p)
	}
	return nil
}

// String returns the canonical "BASE/QUOTE" form.
func (p TradingPair) String() string {
	return p.Base + "/" + p.Quote
}

// TokenRegistry maps asset symbols to their on-chain contract addresses.
// Symbols that do not resolve are unknown to the system.
type TokenRegistry map[string]string

// Resolve returns the contract address for a symbol, or ErrNotFound.
func (r TokenRegistry) Resolve(symbol string) (string, error) {
	addr, ok := r[strings.ToUpper(symbol)]
	if !ok || addr == "" {
		return "", fmt.Errorf("token %s: %w", symbol, ErrNotFound)
	}
	return addr, nil
}

// Symbols returns all registered symbols.
func (r TokenRegistry) Symbols() []string {
	out := make([]string, 0, len(r))
	for s := range r {
		out = append(out, s)
	}
	return out
}
