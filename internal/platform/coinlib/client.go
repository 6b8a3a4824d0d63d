// Package coinlib is the REST client for the Coinlib API, the second
// market-reference price source alongside CoinMarketCap.
package coinlib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// Client is the Coinlib REST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Coinlib client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiCoin is the wire shape of the /coin response. Coinlib serializes
// price as a decimal string.
type apiCoin struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
	Error  string `json:"error"`
}

// GetPrice returns the latest USD price for the given symbol.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("pref", "USD")
	params.Set("symbol", symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/coin?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("coinlib: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("coinlib: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("coinlib: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, fmt.Errorf("coinlib: %w: %s", domain.ErrRateLimited, body)
	case resp.StatusCode == http.StatusNotFound:
		return 0, fmt.Errorf("coinlib: coin %s: %w", symbol, domain.ErrNotFound)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return 0, fmt.Errorf("coinlib: HTTP %d: %s", resp.StatusCode, body)
	}

	var api apiCoin
	if err := json.Unmarshal(body, &api); err != nil {
		return 0, fmt.Errorf("coinlib: decode coin: %w", err)
	}
	if api.Error != "" {
		return 0, fmt.Errorf("coinlib: api error: %s", api.Error)
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(api.Price), 64)
	if err != nil {
		return 0, fmt.Errorf("coinlib: parse price %q: %w", api.Price, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("coinlib: coin %s: non-positive price: %w", symbol, domain.ErrMissingData)
	}
	return price, nil
}
