// Package paraswap is the REST client for the Paraswap aggregator API, which
// supplies swap prices per base token and fast-tier gas prices.
package paraswap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// Client is the Paraswap REST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Paraswap client.
//
// baseURL is the API root, e.g. "https://apiv4.paraswap.io/v2"; apiKey may be
// empty for the public tier.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetPrices returns the latest prices for every quote asset Paraswap lists
// against the given base token, keyed by quote symbol.
func (c *Client) GetPrices(ctx context.Context, baseTokenAddr string) (map[string]float64, error) {
	path := "/prices/" + url.PathEscape(baseTokenAddr)

	body, err := c.doGet(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("paraswap: get prices for %s: %w", baseTokenAddr, err)
	}

	var api apiPrices
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, fmt.Errorf("paraswap: decode prices: %w", err)
	}
	if api.Error != "" {
		return nil, fmt.Errorf("paraswap: api error: %s", api.Error)
	}

	return api.toPriceMap(), nil
}

// GetGasPrice returns the fast-tier gas price for the given asset, in gwei.
func (c *Client) GetGasPrice(ctx context.Context, assetAddr string) (float64, error) {
	path := "/networks/137/gas-prices/" + url.PathEscape(assetAddr)

	body, err := c.doGet(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("paraswap: get gas price for %s: %w", assetAddr, err)
	}

	var api apiGasPrices
	if err := json.Unmarshal(body, &api); err != nil {
		return 0, fmt.Errorf("paraswap: decode gas prices: %w", err)
	}
	if api.GasPrices.Fast <= 0 {
		return 0, fmt.Errorf("paraswap: gas price for %s: %w", assetAddr, domain.ErrMissingData)
	}

	return api.GasPrices.Fast, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := checkHTTPStatus(resp.StatusCode, body); err != nil {
		return nil, err
	}

	return body, nil
}

func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
