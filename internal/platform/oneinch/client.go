// Package oneinch is the REST client for the 1inch aggregator API, which
// supplies per-pair swap quotes and gas prices.
package oneinch

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

// oneUnitWei is the probe amount for quote requests: one token in 18-decimal
// wei, matching how the aggregator normalizes quotes.
const oneUnitWei = "1000000000000000000"

// Client is the 1inch REST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new 1inch client.
//
// baseURL is the chain-scoped API root, e.g.
// "https://api.1inch.exchange/v3.0/137"; apiKey may be empty for the public
// tier.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetQuote returns the price of one fromToken denominated in toToken, derived
// from a one-unit quote probe.
func (c *Client) GetQuote(ctx context.Context, fromTokenAddr, toTokenAddr string) (float64, error) {
	params := url.Values{}
	params.Set("fromTokenAddress", fromTokenAddr)
	params.Set("toTokenAddress", toTokenAddr)
	params.Set("amount", oneUnitWei)

	body, err := c.doGet(ctx, "/quote?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("oneinch: quote %s->%s: %w", fromTokenAddr, toTokenAddr, err)
	}

	var api apiQuote
	if err := json.Unmarshal(body, &api); err != nil {
		return 0, fmt.Errorf("oneinch: decode quote: %w", err)
	}

	price, err := api.price()
	if err != nil {
		return 0, fmt.Errorf("oneinch: quote %s->%s: %w", fromTokenAddr, toTokenAddr, err)
	}
	return price, nil
}

// GetGasPrice returns the fast-tier gas price in gwei.
func (c *Client) GetGasPrice(ctx context.Context, tokenAddr string) (float64, error) {
	params := url.Values{}
	params.Set("tokenAddress", tokenAddr)

	body, err := c.doGet(ctx, "/gasPrice?"+params.Encode())
	if err != nil {
		return 0, fmt.Errorf("oneinch: get gas price: %w", err)
	}

	var api apiGasPrice
	if err := json.Unmarshal(body, &api); err != nil {
		return 0, fmt.Errorf("oneinch: decode gas price: %w", err)
	}
	if api.Fast <= 0 {
		return 0, fmt.Errorf("oneinch: gas price: %w", domain.ErrMissingData)
	}

	// The API reports wei; convert to gwei.
	return api.Fast / 1e9, nil
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
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
