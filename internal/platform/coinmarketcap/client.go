// Package coinmarketcap is the REST client for the CoinMarketCap Pro API,
// used as one of the two independent market-reference price sources.
package coinmarketcap

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// Client is the CoinMarketCap REST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new CoinMarketCap client.
//
// baseURL is the API root, e.g. "https://pro-api.coinmarketcap.com/v1";
// apiKey is the X-CMC_PRO_API_KEY credential.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// apiQuotes is the wire shape of the quotes/latest response.
type apiQuotes struct {
	Status struct {
		ErrorCode    int    `json:"error_code"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
	Data map[string]struct {
		Quote map[string]struct {
			Price float64 `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// GetQuotes returns the latest USD price for each of the given symbols.
// Symbols unknown to CoinMarketCap are omitted from the result.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	params := url.Values{}
	params.Set("symbol", strings.Join(symbols, ","))
	params.Set("convert", "USD")

	path := "/cryptocurrency/quotes/latest?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("coinmarketcap: create request: %w", err)
	}
	req.Header.Set("Accepts", "application/json")
	req.Header.Set("X-CMC_PRO_API_KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coinmarketcap: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("coinmarketcap: read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("coinmarketcap: %w: %s", domain.ErrRateLimited, body)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("coinmarketcap: HTTP %d: %s", resp.StatusCode, body)
	}

	var api apiQuotes
	if err := json.Unmarshal(body, &api); err != nil {
		return nil, fmt.Errorf("coinmarketcap: decode quotes: %w", err)
	}
	if api.Status.ErrorCode != 0 {
		return nil, fmt.Errorf("coinmarketcap: api error %d: %s", api.Status.ErrorCode, api.Status.ErrorMessage)
	}

	out := make(map[string]float64, len(api.Data))
	for sym, entry := range api.Data {
		usd, ok := entry.Quote["USD"]
		if !ok || usd.Price <= 0 {
			continue
		}
		out[strings.ToUpper(sym)] = usd.Price
	}
	return out, nil
}
