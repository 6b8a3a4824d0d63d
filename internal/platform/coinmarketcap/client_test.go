package coinmarketcap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xfern/dexarb/internal/domain"
)

func TestGetQuotes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-CMC_PRO_API_KEY"))
		assert.Equal(t, "ETH,MATIC", r.URL.Query().Get("symbol"))
		assert.Equal(t, "USD", r.URL.Query().Get("convert"))
		w.Write([]byte(`{
			"status": {"error_code": 0},
			"data": {
				"ETH": {"quote": {"USD": {"price": 1825.4}}},
				"MATIC": {"quote": {"USD": {"price": 0}}}
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	quotes, err := c.GetQuotes(context.Background(), []string{"ETH", "MATIC"})
	require.NoError(t, err)

	assert.InDelta(t, 1825.4, quotes["ETH"], 1e-9)
	assert.NotContains(t, quotes, "MATIC", "non-positive prices are omitted")
}

func TestGetQuotes_EmptySymbols(t *testing.T) {
	c := NewClient("http://unused", "test-key")
	quotes, err := c.GetQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
}

func TestGetQuotes_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": {"error_code": 1001, "error_message": "API key invalid"}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "bad-key")
	_, err := c.GetQuotes(context.Background(), []string{"ETH"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key invalid")
}

func TestGetQuotes_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-key")
	_, err := c.GetQuotes(context.Background(), []string{"ETH"})
	require.ErrorIs(t, err, domain.ErrRateLimited)
}
