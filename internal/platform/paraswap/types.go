package paraswap

import (
	"encoding/json"
	"strconv"
)

// flexFloat decodes a float that arrives as either a JSON number or a
// numeric string, which the Paraswap API mixes freely across pairs.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// apiPrices is the wire shape of the /prices/{token} response: a JSON object
// keyed by quote asset symbol, plus an optional "error" entry.
type apiPrices struct {
	Error  string
	Quotes map[string]apiQuote
}

// apiQuote is one quote entry in the prices response.
type apiQuote struct {
	Price flexFloat `json:"price"`
}

// UnmarshalJSON separates the "error" entry from the per-symbol quotes.
func (p *apiPrices) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.Quotes = make(map[string]apiQuote, len(raw))
	for sym, msg := range raw {
		if sym == "error" {
			var s string
			if err := json.Unmarshal(msg, &s); err == nil {
				p.Error = s
			}
			continue
		}
		var q apiQuote
		if err := json.Unmarshal(msg, &q); err != nil {
			continue // skip malformed entries, keep the rest
		}
		p.Quotes[sym] = q
	}
	return nil
}

// toPriceMap flattens the decoded quotes into symbol -> price, dropping
// non-positive entries.
func (p *apiPrices) toPriceMap() map[string]float64 {
	out := make(map[string]float64, len(p.Quotes))
	for sym, q := range p.Quotes {
		if q.Price > 0 {
			out[sym] = float64(q.Price)
		}
	}
	return out
}

// apiGasPrices is the wire shape of the gas-prices response.
type apiGasPrices struct {
	GasPrices struct {
		SafeLow float64 `json:"safeLow"`
		Average float64 `json:"average"`
		Fast    float64 `json:"fast"`
	} `json:"gasPrices"`
}
