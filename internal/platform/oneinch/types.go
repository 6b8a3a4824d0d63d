package oneinch

import (
	"fmt"
	"strconv"

	"github.com/0xfern/dexarb/internal/domain"
)

// apiQuote is the wire shape of the /quote response. Token amounts arrive as
// decimal strings in the tokens' smallest units.
type apiQuote struct {
	FromTokenAmount string `json:"fromTokenAmount"`
	ToTokenAmount   string `json:"toTokenAmount"`
}

// price derives toAmount/fromAmount as a float price.
func (q apiQuote) price() (float64, error) {
	from, err := strconv.ParseFloat(q.FromTokenAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("parse fromTokenAmount %q: %w", q.FromTokenAmount, err)
	}
	to, err := strconv.ParseFloat(q.ToTokenAmount, 64)
	if err != nil {
		return 0, fmt.Errorf("parse toTokenAmount %q: %w", q.ToTokenAmount, err)
	}
	if from <= 0 {
		return 0, fmt.Errorf("fromTokenAmount %q: %w", q.FromTokenAmount, domain.ErrInvalidParameter)
	}
	return to / from, nil
}

// apiGasPrice is the wire shape of the /gasPrice response, in wei.
type apiGasPrice struct {
	Fast     float64 `json:"fast"`
	Standard float64 `json:"standard"`
	Instant  float64 `json:"instant"`
}
