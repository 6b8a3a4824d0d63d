package arbitrage

import (
	"fmt"
	"math"
	"time"

	"github.com/0xfern/dexarb/internal/domain"
)

// yearHours is the hour count used to convert a holding duration into a
// fractional year for compounding.
const yearHours = 365 * 24

// EstimateYield computes the compound yield earned by lending `principal` at
// `annualRate` for `duration`:
//
//	yield = principal * ((1+rate)^(duration/1yr) - 1)
//
// It is pure. Inputs must satisfy principal >= 0, annualRate >= 0 and
// duration > 0; anything else is a caller error.
func EstimateYield(principal, annualRate float64, duration time.Duration) (float64, error) {
	if principal < 0 {
		return 0, fmt.Errorf("%w: principal %f must be non-negative", domain.ErrInvalidParameter, principal)
	}
	if annualRate < 0 {
		return 0, fmt.Errorf("%w: annual rate %f must be non-negative", domain.ErrInvalidParameter, annualRate)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("%w: duration %s must be positive", domain.ErrInvalidParameter, duration)
	}
	years := duration.Hours() / yearHours
	return principal * (math.Pow(1+annualRate, years) - 1), nil
}
