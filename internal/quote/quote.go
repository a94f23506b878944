package quote

import (
	"context"
	"errors"
)

// ErrUnavailable is returned when the collaborator cannot produce a price for
// the instrument: unknown ticker, upstream failure, or timeout. Callers
// downgrade the instrument's valuation instead of failing.
var ErrUnavailable = errors.New("quote unavailable")

// Client retrieves the current market price of an instrument in its
// canonical (market-suffixed) form.
type Client interface {
	GetPrice(ctx context.Context, instrument string) (float64, error)
}
