package ledger

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind represents the kind of ledger entry.
type Kind string

const (
	KindBuy          Kind = "BUY"
	KindSell         Kind = "SELL"
	KindSplit        Kind = "SPLIT"
	KindReverseSplit Kind = "REVERSE_SPLIT"
)

// IsCorporate reports whether the kind marks a corporate-action row.
func (k Kind) IsCorporate() bool {
	return k == KindSplit || k == KindReverseSplit
}

// IsAcquisition reports whether the kind adds to the held quantity during
// replay. Corporate-action rows carry the collapsed prior position, so they
// count as acquisitions.
func (k Kind) IsAcquisition() bool {
	return k == KindBuy || k.IsCorporate()
}

func (k Kind) valid() bool {
	switch k {
	case KindBuy, KindSell, KindSplit, KindReverseSplit:
		return true
	}

	return false
}

// AssetClass distinguishes the instrument classes the ledger tracks.
type AssetClass string

const (
	ClassEquity AssetClass = "equity"
	ClassFund   AssetClass = "fund"
)

func (c AssetClass) valid() bool {
	return c == ClassEquity || c == ClassFund
}

// Transaction is one record in the append-only ledger.
//
// Only rows with Active=true participate in cost-basis and holdings
// computation. A row is deactivated exclusively by a corporate action, which
// records its own id in CorrectionID so the exact set can be restored later.
type Transaction struct {
	ID           int64
	PortfolioID  uuid.UUID
	Instrument   string
	Kind         Kind
	AssetClass   AssetClass
	Price        float64
	Quantity     float64
	OccurredOn   time.Time // date granularity
	Active       bool
	CorrectionID *int64
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}

// marketSuffix is the B3 suffix appended to bare tickers.
const marketSuffix = ".SA"

// NormalizeInstrument converts a ticker to its canonical form:
// uppercase with the market suffix (PETR4 -> PETR4.SA).
func NormalizeInstrument(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return ""
	}

	if !strings.HasSuffix(t, marketSuffix) {
		t += marketSuffix
	}

	return t
}
