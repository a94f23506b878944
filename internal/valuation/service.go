package valuation

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/ledger"
	"github.com/mtrindade/carteira/internal/quote"
)

// Ledger is the read-side of the transaction log the valuer consumes.
//
//go:generate mockgen -source=service.go -destination=ledger_mock.go -package=valuation
type Ledger interface {
	ActiveInstruments(ctx context.Context, portfolioID uuid.UUID) ([]string, error)
	Position(ctx context.Context, portfolioID uuid.UUID, instrument string) (ledger.Position, error)
}

type Service struct {
	ledger Ledger
	quotes quote.Client
}

func NewService(l Ledger, quotes quote.Client) *Service {
	return &Service{ledger: l, quotes: quotes}
}

// Holding is the externally visible position snapshot for one instrument.
// The pointer fields are nil when the quote collaborator is unavailable for
// the instrument; the position itself is always present.
type Holding struct {
	Instrument  string
	Quantity    float64
	AverageCost float64

	CurrentPrice *float64
	MarketValue  *float64
	ReturnPct    *float64
	WeightPct    *float64
}

// Snapshot values every held instrument of the portfolio. A quote failure
// downgrades that instrument's valuation fields to unavailable instead of
// failing the batch. Weights are computed in a second pass, once every
// market value is known.
func (s *Service) Snapshot(ctx context.Context, portfolioID uuid.UUID) ([]Holding, error) {
	instruments, err := s.ledger.ActiveInstruments(ctx, portfolioID)
	if err != nil {
		return nil, err
	}

	holdings := make([]Holding, 0, len(instruments))

	var totalValue float64

	for _, instrument := range instruments {
		pos, err := s.ledger.Position(ctx, portfolioID, instrument)
		if err != nil {
			return nil, err
		}

		if !pos.Held() {
			continue
		}

		h := Holding{
			Instrument:  instrument,
			Quantity:    pos.Quantity,
			AverageCost: pos.AvgCost,
		}

		price, err := s.quotes.GetPrice(ctx, instrument)
		if err != nil {
			slog.Warn("quote unavailable", "instrument", instrument, "error", err)
			holdings = append(holdings, h)

			continue
		}

		value := pos.Quantity * price
		h.CurrentPrice = &price
		h.MarketValue = &value

		if pos.AvgCost > 0 {
			ret := (price - pos.AvgCost) / pos.AvgCost * 100
			h.ReturnPct = &ret
		}

		totalValue += value

		holdings = append(holdings, h)
	}

	if totalValue > 0 {
		for i := range holdings {
			if holdings[i].MarketValue == nil {
				continue
			}

			weight := *holdings[i].MarketValue / totalValue * 100
			holdings[i].WeightPct = &weight
		}
	}

	return holdings, nil
}
