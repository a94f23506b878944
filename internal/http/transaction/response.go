package transaction

import (
	"time"

	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/ledger"
)

type transactionResponse struct {
	ID           int64             `json:"id"`
	PortfolioID  uuid.UUID         `json:"portfolio_id"`
	Instrument   string            `json:"instrument"`
	Kind         ledger.Kind       `json:"kind"`
	AssetClass   ledger.AssetClass `json:"asset_class"`
	Price        float64           `json:"price"`
	Quantity     float64           `json:"quantity"`
	OccurredOn   string            `json:"occurred_on"`
	Active       bool              `json:"active"`
	CorrectionID *int64            `json:"correction_id,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    *time.Time        `json:"updated_at,omitempty"`
}

func toResponse(tx *ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		PortfolioID:  tx.PortfolioID,
		Instrument:   tx.Instrument,
		Kind:         tx.Kind,
		AssetClass:   tx.AssetClass,
		Price:        tx.Price,
		Quantity:     tx.Quantity,
		OccurredOn:   tx.OccurredOn.Format(time.DateOnly),
		Active:       tx.Active,
		CorrectionID: tx.CorrectionID,
		CreatedAt:    tx.CreatedAt,
		UpdatedAt:    tx.UpdatedAt,
	}
}

func toResponseList(txs []*ledger.Transaction) []transactionResponse {
	resp := make([]transactionResponse, len(txs))
	for i, tx := range txs {
		resp[i] = toResponse(tx)
	}

	return resp
}
