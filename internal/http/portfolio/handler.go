package portfolio

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/http/httperr"
	"github.com/mtrindade/carteira/internal/valuation"
)

type Handler struct {
	svc *valuation.Service
}

func NewHandler(svc *valuation.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.snapshot)
}

type holdingResponse struct {
	Instrument  string  `json:"instrument"`
	Quantity    float64 `json:"quantity"`
	AverageCost float64 `json:"average_cost"`

	CurrentPrice *float64 `json:"current_price,omitempty"`
	MarketValue  *float64 `json:"market_value,omitempty"`
	ReturnPct    *float64 `json:"return_pct,omitempty"`
	WeightPct    *float64 `json:"weight_pct,omitempty"`
}

type snapshotResponse struct {
	Holdings []holdingResponse `json:"holdings"`
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	portfolioID, err := uuid.Parse(r.URL.Query().Get("portfolio_id"))
	if err != nil {
		http.Error(w, "portfolio_id query parameter is required", http.StatusBadRequest)
		return
	}

	holdings, err := h.svc.Snapshot(r.Context(), portfolioID)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := snapshotResponse{Holdings: make([]holdingResponse, len(holdings))}
	for i, holding := range holdings {
		resp.Holdings[i] = holdingResponse{
			Instrument:   holding.Instrument,
			Quantity:     holding.Quantity,
			AverageCost:  holding.AverageCost,
			CurrentPrice: holding.CurrentPrice,
			MarketValue:  holding.MarketValue,
			ReturnPct:    holding.ReturnPct,
			WeightPct:    holding.WeightPct,
		}
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
