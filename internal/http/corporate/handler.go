package corporate

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/http/httperr"
	"github.com/mtrindade/carteira/internal/ledger"
)

type Handler struct {
	svc *corporate.Service
}

func NewHandler(svc *corporate.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/split", h.split)
	r.Post("/reverse-split", h.reverseSplit)
}

type applyRequest struct {
	PortfolioID   uuid.UUID         `json:"portfolio_id"`
	Instrument    string            `json:"instrument"`
	AssetClass    ledger.AssetClass `json:"asset_class"`
	EffectiveDate string            `json:"effective_date"`
	RatioBefore   int               `json:"ratio_before"`
	RatioAfter    int               `json:"ratio_after"`
}

type syntheticResponse struct {
	ID          int64             `json:"id"`
	PortfolioID uuid.UUID         `json:"portfolio_id"`
	Instrument  string            `json:"instrument"`
	Kind        ledger.Kind       `json:"kind"`
	AssetClass  ledger.AssetClass `json:"asset_class"`
	Price       float64           `json:"price"`
	Quantity    float64           `json:"quantity"`
	OccurredOn  string            `json:"occurred_on"`
}

func (h *Handler) split(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, ledger.KindSplit)
}

func (h *Handler) reverseSplit(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, ledger.KindReverseSplit)
}

func (h *Handler) apply(w http.ResponseWriter, r *http.Request, kind ledger.Kind) {
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	effectiveDate, err := time.Parse(time.DateOnly, req.EffectiveDate)
	if err != nil {
		http.Error(w, "effective_date must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	synthetic, err := h.svc.Apply(r.Context(), corporate.ApplyParams{
		PortfolioID:   req.PortfolioID,
		Instrument:    req.Instrument,
		Kind:          kind,
		AssetClass:    req.AssetClass,
		EffectiveDate: effectiveDate,
		RatioBefore:   req.RatioBefore,
		RatioAfter:    req.RatioAfter,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := syntheticResponse{
		ID:          synthetic.ID,
		PortfolioID: synthetic.PortfolioID,
		Instrument:  synthetic.Instrument,
		Kind:        synthetic.Kind,
		AssetClass:  synthetic.AssetClass,
		Price:       synthetic.Price,
		Quantity:    synthetic.Quantity,
		OccurredOn:  synthetic.OccurredOn.Format(time.DateOnly),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
