package transaction

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/http/httperr"
	"github.com/mtrindade/carteira/internal/ledger"
)

type Handler struct {
	ledgerSvc    *ledger.Service
	corporateSvc *corporate.Service
}

func NewHandler(ledgerSvc *ledger.Service, corporateSvc *corporate.Service) *Handler {
	return &Handler{
		ledgerSvc:    ledgerSvc,
		corporateSvc: corporateSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

type createRequest struct {
	PortfolioID uuid.UUID         `json:"portfolio_id"`
	Instrument  string            `json:"instrument"`
	Kind        ledger.Kind       `json:"kind"`
	AssetClass  ledger.AssetClass `json:"asset_class"`
	Price       float64           `json:"price"`
	Quantity    float64           `json:"quantity"`
	OccurredOn  string            `json:"occurred_on"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	occurredOn, err := time.Parse(time.DateOnly, req.OccurredOn)
	if err != nil {
		http.Error(w, "occurred_on must be a YYYY-MM-DD date", http.StatusBadRequest)
		return
	}

	tx, err := h.ledgerSvc.Append(r.Context(), ledger.CreateParams{
		PortfolioID: req.PortfolioID,
		Instrument:  req.Instrument,
		Kind:        req.Kind,
		AssetClass:  req.AssetClass,
		Price:       req.Price,
		Quantity:    req.Quantity,
		OccurredOn:  occurredOn,
	})
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioFromQuery(w, r)
	if !ok {
		return
	}

	filter := ledger.ListFilter{PortfolioID: portfolioID}

	if s := r.URL.Query().Get("instrument"); s != "" {
		filter.Instrument = &s
	}

	if s := r.URL.Query().Get("kind"); s != "" {
		kind := ledger.Kind(s)
		filter.Kind = &kind
	}

	if r.URL.Query().Get("active") == "true" {
		filter.ActiveOnly = true
	}

	txs, err := h.ledgerSvc.List(r.Context(), filter)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponseList(txs)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioFromQuery(w, r)
	if !ok {
		return
	}

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	tx, err := h.ledgerSvc.Get(r.Context(), portfolioID, id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type updateRequest struct {
	Instrument *string      `json:"instrument,omitempty"`
	Kind       *ledger.Kind `json:"kind,omitempty"`
	Price      *float64     `json:"price,omitempty"`
	Quantity   *float64     `json:"quantity,omitempty"`
	OccurredOn *string      `json:"occurred_on,omitempty"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioFromQuery(w, r)
	if !ok {
		return
	}

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	params := ledger.UpdateParams{
		Instrument: req.Instrument,
		Kind:       req.Kind,
		Price:      req.Price,
		Quantity:   req.Quantity,
	}

	if req.OccurredOn != nil {
		occurredOn, err := time.Parse(time.DateOnly, *req.OccurredOn)
		if err != nil {
			http.Error(w, "occurred_on must be a YYYY-MM-DD date", http.StatusBadRequest)
			return
		}

		params.OccurredOn = &occurredOn
	}

	tx, err := h.ledgerSvc.Update(r.Context(), portfolioID, id, params)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(toResponse(tx)); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// delete removes a trade row, or, when the target is a corporate-action row,
// reverses the correction so the collapsed history comes back.
func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	portfolioID, ok := portfolioFromQuery(w, r)
	if !ok {
		return
	}

	id, ok := idFromPath(w, r)
	if !ok {
		return
	}

	tx, err := h.ledgerSvc.Get(r.Context(), portfolioID, id)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	if tx.Kind.IsCorporate() {
		err = h.corporateSvc.Reverse(r.Context(), portfolioID, id)
	} else {
		err = h.ledgerSvc.Delete(r.Context(), portfolioID, id)
	}

	if err != nil {
		httperr.Write(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func idFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}

	return id, true
}

func portfolioFromQuery(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.URL.Query().Get("portfolio_id"))
	if err != nil {
		http.Error(w, "portfolio_id query parameter is required", http.StatusBadRequest)
		return uuid.Nil, false
	}

	return id, true
}
