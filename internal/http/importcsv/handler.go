package importcsv

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mtrindade/carteira/internal/http/httperr"
	"github.com/mtrindade/carteira/internal/importer"
	"github.com/mtrindade/carteira/internal/ledger"
)

type Handler struct {
	importSvc *importer.Service
	ledgerSvc *ledger.Service
}

func NewHandler(importSvc *importer.Service, ledgerSvc *ledger.Service) *Handler {
	return &Handler{
		importSvc: importSvc,
		ledgerSvc: ledgerSvc,
	}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/", h.importCSV)
}

type importedEntry struct {
	ID         int64             `json:"id"`
	Instrument string            `json:"instrument"`
	Kind       ledger.Kind       `json:"kind"`
	AssetClass ledger.AssetClass `json:"asset_class"`
	Price      float64           `json:"price"`
	Quantity   float64           `json:"quantity"`
	OccurredOn string            `json:"occurred_on"`
}

type importSuccessResponse struct {
	Imported     int             `json:"imported"`
	Transactions []importedEntry `json:"transactions"`
}

func (h *Handler) importCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "failed to parse form: "+err.Error(), http.StatusBadRequest)
		return
	}

	broker := importer.Broker(r.FormValue("broker"))
	if broker == "" {
		http.Error(w, "broker field is required", http.StatusBadRequest)
		return
	}

	portfolioID, err := uuid.Parse(r.FormValue("portfolio_id"))
	if err != nil {
		http.Error(w, "portfolio_id field is required", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	params, err := h.importSvc.Import(broker, file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	txs, err := h.ledgerSvc.AppendBatch(r.Context(), portfolioID, params)
	if err != nil {
		httperr.Write(w, err)
		return
	}

	resp := importSuccessResponse{
		Imported:     len(txs),
		Transactions: make([]importedEntry, len(txs)),
	}
	for i, tx := range txs {
		resp.Transactions[i] = importedEntry{
			ID:         tx.ID,
			Instrument: tx.Instrument,
			Kind:       tx.Kind,
			AssetClass: tx.AssetClass,
			Price:      tx.Price,
			Quantity:   tx.Quantity,
			OccurredOn: tx.OccurredOn.Format(time.DateOnly),
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}
