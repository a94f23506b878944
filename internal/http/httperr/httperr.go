// Package httperr maps domain errors onto HTTP status codes so every
// handler reports them the same way.
package httperr

import (
	"errors"
	"net/http"

	"github.com/mtrindade/carteira/internal/ledger"
)

// Write reports err with the status its domain sentinel maps to. Unknown
// errors become an opaque 500 so internals never leak to clients.
func Write(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, ledger.ErrInvalidRatio):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ledger.ErrConsistency):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ledger.ErrNoTransactions):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
