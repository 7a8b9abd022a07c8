package export

import (
	"context"
	"net/http"

	"github.com/storycreative/ledger/internal/export"
	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/ledger"
)

// Store is the read side of the backend contract.
type Store interface {
	GetData(ctx context.Context) (ledger.Data, error)
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Export streams the transaction set as a BOM-prefixed CSV attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.GetData(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load data")
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)

	// Headers are already out; a write failure here can only be logged by
	// the outer middleware.
	_ = export.Write(w, d.Transactions)
}
