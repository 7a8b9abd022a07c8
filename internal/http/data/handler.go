package data

import (
	"context"
	"net/http"

	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
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

// Get returns the full state in one payload: transactions (newest first),
// users, and the config document.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.GetData(r.Context())
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to load data")
		return
	}

	// Empty collections render as [] rather than null.
	if d.Transactions == nil {
		d.Transactions = []transaction.Transaction{}
	}

	if d.Users == nil {
		d.Users = []user.User{}
	}

	respond.JSON(w, http.StatusOK, d)
}
