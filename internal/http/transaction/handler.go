package transaction

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/transaction"
)

// Store is the transaction slice of the backend contract.
type Store interface {
	SaveTransaction(ctx context.Context, tx transaction.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	TogglePaid(ctx context.Context, id string) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Save upserts a full transaction record by id. The client assigns ids,
// invoice numbers, and rate snapshots; the server only checks shape.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var tx transaction.Transaction
	if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validate(tx); msg != "" {
		respond.Error(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.SaveTransaction(r.Context(), tx); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to save transaction")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Delete removes by id. Deleting an absent id still succeeds.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.Error(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := h.store.DeleteTransaction(r.Context(), id); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to delete transaction")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TogglePaid flips only the paid flag.
func (h *Handler) TogglePaid(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.Error(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := h.store.TogglePaid(r.Context(), id); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to toggle paid status")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

func validate(tx transaction.Transaction) string {
	switch {
	case strings.TrimSpace(tx.ID) == "":
		return "id is required"
	case !tx.Type.Valid():
		return "unknown transaction type"
	case strings.TrimSpace(tx.Description) == "":
		return "description is required"
	case math.IsNaN(tx.Amount) || math.IsInf(tx.Amount, 0) || tx.Amount < 0:
		return "amount must be a non-negative number"
	case tx.Quantity <= 0:
		return "quantity must be a positive integer"
	case !tx.Currency.Valid():
		return "unknown currency"
	}

	return ""
}
