// Package admin holds the rate, user-registry, and config endpoints, gated
// to ADMIN and SUPER_ADMIN roles by the router.
package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/user"
)

// Store is the admin slice of the backend contract.
type Store interface {
	UpdateRates(ctx context.Context, rates currency.Rates) error
	AddUser(ctx context.Context, u user.User) error
	DeleteUser(ctx context.Context, id string) error
	UpdateConfig(ctx context.Context, cfg appconfig.AppConfig) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// UpdateRates replaces the whole rate mapping. A partial or invalid table
// is rejected before anything is written.
func (h *Handler) UpdateRates(w http.ResponseWriter, r *http.Request) {
	var rates currency.Rates
	if err := json.NewDecoder(r.Body).Decode(&rates); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := rates.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateRates(r.Context(), rates); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to update rates")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AddUser registers an account. The id is assigned here when the client
// did not provide one.
func (h *Handler) AddUser(w http.ResponseWriter, r *http.Request) {
	var u user.User
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case strings.TrimSpace(u.Name) == "":
		respond.Error(w, http.StatusBadRequest, "name is required")
		return
	case strings.TrimSpace(u.Email) == "":
		respond.Error(w, http.StatusBadRequest, "email is required")
		return
	case u.Password == "":
		respond.Error(w, http.StatusBadRequest, "password is required")
		return
	case !u.Role.Valid():
		respond.Error(w, http.StatusBadRequest, "unknown role")
		return
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	if err := h.store.AddUser(r.Context(), u); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to add user")
		return
	}

	u.Password = ""

	respond.JSON(w, http.StatusCreated, u)
}

// DeleteUser removes an account by id. The bootstrap super-admin is not in
// the registry, so it cannot be reached here.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respond.Error(w, http.StatusBadRequest, "missing id")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to delete user")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateConfig replaces the singleton config document, rates included.
func (h *Handler) UpdateConfig(w http.ResponseWriter, r *http.Request) {
	var cfg appconfig.AppConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := cfg.Rates.Validate(); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.UpdateConfig(r.Context(), cfg); err != nil {
		respond.Error(w, http.StatusInternalServerError, "failed to update config")
		return
	}

	respond.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
