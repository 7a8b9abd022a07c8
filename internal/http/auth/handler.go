package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/storycreative/ledger/internal/auth"
	"github.com/storycreative/ledger/internal/http/middleware"
	"github.com/storycreative/ledger/internal/http/respond"
	"github.com/storycreative/ledger/internal/user"
)

type Handler struct {
	svc *auth.Service
}

func NewHandler(svc *auth.Service) *Handler {
	return &Handler{svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Login exchanges credentials for a session token. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}

		respond.Error(w, http.StatusInternalServerError, "login failed")

		return
	}

	respond.JSON(w, http.StatusOK, loginResponse{Token: token, User: u})
}

// Logout invalidates the current session token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := middleware.BearerToken(r); token != "" {
		h.svc.Logout(token)
	}

	w.WriteHeader(http.StatusNoContent)
}
