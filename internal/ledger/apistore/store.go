// Package apistore is the request/response backend: every mutation is a
// remote call against the ledger API, and after a successful write callers
// are expected to refetch (StrategyRefetch) rather than trust local state.
package apistore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

type Store struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the API server at baseURL (scheme and host, no
// trailing slash required).
func New(baseURL string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// SetToken attaches a bearer token to all subsequent requests.
func (s *Store) SetToken(token string) { s.token = token }

// Strategy favors correctness over latency: a full refetch after every
// write avoids drift against server-assigned state.
func (s *Store) Strategy() ledger.Strategy { return ledger.StrategyRefetch }

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

// Login authenticates against the server and keeps the returned token for
// subsequent calls.
func (s *Store) Login(ctx context.Context, email, password string) (user.User, error) {
	var resp loginResponse
	if err := s.do(ctx, http.MethodPost, "/api/v1/auth/login", loginRequest{Email: email, Password: password}, &resp); err != nil {
		return user.User{}, err
	}

	s.token = resp.Token

	return resp.User, nil
}

// Logout invalidates the server-side session and drops the token.
func (s *Store) Logout(ctx context.Context) error {
	if err := s.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil); err != nil {
		return err
	}

	s.token = ""

	return nil
}

func (s *Store) GetData(ctx context.Context) (ledger.Data, error) {
	var d ledger.Data
	if err := s.do(ctx, http.MethodGet, "/api/v1/data", nil, &d); err != nil {
		return ledger.Data{}, err
	}

	return d, nil
}

func (s *Store) SaveTransaction(ctx context.Context, tx transaction.Transaction) error {
	return s.do(ctx, http.MethodPost, "/api/v1/transactions", tx, nil)
}

func (s *Store) DeleteTransaction(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/v1/transactions/"+url.PathEscape(id), nil, nil)
}

func (s *Store) TogglePaid(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodPost, "/api/v1/transactions/"+url.PathEscape(id)+"/paid", nil, nil)
}

func (s *Store) UpdateRates(ctx context.Context, rates currency.Rates) error {
	return s.do(ctx, http.MethodPut, "/api/v1/rates", rates, nil)
}

func (s *Store) AddUser(ctx context.Context, u user.User) error {
	return s.do(ctx, http.MethodPost, "/api/v1/users", u, nil)
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.do(ctx, http.MethodDelete, "/api/v1/users/"+url.PathEscape(id), nil, nil)
}

func (s *Store) UpdateConfig(ctx context.Context, cfg appconfig.AppConfig) error {
	return s.do(ctx, http.MethodPut, "/api/v1/config", cfg, nil)
}

type errorResponse struct {
	Error string `json:"error"`
}

// do issues one JSON request. Transport failures and unparseable payloads
// (a misconfigured server answering with HTML, say) both surface as
// ConnectivityError, never as silently empty data.
func (s *Store) do(ctx context.Context, method, path string, body, out any) error {
	op := fmt.Sprintf("%s %s", method, path)

	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encoding request: %w", op, err)
		}

		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: creating request: %w", op, err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return &ledger.ConnectivityError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var errResp errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
			return fmt.Errorf("%s: server: %s (status %d)", op, errResp.Error, resp.StatusCode)
		}

		return fmt.Errorf("%s: unexpected status %d", op, resp.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ledger.ConnectivityError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}
