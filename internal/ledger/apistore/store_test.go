package apistore_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storycreative/ledger/internal/appconfig"
	"github.com/storycreative/ledger/internal/currency"
	"github.com/storycreative/ledger/internal/ledger"
	"github.com/storycreative/ledger/internal/ledger/apistore"
	"github.com/storycreative/ledger/internal/transaction"
	"github.com/storycreative/ledger/internal/user"
)

func TestStore_GetData(t *testing.T) {
	want := ledger.Data{
		Transactions: []transaction.Transaction{
			{ID: "tx-1", Type: transaction.TypeIncome, Description: "logo", Amount: 100, Quantity: 1, Date: "2026-03-15", Currency: currency.TRY, ExchangeRate: 32, InvoiceNumber: "ST-20260001"},
		},
		Users:  []user.User{{ID: "u1", Name: "Staff", Email: "staff@studio.test", Role: user.RoleAdmin}},
		Config: appconfig.Default(),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/data", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(want))
	}))
	defer srv.Close()

	store := apistore.New(srv.URL)
	store.SetToken("tok-123")

	got, err := store.GetData(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestStore_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/auth/login":
			var body struct {
				Email    string `json:"email"`
				Password string `json:"password"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "staff@studio.test", body.Email)

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"token": "tok-456",
				"user":  user.User{ID: "u1", Name: "Staff", Email: body.Email, Role: user.RoleAdmin},
			})
		case "/api/v1/data":
			// The token from login must be carried on follow-up calls.
			assert.Equal(t, "Bearer tok-456", r.Header.Get("Authorization"))
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(ledger.Data{Config: appconfig.Default()})
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	store := apistore.New(srv.URL)

	u, err := store.Login(context.Background(), "staff@studio.test", "secret")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, u.Role)
	assert.Empty(t, u.Password)

	_, err = store.GetData(context.Background())
	require.NoError(t, err)
}

func TestStore_ServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "insufficient role"})
	}))
	defer srv.Close()

	store := apistore.New(srv.URL)

	err := store.DeleteTransaction(context.Background(), "tx-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient role")
	assert.Contains(t, err.Error(), "403")
}

func TestStore_NonJSONPayload(t *testing.T) {
	// A misconfigured server answering with HTML must surface as a
	// connectivity problem, not as empty data.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><body>It works!</body></html>"))
	}))
	defer srv.Close()

	store := apistore.New(srv.URL)

	_, err := store.GetData(context.Background())

	var ce *ledger.ConnectivityError
	require.ErrorAs(t, err, &ce)
}

func TestStore_ServerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	store := apistore.New(srv.URL)

	_, err := store.GetData(context.Background())

	var ce *ledger.ConnectivityError
	require.ErrorAs(t, err, &ce)
}

func TestStore_Strategy(t *testing.T) {
	assert.Equal(t, ledger.StrategyRefetch, apistore.New("http://localhost").Strategy())
}
