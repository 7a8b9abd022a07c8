package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	authsvc "github.com/storycreative/ledger/internal/auth"
	adminHandler "github.com/storycreative/ledger/internal/http/admin"
	authHandler "github.com/storycreative/ledger/internal/http/auth"
	"github.com/storycreative/ledger/internal/http/data"
	"github.com/storycreative/ledger/internal/http/export"
	"github.com/storycreative/ledger/internal/http/importcsv"
	"github.com/storycreative/ledger/internal/http/middleware"
	"github.com/storycreative/ledger/internal/http/transaction"
	"github.com/storycreative/ledger/internal/user"
)

func New(
	auth *authsvc.Service,
	authV1 *authHandler.Handler,
	dataV1 *data.Handler,
	transactionsV1 *transaction.Handler,
	adminV1 *adminHandler.Handler,
	exportV1 *export.Handler,
	importV1 *importcsv.Handler,
	loginPerMinute int,
) http.Handler {
	router := chi.NewRouter()

	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	router.Route("/api/v1", func(r chi.Router) {
		r.With(middleware.LoginLimiter(loginPerMinute)).Post("/auth/login", authV1.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(auth))

			r.Post("/auth/logout", authV1.Logout)
			r.Get("/data", dataV1.Get)
			r.Get("/export/csv", exportV1.Export)

			r.With(middleware.RequireOperation(user.OpSaveTransaction)).
				Post("/transactions", transactionsV1.Save)
			r.With(middleware.RequireOperation(user.OpDeleteTransaction)).
				Delete("/transactions/{id}", transactionsV1.Delete)
			r.With(middleware.RequireOperation(user.OpTogglePaid)).
				Post("/transactions/{id}/paid", transactionsV1.TogglePaid)

			r.With(middleware.RequireOperation(user.OpSaveTransaction)).
				Post("/import/csv", importV1.Import)

			r.With(middleware.RequireOperation(user.OpUpdateRates)).
				Put("/rates", adminV1.UpdateRates)
			r.With(middleware.RequireOperation(user.OpManageUsers)).
				Post("/users", adminV1.AddUser)
			r.With(middleware.RequireOperation(user.OpManageUsers)).
				Delete("/users/{id}", adminV1.DeleteUser)
			r.With(middleware.RequireOperation(user.OpUpdateConfig)).
				Put("/config", adminV1.UpdateConfig)
		})
	})

	return router
}
