package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/storycreative/ledger/internal/auth"
	"github.com/storycreative/ledger/internal/config"
	"github.com/storycreative/ledger/internal/database"
	ledgerHttp "github.com/storycreative/ledger/internal/http"
	adminHandler "github.com/storycreative/ledger/internal/http/admin"
	authHandler "github.com/storycreative/ledger/internal/http/auth"
	dataHandler "github.com/storycreative/ledger/internal/http/data"
	exportHandler "github.com/storycreative/ledger/internal/http/export"
	importHandler "github.com/storycreative/ledger/internal/http/importcsv"
	txHandler "github.com/storycreative/ledger/internal/http/transaction"
	"github.com/storycreative/ledger/internal/postgres"
	"github.com/storycreative/ledger/internal/user"
)

func main() {
	// Absent .env just means real environment variables are in use.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	initLogger(cfg.App.LogLevel)

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(db, cfg.Migrations.Path); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	store := postgres.New(db)

	bootstrap := user.User{
		ID:       "super_admin_01",
		Name:     cfg.Bootstrap.Name,
		Email:    cfg.Bootstrap.Email,
		Password: cfg.Bootstrap.Password,
		Role:     user.RoleSuperAdmin,
	}

	authService := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, bootstrap, store)

	router := ledgerHttp.New(
		authService,
		authHandler.NewHandler(authService),
		dataHandler.NewHandler(store),
		txHandler.NewHandler(store),
		adminHandler.NewHandler(store),
		exportHandler.NewHandler(store),
		importHandler.NewHandler(store, cfg.App.InvoicePrefix),
		cfg.Auth.LoginPerMinute,
	)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "name", cfg.App.Name, "port", port)

	if err := http.ListenAndServe(port, router); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func initLogger(level string) {
	var l slog.Level

	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: l})))
}
