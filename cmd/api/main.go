package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/mtrindade/carteira/internal/config"
	"github.com/mtrindade/carteira/internal/corporate"
	"github.com/mtrindade/carteira/internal/database"
	carteiraHttp "github.com/mtrindade/carteira/internal/http"
	corporateHandler "github.com/mtrindade/carteira/internal/http/corporate"
	importHandler "github.com/mtrindade/carteira/internal/http/importcsv"
	portfolioHandler "github.com/mtrindade/carteira/internal/http/portfolio"
	txHandler "github.com/mtrindade/carteira/internal/http/transaction"
	"github.com/mtrindade/carteira/internal/importer"
	"github.com/mtrindade/carteira/internal/ledger"
	ledgerStore "github.com/mtrindade/carteira/internal/ledger/store"
	"github.com/mtrindade/carteira/internal/quote"
	"github.com/mtrindade/carteira/internal/valuation"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	store := ledgerStore.New(db)

	var (
		ledgerService    = ledger.NewService(store)
		corporateService = corporate.NewService(store)
		importService    = importer.NewService()
		quoteClient      = quote.NewBrapiClient(cfg.Quote.BaseURL, cfg.Quote.Token, cfg.Quote.Timeout)
		valuationService = valuation.NewService(ledgerService, quoteClient)
	)

	var (
		transactionH = txHandler.NewHandler(ledgerService, corporateService)
		corporateH   = corporateHandler.NewHandler(corporateService)
		portfolioH   = portfolioHandler.NewHandler(valuationService)
		importH      = importHandler.NewHandler(importService, ledgerService)
	)

	router := carteiraHttp.New(transactionH, corporateH, portfolioH, importH, cfg.Auth.Secret)

	port := fmt.Sprintf(":%d", cfg.App.Port)
	slog.Info("starting server", "port", port)

	srv := &http.Server{
		Addr:         port,
		Handler:      router,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	if err := srv.ListenAndServe(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
