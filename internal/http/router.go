package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mtrindade/carteira/internal/http/corporate"
	"github.com/mtrindade/carteira/internal/http/importcsv"
	"github.com/mtrindade/carteira/internal/http/portfolio"
	"github.com/mtrindade/carteira/internal/http/transaction"
)

func New(
	transactionsV1 *transaction.Handler,
	corporateV1 *corporate.Handler,
	portfolioV1 *portfolio.Handler,
	importV1 *importcsv.Handler,
	authSecret string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))

	if authSecret != "" {
		router.Use(RequireAuth(authSecret))
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			transactionsV1.Routes(r)
		})

		r.Route("/corporate-actions", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			corporateV1.Routes(r)
		})

		r.Route("/portfolio", portfolioV1.Routes)

		r.Route("/import", importV1.Routes)
	})

	return router
}
