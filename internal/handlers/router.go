package handlers

import (
	"net/http"

	"billing/internal/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.Logger)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{h.cfg.AllowedOrigins},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(middleware.Auth(h.cfg.JWTSecret)).Get("/me", h.Me)
	})
	router.Get("/models", h.ListModels)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/wallet", h.GetWallet)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/wallet/topup", h.TopUp)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Post("/usage/charge", h.Charge)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/usage", h.ListUsage)
	router.With(middleware.Auth(h.cfg.JWTSecret)).Get("/transactions", h.ListTransactions)
	router.Get("/ws/balances", h.WSBalances)

	router.Route("/admin", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret))
		r.Use(middleware.RequireAdmin(h.admins))
		r.Put("/models/{alias}", h.AdminUpsertModel)
		r.Get("/transactions", h.AdminListTransactions)
		r.Get("/reconcile/{userID}", h.AdminReconcile)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}
