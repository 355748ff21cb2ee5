/**
 * @description
 * This file sets up the HTTP router for the banking-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as for authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware for browser clients.
 */

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/corebank/banking-service/internal/app"
)

// BankingRoutes creates and returns a new router for the banking service.
func BankingRoutes(h *BankingHandlers, service *app.Service) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Public user routes: no token exists yet at signup or login.
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.SignUpHandler)
		r.Post("/login", h.LoginHandler)
		r.Post("/verify", h.VerifyEmailHandler)
		r.Post("/verification-code", h.RequestVerificationCodeHandler)
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(service))

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", h.CreateAccountHandler)
			r.Get("/", h.ListAccountsHandler)
			r.Post("/deposit", h.DepositHandler)
			r.Post("/transfer", h.TransferHandler)
			r.Get("/{accountName}", h.GetAccountHandler)
			r.Delete("/{accountName}", h.DeleteAccountHandler)
			r.Get("/{accountName}/history", h.HistoryHandler)
		})
	})

	return r
}
