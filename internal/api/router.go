/**
 * @description
 * This file sets up the HTTP router for the accounts-service. It defines the API
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
)

// AccountRoutes creates and returns a new router for the accounts service.
func AccountRoutes(h *AccountHandlers, jwksURL string, internalKey string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Internal-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Server-to-server endpoints used by the rides service when billing a
	// trip: no gateway token, just the shared internal key.
	r.Route("/internal/accounts", func(r chi.Router) {
		r.Use(InternalAuthMiddleware(internalKey))
		r.Get("/{id}/active", h.IsAccountActiveHandler)
		r.Get("/{id}/balance", h.GetBalanceHandler)
		r.Put("/{id}/balance/deduct", h.DeductBalanceHandler)
	})

	// Group routes that require authentication.
	r.Group(func(r chi.Router) {
		// Apply JWT authentication middleware for production
		r.Use(GatewayAuthMiddleware(jwksURL))

		r.Route("/api/accounts", func(r chi.Router) {
			// Account endpoints
			r.Post("/", h.CreateAccountHandler)
			r.Get("/", h.GetAllAccountsHandler)
			r.Get("/active", h.GetActiveAccountsHandler)
			r.Get("/{id}", h.GetAccountHandler)
			r.Put("/{id}", h.UpdateAccountHandler)
			r.Delete("/{id}", h.DeleteAccountHandler)
			r.Put("/{id}/cancel", h.CancelAccountHandler)
			r.Get("/{id}/active", h.IsAccountActiveHandler)
			r.Get("/{id}/balance", h.GetBalanceHandler)
			r.Put("/{id}/balance", h.LoadBalanceHandler)
			r.Put("/{id}/balance/deduct", h.DeductBalanceHandler)

			// Association endpoints
			r.Post("/{id}/users/{userId}", h.AssociateUserHandler)
			r.Delete("/{id}/users/{userId}", h.DisassociateUserHandler)
			r.Get("/{id}/users", h.GetUsersByAccountHandler)

			// User endpoints
			r.Post("/users", h.CreateUserHandler)
			r.Get("/users", h.FindUserHandler)
			r.Get("/users/all", h.GetAllUsersHandler)
			r.Get("/users/{userId}", h.GetUserHandler)
			r.Put("/users/{userId}", h.UpdateUserHandler)
			r.Delete("/users/{userId}", h.DeleteUserHandler)
			r.Get("/users/{userId}/accounts", h.GetAccountsByUserHandler)

			// Role endpoints
			r.Get("/users/{userId}/roles", h.GetRolesByUserHandler)
			r.Post("/users/{userId}/roles/{roleName}", h.AssignRoleHandler)
			r.Delete("/users/{userId}/roles/{roleName}", h.RemoveRoleHandler)
		})
	})

	return r
}
