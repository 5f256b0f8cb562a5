/**
 * @description
 * This file defines the HTTP handlers for account endpoints: creation, reads,
 * updates, cancellation, deletion and the balance operations. User and
 * association handlers live in sibling files and share the helpers defined
 * here.
 *
 * Key features:
 * - Maps service and store sentinel errors to HTTP status codes in one place.
 * - Balance mutations pass through the Redis rate limiter, keyed per account.
 *   The limiter fails open so Redis downtime never blocks payments.
 *
 * @dependencies
 * - net/http, encoding/json: Standard Go libraries.
 * - github.com/go-chi/chi/v5: For URL parameter extraction.
 * - internal/app, internal/domain, internal/store: Business logic and models.
 */

package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/app"
	"github.com/monopatines/accounts-service/internal/domain"
	"github.com/monopatines/accounts-service/internal/store"
)

// BalanceRateLimiter caps how often balance mutations can hit one account.
type BalanceRateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope string, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// AccountHandlers holds the dependencies for the HTTP handlers.
type AccountHandlers struct {
	service          *app.Service
	rateLimiter      BalanceRateLimiter
	balanceRateLimit int
}

// NewAccountHandlers creates a new AccountHandlers instance.
func NewAccountHandlers(service *app.Service, limiter BalanceRateLimiter, balanceRateLimit int) *AccountHandlers {
	return &AccountHandlers{
		service:          service,
		rateLimiter:      limiter,
		balanceRateLimit: balanceRateLimit,
	}
}

// respondWithJSON is a helper function to write JSON responses.
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// respondWithError maps known sentinel errors to HTTP status codes. Anything
// unrecognized is a 500 with a generic body so storage details never leak.
func respondWithError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrRoleNotFound),
		errors.Is(err, store.ErrAssociationNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, store.ErrInsufficientFunds):
		http.Error(w, err.Error(), http.StatusPaymentRequired)
	case errors.Is(err, store.ErrAccountCancelled),
		errors.Is(err, store.ErrDuplicateEmail):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, app.ErrInvalidAmount),
		errors.Is(err, app.ErrLoadLimitExceeded),
		errors.Is(err, app.ErrEmptyPaymentRef),
		errors.Is(err, app.ErrNegativeInitialBalance),
		errors.Is(err, app.ErrInvalidEmail),
		errors.Is(err, app.ErrEmptyFullName):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("level=error component=api msg=\"unhandled service error\" error=%v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func parseIDParam(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// consumeBalanceRateLimit records one balance mutation attempt for an account.
// It reports false when the caller should be throttled. Limiter errors fail
// open: a Redis outage must not block balance operations.
func (h *AccountHandlers) consumeBalanceRateLimit(w http.ResponseWriter, r *http.Request, accountID uuid.UUID) bool {
	if h.rateLimiter == nil || h.balanceRateLimit <= 0 {
		return true
	}
	count, retryAfter, err := h.rateLimiter.ConsumeRateLimit(r.Context(), "balance", accountID.String(), h.balanceRateLimit, time.Minute)
	if err != nil {
		log.Printf("level=warn component=api msg=\"rate limiter unavailable; allowing request\" account_id=%s error=%v", accountID, err)
		return true
	}
	if count > h.balanceRateLimit {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		http.Error(w, "Too many balance operations for this account", http.StatusTooManyRequests)
		return false
	}
	return true
}

// CreateAccountHandler handles POST / requests to register a new account.
func (h *AccountHandlers) CreateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.service.CreateAccount(r.Context(), req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, account)
}

// GetAccountHandler handles GET /{id} requests.
func (h *AccountHandlers) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	account, err := h.service.GetAccount(r.Context(), accountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

// GetAllAccountsHandler handles GET / requests.
func (h *AccountHandlers) GetAllAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.GetAllAccounts(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

// GetActiveAccountsHandler handles GET /active requests.
func (h *AccountHandlers) GetActiveAccountsHandler(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.GetActiveAccounts(r.Context())
	if err != nil {
		respondWithError(w, err)
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

// UpdateAccountHandler handles PUT /{id} requests.
func (h *AccountHandlers) UpdateAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	var req domain.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), accountID, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

// CancelAccountHandler handles PUT /{id}/cancel requests. Cancelling twice is
// an idempotent success.
func (h *AccountHandlers) CancelAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	account, err := h.service.CancelAccount(r.Context(), accountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

// DeleteAccountHandler handles DELETE /{id} requests.
func (h *AccountHandlers) DeleteAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteAccount(r.Context(), accountID); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetBalanceHandler handles GET /{id}/balance requests.
func (h *AccountHandlers) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), accountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, balance)
}

// IsAccountActiveHandler handles GET /{id}/active requests.
func (h *AccountHandlers) IsAccountActiveHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	active, err := h.service.IsAccountActive(r.Context(), accountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]bool{"active": active})
}

// LoadBalanceHandler handles PUT /{id}/balance requests to credit an account.
func (h *AccountHandlers) LoadBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}
	if !h.consumeBalanceRateLimit(w, r, accountID) {
		return
	}

	var req domain.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.service.LoadBalance(r.Context(), accountID, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, domain.BalanceResponse{
		AccountID: account.ID,
		Balance:   account.Balance,
		Status:    string(account.Status),
	})
}

// DeductBalanceHandler handles PUT /{id}/balance/deduct requests to debit an
// account.
func (h *AccountHandlers) DeductBalanceHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}
	if !h.consumeBalanceRateLimit(w, r, accountID) {
		return
	}

	var req domain.BalanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	account, err := h.service.DeductBalance(r.Context(), accountID, req)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, domain.BalanceResponse{
		AccountID: account.ID,
		Balance:   account.Balance,
		Status:    string(account.Status),
	})
}
