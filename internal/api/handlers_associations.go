/**
 * @description
 * HTTP handlers for account-user associations, role assignment and the
 * cross-entity listing endpoints.
 */

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AssociateUserHandler handles POST /{id}/users/{userId} requests. Linking an
// already associated pair succeeds without side effects.
func (h *AccountHandlers) AssociateUserHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}

	assoc, err := h.service.AssociateUserToAccount(r.Context(), accountID, userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, assoc)
}

// DisassociateUserHandler handles DELETE /{id}/users/{userId} requests.
func (h *AccountHandlers) DisassociateUserHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}

	if err := h.service.DisassociateUserFromAccount(r.Context(), accountID, userID); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetUsersByAccountHandler handles GET /{id}/users requests.
func (h *AccountHandlers) GetUsersByAccountHandler(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseIDParam(r, "id")
	if err != nil {
		http.Error(w, "Invalid account ID format", http.StatusBadRequest)
		return
	}

	resp, err := h.service.GetUsersByAccount(r.Context(), accountID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// GetAccountsByUserHandler handles GET /users/{userId}/accounts requests.
func (h *AccountHandlers) GetAccountsByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}

	resp, err := h.service.GetAccountsByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, resp)
}

// AssignRoleHandler handles POST /users/{userId}/roles/{roleName} requests.
func (h *AccountHandlers) AssignRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}
	roleName := strings.TrimSpace(chi.URLParam(r, "roleName"))
	if roleName == "" {
		http.Error(w, "Role name is required", http.StatusBadRequest)
		return
	}

	if err := h.service.AssignRole(r.Context(), userID, roleName); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveRoleHandler handles DELETE /users/{userId}/roles/{roleName} requests.
func (h *AccountHandlers) RemoveRoleHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}
	roleName := strings.TrimSpace(chi.URLParam(r, "roleName"))
	if roleName == "" {
		http.Error(w, "Role name is required", http.StatusBadRequest)
		return
	}

	if err := h.service.RemoveRole(r.Context(), userID, roleName); err != nil {
		respondWithError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetRolesByUserHandler handles GET /users/{userId}/roles requests.
func (h *AccountHandlers) GetRolesByUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDParam(r, "userId")
	if err != nil {
		http.Error(w, "Invalid user ID format", http.StatusBadRequest)
		return
	}

	roles, err := h.service.GetRolesByUser(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if roles == nil {
		roles = []string{}
	}
	respondWithJSON(w, http.StatusOK, roles)
}
