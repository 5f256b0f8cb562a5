/**
 * @description
 * This file defines the Role and association domain models. Roles are plain named
 * permissions ("ROLE_USER", "ROLE_ADMIN", "ROLE_EMPLOYEE") created lazily on first
 * assignment. AccountUser rows grant a user permission to draw on an account's
 * balance; an account can have many users and a user can belong to many accounts.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRole is assigned to every newly created user.
const DefaultRole = "ROLE_USER"

// Role is a named permission. Names are unique across the system.
type Role struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// AccountUser represents the permission for a user to use an account's balance.
// The (AccountID, UserID) pair is unique.
type AccountUser struct {
	AccountID uuid.UUID `json:"account_id"`
	UserID    uuid.UUID `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// UsersByAccountResponse lists the users associated with one account,
// including their assigned roles.
type UsersByAccountResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Users     []User    `json:"users"`
}

// AccountsByUserResponse lists the accounts one user may draw on.
type AccountsByUserResponse struct {
	UserID   uuid.UUID `json:"user_id"`
	Accounts []Account `json:"accounts"`
}
