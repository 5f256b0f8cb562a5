/**
 * @description
 * This file defines the User domain model and its request/response DTOs. Users are
 * the riders and employees of the platform; they authenticate through the upstream
 * auth-service, which is why this service only ever stores an opaque password hash
 * and never validates or re-hashes credentials itself.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered user. The password hash is produced by the
// auth-service before it reaches us and is treated as an opaque blob.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	PasswordHash string    `json:"-"`
	Roles        []string  `json:"roles,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUserRequest is the DTO for incoming user creation API requests.
// The password must arrive already hashed from the auth-service.
type CreateUserRequest struct {
	Email        string `json:"email"`
	FullName     string `json:"full_name"`
	Phone        string `json:"phone"`
	PasswordHash string `json:"password_hash"`
}

// UpdateUserRequest is the DTO for user update API requests. Credential changes
// go through the auth-service, so no password field is accepted here.
type UpdateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}
