/**
 * @description
 * This file defines the core domain model for an Account within the accounts-service.
 * An account is the balance-holding entity that riders draw on when they activate a
 * scooter or finish a trip. It is linked to an external payment account (e.g. a
 * Mercado Pago reference) from which top-ups originate.
 *
 * @notes
 * - Balances are stored as `int64` in the smallest currency unit (centavos, two
 *   decimal places), which keeps all arithmetic exact and avoids floating-point
 *   drift with financial data.
 * - Cancellation is a status change, not a deletion: a cancelled account keeps its
 *   row and its cancellation timestamp, but can no longer be loaded, deducted or
 *   associated with new users. Deletion is a separate, permanent operation.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusCancelled AccountStatus = "cancelled"
)

// Account represents a balance-holding account in our system.
// This struct maps directly to the `accounts` table in the database.
type Account struct {
	ID          uuid.UUID     `json:"id"`
	PaymentRef  string        `json:"payment_ref"` // external payment-account reference
	Balance     int64         `json:"balance"`     // in centavos
	Status      AccountStatus `json:"status"`
	CancelledAt *time.Time    `json:"cancelled_at,omitempty"` // set iff status is cancelled
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// IsActive reports whether the account can still be used for balance
// operations and new associations.
func (a *Account) IsActive() bool {
	return a.Status == AccountStatusActive
}

// CreateAccountRequest is the DTO for incoming account creation API requests.
type CreateAccountRequest struct {
	PaymentRef     string `json:"payment_ref"`
	InitialBalance int64  `json:"initial_balance"` // in centavos, defaults to 0
}

// UpdateAccountRequest is the DTO for account update API requests. Balance and
// status are deliberately absent: they change only through the balance and
// cancellation operations.
type UpdateAccountRequest struct {
	PaymentRef string `json:"payment_ref"`
}

// BalanceRequest is the DTO for load/deduct balance API requests.
type BalanceRequest struct {
	Amount int64 `json:"amount"` // in centavos
}

// BalanceResponse reports an account's balance after a read or mutation.
type BalanceResponse struct {
	AccountID uuid.UUID `json:"account_id"`
	Balance   int64     `json:"balance"` // in centavos
	Status    string    `json:"status"`
}
