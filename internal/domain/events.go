/**
 * @description
 * This file defines the event payloads published to RabbitMQ when account, user or
 * association state changes. Sibling services (trips, billing, notifications)
 * consume these to react to cancellations and balance movements without polling.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys for events published on the platform exchange.
const (
	EventAccountCreated    = "account.created"
	EventAccountCancelled  = "account.cancelled"
	EventBalanceLoaded     = "account.balance.loaded"
	EventBalanceDeducted   = "account.balance.deducted"
	EventUserCreated       = "user.created"
	EventUserDeleted       = "user.deleted"
	EventUserAssociated    = "account.user.associated"
	EventUserDisassociated = "account.user.disassociated"
)

// AccountEvent is published when an account is created or cancelled.
type AccountEvent struct {
	AccountID  uuid.UUID `json:"account_id"`
	PaymentRef string    `json:"payment_ref"`
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
}

// BalanceEvent is published after a successful load or deduct operation.
type BalanceEvent struct {
	AccountID uuid.UUID `json:"account_id"`
	Amount    int64     `json:"amount"`  // in centavos, always positive
	Balance   int64     `json:"balance"` // balance after the mutation
	Timestamp time.Time `json:"timestamp"`
}

// UserEvent is published when a user is created or deleted.
type UserEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	Timestamp time.Time `json:"timestamp"`
}

// AssociationEvent is published when a user is associated with or
// disassociated from an account.
type AssociationEvent struct {
	AccountID uuid.UUID `json:"account_id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}
