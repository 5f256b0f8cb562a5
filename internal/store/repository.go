/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the accounts-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/domain"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrRoleNotFound        = errors.New("role not found")
	ErrAssociationNotFound = errors.New("account-user association not found")
	ErrAccountCancelled    = errors.New("account is cancelled")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrDuplicateEmail      = errors.New("email already registered")
)

// Repository defines the set of methods for interacting with the database.
// Balance and association mutations are atomic with respect to concurrent
// calls on the same row; see the PostgreSQL implementation.
type Repository interface {
	// Account methods
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error)
	FindAllAccounts(ctx context.Context) ([]domain.Account, error)
	FindActiveAccounts(ctx context.Context) ([]domain.Account, error)
	UpdateAccountPaymentRef(ctx context.Context, accountID uuid.UUID, paymentRef string) (*domain.Account, error)
	// CancelAccount marks an account cancelled. The bool result reports
	// whether this call performed the transition; cancelling an already
	// cancelled account returns the stored row unchanged with false.
	CancelAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, bool, error)
	DeleteAccount(ctx context.Context, accountID uuid.UUID) error
	// CreditBalance and DebitBalance lock the account row, re-check status
	// (and funds, for debit) under the lock, then apply the mutation and
	// return the updated account.
	CreditBalance(ctx context.Context, accountID uuid.UUID, amount int64) (*domain.Account, error)
	DebitBalance(ctx context.Context, accountID uuid.UUID, amount int64) (*domain.Account, error)

	// User methods
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindAllUsers(ctx context.Context) ([]domain.User, error)
	UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Role methods
	FindOrCreateRole(ctx context.Context, name string) (*domain.Role, error)
	AssignRoleToUser(ctx context.Context, userID uuid.UUID, roleName string) error
	RemoveRoleFromUser(ctx context.Context, userID uuid.UUID, roleName string) error
	FindRolesByUserID(ctx context.Context, userID uuid.UUID) ([]string, error)

	// Association methods
	// AssociateUserToAccount inserts the (account, user) pair if absent.
	// The bool result reports whether a new row was inserted; an existing
	// pair is returned unchanged with false.
	AssociateUserToAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, bool, error)
	DisassociateUserFromAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, error)
	FindUsersByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.User, error)
	FindAccountsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error)
}
