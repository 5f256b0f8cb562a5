/**
 * @description
 * This file contains the core business logic for accounts. The `Service` struct
 * orchestrates account lifecycle and balance operations, coordinating between the
 * database repository and the message broker.
 *
 * Key features:
 * - Account creation, update, cancellation and deletion.
 * - Balance loads and deductions with strict validation before they reach the
 *   database, where the atomicity guarantees live.
 * - Publishes events to RabbitMQ for asynchronous processing by other services.
 *
 * @dependencies
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/domain"
	"github.com/monopatines/accounts-service/internal/store"
	"github.com/monopatines/accounts-service/pkg/rabbitmq"
)

var (
	ErrInvalidAmount          = errors.New("amount must be greater than zero")
	ErrLoadLimitExceeded      = errors.New("amount exceeds the per-load limit")
	ErrEmptyPaymentRef        = errors.New("payment reference is required")
	ErrNegativeInitialBalance = errors.New("initial balance cannot be negative")
	ErrInvalidEmail           = errors.New("a valid email is required")
	ErrEmptyFullName          = errors.New("full name is required")
)

// Service provides the core business logic for accounts, users and their
// associations.
type Service struct {
	repo          store.Repository
	eventProducer rabbitmq.Publisher
	maxLoadAmount int64 // per-load cap in centavos, 0 disables the cap
}

// NewService creates a new accounts service instance.
func NewService(repo store.Repository, producer rabbitmq.Publisher, maxLoadAmount int64) *Service {
	return &Service{
		repo:          repo,
		eventProducer: producer,
		maxLoadAmount: maxLoadAmount,
	}
}

// publishEvent sends a domain event to the broker. Event delivery is best
// effort: the state change has already committed, so a broker failure is
// logged and swallowed.
func (s *Service) publishEvent(routingKey string, payload interface{}) {
	if err := s.eventProducer.Publish(routingKey, payload); err != nil {
		log.Printf("level=warn component=service msg=\"event publish failed\" routing_key=%s error=%v", routingKey, err)
	}
}

// CreateAccount registers a new active account, optionally seeded with an
// opening balance.
func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	paymentRef := strings.TrimSpace(req.PaymentRef)
	if paymentRef == "" {
		return nil, ErrEmptyPaymentRef
	}
	if req.InitialBalance < 0 {
		return nil, ErrNegativeInitialBalance
	}

	account := &domain.Account{
		ID:         uuid.New(),
		PaymentRef: paymentRef,
		Balance:    req.InitialBalance,
		Status:     domain.AccountStatusActive,
	}
	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.publishEvent(domain.EventAccountCreated, domain.AccountEvent{
		AccountID:  created.ID,
		PaymentRef: created.PaymentRef,
		Status:     string(created.Status),
		Timestamp:  time.Now().UTC(),
	})
	return created, nil
}

// GetAccount returns a single account by ID.
func (s *Service) GetAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, accountID)
}

// GetAllAccounts returns every account.
func (s *Service) GetAllAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.FindAllAccounts(ctx)
}

// GetActiveAccounts returns accounts that have not been cancelled.
func (s *Service) GetActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.FindActiveAccounts(ctx)
}

// UpdateAccount changes an account's external payment reference.
func (s *Service) UpdateAccount(ctx context.Context, accountID uuid.UUID, req domain.UpdateAccountRequest) (*domain.Account, error) {
	paymentRef := strings.TrimSpace(req.PaymentRef)
	if paymentRef == "" {
		return nil, ErrEmptyPaymentRef
	}
	return s.repo.UpdateAccountPaymentRef(ctx, accountID, paymentRef)
}

// CancelAccount marks an account as cancelled, locking it out of balance
// operations and new associations. Cancelling an already cancelled account is
// an idempotent success; the original cancellation timestamp is preserved.
func (s *Service) CancelAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	account, transitioned, err := s.repo.CancelAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if transitioned {
		log.Printf("level=info component=service msg=\"account cancelled\" account_id=%s", account.ID)
		s.publishEvent(domain.EventAccountCancelled, domain.AccountEvent{
			AccountID:  account.ID,
			PaymentRef: account.PaymentRef,
			Status:     string(account.Status),
			Timestamp:  time.Now().UTC(),
		})
	}
	return account, nil
}

// DeleteAccount permanently removes an account and its associations.
func (s *Service) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	return s.repo.DeleteAccount(ctx, accountID)
}

// GetBalance returns the current balance of an account.
func (s *Service) GetBalance(ctx context.Context, accountID uuid.UUID) (*domain.BalanceResponse, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceResponse{
		AccountID: account.ID,
		Balance:   account.Balance,
		Status:    string(account.Status),
	}, nil
}

// IsAccountActive reports whether an account can still be used for balance
// operations.
func (s *Service) IsAccountActive(ctx context.Context, accountID uuid.UUID) (bool, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return false, err
	}
	return account.IsActive(), nil
}

// LoadBalance credits an account with a positive amount.
func (s *Service) LoadBalance(ctx context.Context, accountID uuid.UUID, req domain.BalanceRequest) (*domain.Account, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if s.maxLoadAmount > 0 && req.Amount > s.maxLoadAmount {
		return nil, ErrLoadLimitExceeded
	}

	account, err := s.repo.CreditBalance(ctx, accountID, req.Amount)
	if err != nil {
		return nil, err
	}

	s.publishEvent(domain.EventBalanceLoaded, domain.BalanceEvent{
		AccountID: account.ID,
		Amount:    req.Amount,
		Balance:   account.Balance,
		Timestamp: time.Now().UTC(),
	})
	return account, nil
}

// DeductBalance debits an account with a positive amount. The deduction is
// rejected with store.ErrInsufficientFunds when it would make the balance
// negative, leaving the stored balance untouched.
func (s *Service) DeductBalance(ctx context.Context, accountID uuid.UUID, req domain.BalanceRequest) (*domain.Account, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	account, err := s.repo.DebitBalance(ctx, accountID, req.Amount)
	if err != nil {
		return nil, err
	}

	s.publishEvent(domain.EventBalanceDeducted, domain.BalanceEvent{
		AccountID: account.ID,
		Amount:    req.Amount,
		Balance:   account.Balance,
		Timestamp: time.Now().UTC(),
	})
	return account, nil
}
