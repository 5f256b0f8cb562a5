/**
 * @description
 * This file provides the account-related half of the PostgreSQL implementation of
 * the `Repository` interface: account CRUD, lifecycle transitions and the atomic
 * balance mutations. User, role and association queries live in sibling files.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 *
 * @notes
 * - Balance mutations use SELECT ... FOR UPDATE inside a transaction so that two
 *   concurrent deducts against the same account serialize: the second one sees
 *   the balance left by the first and is rejected if funds no longer suffice.
 */

package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/monopatines/accounts-service/internal/domain"
)

const accountColumns = `id, payment_ref, balance, status, cancelled_at, created_at, updated_at`

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAccount(row pgx.Row, account *domain.Account) error {
	return row.Scan(
		&account.ID,
		&account.PaymentRef,
		&account.Balance,
		&account.Status,
		&account.CancelledAt,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
}

// CreateAccount inserts a new account row and returns it with the
// database-assigned timestamps.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
		INSERT INTO accounts (id, payment_ref, balance, status)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + accountColumns
	var created domain.Account
	err := scanAccount(r.db.QueryRow(ctx, query, account.ID, account.PaymentRef, account.Balance, account.Status), &created)
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// FindAccountByID retrieves a single account by its ID.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	var account domain.Account
	err := scanAccount(r.db.QueryRow(ctx, query, accountID), &account)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindAllAccounts retrieves every account, newest first.
func (r *PostgresRepository) FindAllAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY created_at DESC`
	return r.queryAccounts(ctx, query)
}

// FindActiveAccounts retrieves accounts that have not been cancelled.
func (r *PostgresRepository) FindActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE status = 'active' ORDER BY created_at DESC`
	return r.queryAccounts(ctx, query)
}

func (r *PostgresRepository) queryAccounts(ctx context.Context, query string, args ...any) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := scanAccount(rows, &account); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdateAccountPaymentRef changes the external payment reference of an account.
func (r *PostgresRepository) UpdateAccountPaymentRef(ctx context.Context, accountID uuid.UUID, paymentRef string) (*domain.Account, error) {
	query := `
		UPDATE accounts
		SET payment_ref = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + accountColumns
	var account domain.Account
	err := scanAccount(r.db.QueryRow(ctx, query, paymentRef, accountID), &account)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CancelAccount transitions an account to cancelled under a row lock. A repeat
// cancellation keeps the original cancellation timestamp and reports false.
func (r *PostgresRepository) CancelAccount(ctx context.Context, accountID uuid.UUID) (*domain.Account, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	var account domain.Account
	err = scanAccount(tx.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, accountID), &account)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, ErrAccountNotFound
		}
		return nil, false, err
	}

	if account.Status == domain.AccountStatusCancelled {
		return &account, false, tx.Commit(ctx)
	}

	query := `
		UPDATE accounts
		SET status = 'cancelled', cancelled_at = NOW(), updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns
	if err := scanAccount(tx.QueryRow(ctx, query, accountID), &account); err != nil {
		return nil, false, err
	}

	return &account, true, tx.Commit(ctx)
}

// DeleteAccount permanently removes an account and, via ON DELETE CASCADE,
// its associations.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, accountID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, accountID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// CreditBalance performs an atomic credit operation on an account.
func (r *PostgresRepository) CreditBalance(ctx context.Context, accountID uuid.UUID, amount int64) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status domain.AccountStatus
	// Use FOR UPDATE to lock the row, preventing race conditions.
	err = tx.QueryRow(ctx, `SELECT status FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if status == domain.AccountStatusCancelled {
		return nil, ErrAccountCancelled
	}

	query := `
		UPDATE accounts
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + accountColumns
	var account domain.Account
	if err := scanAccount(tx.QueryRow(ctx, query, amount, accountID), &account); err != nil {
		return nil, err
	}

	return &account, tx.Commit(ctx)
}

// DebitBalance performs an atomic debit operation on an account. The funds
// check happens under the row lock, so the balance can never go negative.
func (r *PostgresRepository) DebitBalance(ctx context.Context, accountID uuid.UUID, amount int64) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var balance int64
	var status domain.AccountStatus
	// Use FOR UPDATE to lock the row, preventing race conditions.
	err = tx.QueryRow(ctx, `SELECT balance, status FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance, &status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if status == domain.AccountStatusCancelled {
		return nil, ErrAccountCancelled
	}
	if balance < amount {
		return nil, ErrInsufficientFunds
	}

	query := `
		UPDATE accounts
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + accountColumns
	var account domain.Account
	if err := scanAccount(tx.QueryRow(ctx, query, amount, accountID), &account); err != nil {
		return nil, err
	}

	return &account, tx.Commit(ctx)
}
