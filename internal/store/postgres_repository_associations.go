/**
 * @description
 * This file holds the account-user association portion of the PostgreSQL
 * repository: creating and removing (account, user) pairs and the two
 * cross-entity queries used by the reporting endpoints.
 *
 * @notes
 * - The primary key on (account_id, user_id) makes duplicate associations
 *   impossible; ON CONFLICT DO NOTHING plus RowsAffected tells the caller
 *   whether this call inserted the pair or found it already present.
 * - Cross-entity listings are ordered by the association's created_at, so
 *   callers see memberships in the order they were granted.
 */

package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/monopatines/accounts-service/internal/domain"
)

// AssociateUserToAccount links a user to an account. The pair is inserted at
// most once; a concurrent or repeated call observes the existing row. The
// account's status is re-checked under a share lock inside the transaction,
// so a cancellation committing concurrently cannot slip in a new association.
func (r *PostgresRepository) AssociateUserToAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	// FOR SHARE blocks a concurrent cancel (which takes FOR UPDATE) from
	// committing between this check and the insert.
	var status domain.AccountStatus
	err = tx.QueryRow(ctx, `SELECT status FROM accounts WHERE id = $1 FOR SHARE`, accountID).Scan(&status)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, false, ErrAccountNotFound
		}
		return nil, false, err
	}
	if status == domain.AccountStatusCancelled {
		return nil, false, ErrAccountCancelled
	}

	query := `
		INSERT INTO account_users (account_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (account_id, user_id) DO NOTHING
	`
	result, err := tx.Exec(ctx, query, accountID, userID)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: the user row is missing (the account was verified above).
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, false, ErrUserNotFound
		}
		return nil, false, err
	}
	inserted := result.RowsAffected() > 0

	var assoc domain.AccountUser
	err = tx.QueryRow(ctx,
		`SELECT account_id, user_id, created_at FROM account_users WHERE account_id = $1 AND user_id = $2`,
		accountID, userID,
	).Scan(&assoc.AccountID, &assoc.UserID, &assoc.CreatedAt)
	if err != nil {
		// The conflicting row can be disassociated concurrently before this
		// statement's snapshot; report the pair as gone, not a storage error.
		if err == pgx.ErrNoRows {
			return nil, false, ErrAssociationNotFound
		}
		return nil, false, err
	}
	return &assoc, inserted, tx.Commit(ctx)
}

// DisassociateUserFromAccount removes the link between a user and an account
// and returns the removed row.
func (r *PostgresRepository) DisassociateUserFromAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, error) {
	query := `
		DELETE FROM account_users
		WHERE account_id = $1 AND user_id = $2
		RETURNING account_id, user_id, created_at
	`
	var assoc domain.AccountUser
	err := r.db.QueryRow(ctx, query, accountID, userID).Scan(&assoc.AccountID, &assoc.UserID, &assoc.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAssociationNotFound
		}
		return nil, err
	}
	return &assoc, nil
}

// FindUsersByAccountID lists the users associated with an account, in the
// order the associations were created.
func (r *PostgresRepository) FindUsersByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.User, error) {
	query := `
		SELECT u.id, u.email, u.full_name, u.phone, u.password_hash, u.created_at, u.updated_at
		FROM users u
		JOIN account_users au ON au.user_id = u.id
		WHERE au.account_id = $1
		ORDER BY au.created_at ASC
	`
	return r.queryUsers(ctx, query, accountID)
}

// FindAccountsByUserID lists the accounts a user may draw on, in the order
// the associations were created.
func (r *PostgresRepository) FindAccountsByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Account, error) {
	query := `
		SELECT a.id, a.payment_ref, a.balance, a.status, a.cancelled_at, a.created_at, a.updated_at
		FROM accounts a
		JOIN account_users au ON au.account_id = a.id
		WHERE au.user_id = $1
		ORDER BY au.created_at ASC
	`
	return r.queryAccounts(ctx, query, userID)
}
