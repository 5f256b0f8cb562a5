/**
 * @description
 * This file holds the user and role portions of the PostgreSQL repository: user
 * CRUD keyed by UUID or email, lazy role creation and the user_roles join table.
 *
 * @notes
 * - The unique index on lower(email) enforces case-insensitive email uniqueness;
 *   a 23505 from the driver is translated to ErrDuplicateEmail so the service
 *   layer can map it to a conflict response.
 * - Role names are created on first assignment with ON CONFLICT DO NOTHING, so
 *   assigning an unknown role never fails with a missing-row error.
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

const userColumns = `id, email, full_name, phone, password_hash, created_at, updated_at`

func scanUser(row pgx.Row, user *domain.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.Phone,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// CreateUser inserts a new user row. Duplicate emails surface as
// ErrDuplicateEmail.
func (r *PostgresRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		INSERT INTO users (id, email, full_name, phone, password_hash)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + userColumns
	var created domain.User
	err := scanUser(r.db.QueryRow(ctx, query, user.ID, user.Email, user.FullName, user.Phone, user.PasswordHash), &created)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &created, nil
}

// FindUserByID retrieves a user from the database by their ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	var user domain.User
	err := scanUser(r.db.QueryRow(ctx, query, userID), &user)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindUserByEmail retrieves a user by their email, case-insensitively.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower(btrim($1))`
	var user domain.User
	err := scanUser(r.db.QueryRow(ctx, query, email), &user)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindAllUsers retrieves every registered user, newest first.
func (r *PostgresRepository) FindAllUsers(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	return r.queryUsers(ctx, query)
}

func (r *PostgresRepository) queryUsers(ctx context.Context, query string, args ...any) ([]domain.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := scanUser(rows, &user); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUser updates a user's profile fields.
func (r *PostgresRepository) UpdateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `
		UPDATE users
		SET email = $1, full_name = $2, phone = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING ` + userColumns
	var updated domain.User
	err := scanUser(r.db.QueryRow(ctx, query, user.Email, user.FullName, user.Phone, user.ID), &updated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return &updated, nil
}

// DeleteUser permanently removes a user and, via ON DELETE CASCADE, their
// role assignments and account associations.
func (r *PostgresRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// FindOrCreateRole returns the role with the given name, creating it first if
// it does not exist yet.
func (r *PostgresRepository) FindOrCreateRole(ctx context.Context, name string) (*domain.Role, error) {
	insert := `INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`
	if _, err := r.db.Exec(ctx, insert, uuid.New(), name); err != nil {
		return nil, err
	}

	var role domain.Role
	err := r.db.QueryRow(ctx, `SELECT id, name FROM roles WHERE name = $1`, name).Scan(&role.ID, &role.Name)
	if err != nil {
		return nil, err
	}
	return &role, nil
}

// AssignRoleToUser grants a role to a user, creating the role on first use.
// Re-assigning an already held role is a no-op.
func (r *PostgresRepository) AssignRoleToUser(ctx context.Context, userID uuid.UUID, roleName string) error {
	role, err := r.FindOrCreateRole(ctx, roleName)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_roles (user_id, role_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, role_id) DO NOTHING
	`
	_, err = r.db.Exec(ctx, query, userID, role.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: the user row no longer exists.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// RemoveRoleFromUser revokes a role from a user.
func (r *PostgresRepository) RemoveRoleFromUser(ctx context.Context, userID uuid.UUID, roleName string) error {
	query := `
		DELETE FROM user_roles
		USING roles
		WHERE user_roles.role_id = roles.id
		  AND user_roles.user_id = $1
		  AND roles.name = $2
	`
	result, err := r.db.Exec(ctx, query, userID, roleName)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrRoleNotFound
	}
	return nil
}

// FindRolesByUserID lists the role names held by a user, alphabetically.
func (r *PostgresRepository) FindRolesByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	query := `
		SELECT roles.name
		FROM roles
		JOIN user_roles ON user_roles.role_id = roles.id
		WHERE user_roles.user_id = $1
		ORDER BY roles.name
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
