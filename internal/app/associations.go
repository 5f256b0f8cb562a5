/**
 * @description
 * Association and role business logic: linking users to accounts, revoking
 * those links, and the cross-entity listing operations used by reporting.
 *
 * @notes
 * - Associating an already linked pair is an idempotent success; the existing
 *   association is returned and no event fires. Disassociating a missing pair
 *   is reported as store.ErrAssociationNotFound.
 * - Cancelled accounts accept no new associations.
 */

package app

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/domain"
	"github.com/monopatines/accounts-service/internal/store"
)

// AssociateUserToAccount links a user to an account so the user can draw on
// its balance. Both entities must exist and the account must be active.
func (s *Service) AssociateUserToAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive() {
		return nil, store.ErrAccountCancelled
	}
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}

	assoc, inserted, err := s.repo.AssociateUserToAccount(ctx, accountID, userID)
	if err != nil {
		return nil, err
	}

	if inserted {
		s.publishEvent(domain.EventUserAssociated, domain.AssociationEvent{
			AccountID: accountID,
			UserID:    userID,
			Timestamp: time.Now().UTC(),
		})
	}
	return assoc, nil
}

// DisassociateUserFromAccount removes the link between a user and an account.
func (s *Service) DisassociateUserFromAccount(ctx context.Context, accountID, userID uuid.UUID) error {
	if _, err := s.repo.DisassociateUserFromAccount(ctx, accountID, userID); err != nil {
		return err
	}

	s.publishEvent(domain.EventUserDisassociated, domain.AssociationEvent{
		AccountID: accountID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// GetUsersByAccount lists the users associated with an account, each with
// their roles, in association order.
func (s *Service) GetUsersByAccount(ctx context.Context, accountID uuid.UUID) (*domain.UsersByAccountResponse, error) {
	if _, err := s.repo.FindAccountByID(ctx, accountID); err != nil {
		return nil, err
	}
	users, err := s.repo.FindUsersByAccountID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	for i := range users {
		roles, err := s.repo.FindRolesByUserID(ctx, users[i].ID)
		if err != nil {
			return nil, err
		}
		users[i].Roles = roles
	}
	return &domain.UsersByAccountResponse{AccountID: accountID, Users: users}, nil
}

// GetAccountsByUser lists the accounts a user may draw on, in association
// order.
func (s *Service) GetAccountsByUser(ctx context.Context, userID uuid.UUID) (*domain.AccountsByUserResponse, error) {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	accounts, err := s.repo.FindAccountsByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.AccountsByUserResponse{UserID: userID, Accounts: accounts}, nil
}

// CreateRoleIfNotExists ensures a role with the given name exists and
// returns it.
func (s *Service) CreateRoleIfNotExists(ctx context.Context, name string) (*domain.Role, error) {
	return s.repo.FindOrCreateRole(ctx, name)
}

// AssignRole grants a named role to a user, creating the role on first use.
func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return err
	}
	return s.repo.AssignRoleToUser(ctx, userID, roleName)
}

// RemoveRole revokes a named role from a user.
func (s *Service) RemoveRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return err
	}
	return s.repo.RemoveRoleFromUser(ctx, userID, roleName)
}

// GetRolesByUser lists the role names held by a user.
func (s *Service) GetRolesByUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if _, err := s.repo.FindUserByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.FindRolesByUserID(ctx, userID)
}
