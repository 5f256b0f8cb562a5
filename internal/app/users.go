/**
 * @description
 * User management business logic: registration with the default role, profile
 * reads and updates, and deletion. Credentials are owned by the auth-service;
 * this service only stores the opaque hash it is handed.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/domain"
)

// CreateUser registers a new user and grants the default role. Emails are
// unique case-insensitively; a duplicate surfaces as store.ErrDuplicateEmail.
func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, ErrEmptyFullName
	}

	user := &domain.User{
		ID:           uuid.New(),
		Email:        email,
		FullName:     fullName,
		Phone:        strings.TrimSpace(req.Phone),
		PasswordHash: req.PasswordHash,
	}
	created, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AssignRoleToUser(ctx, created.ID, domain.DefaultRole); err != nil {
		// The user row exists; a missing default role is recoverable on the
		// next role assignment, so log instead of failing the registration.
		log.Printf("level=warn component=service msg=\"default role assignment failed\" user_id=%s error=%v", created.ID, err)
	} else {
		created.Roles = []string{domain.DefaultRole}
	}

	s.publishEvent(domain.EventUserCreated, domain.UserEvent{
		UserID:    created.ID,
		Email:     created.Email,
		Timestamp: time.Now().UTC(),
	})
	return created, nil
}

// GetUser returns a user by ID, with their roles attached.
func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.attachRoles(ctx, user)
}

// GetUserByEmail returns a user by email, with their roles attached.
func (s *Service) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.repo.FindUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.attachRoles(ctx, user)
}

// GetAllUsers returns every registered user.
func (s *Service) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	return s.repo.FindAllUsers(ctx)
}

// UpdateUser changes a user's profile fields.
func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, req domain.UpdateUserRequest) (*domain.User, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	fullName := strings.TrimSpace(req.FullName)
	if fullName == "" {
		return nil, ErrEmptyFullName
	}

	user := &domain.User{
		ID:       userID,
		Email:    email,
		FullName: fullName,
		Phone:    strings.TrimSpace(req.Phone),
	}
	updated, err := s.repo.UpdateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.attachRoles(ctx, updated)
}

// DeleteUser permanently removes a user, their role assignments and their
// account associations.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, userID); err != nil {
		return err
	}

	s.publishEvent(domain.EventUserDeleted, domain.UserEvent{
		UserID:    user.ID,
		Email:     user.Email,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

func (s *Service) attachRoles(ctx context.Context, user *domain.User) (*domain.User, error) {
	roles, err := s.repo.FindRolesByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles for user %s: %w", user.ID, err)
	}
	user.Roles = roles
	return user, nil
}
