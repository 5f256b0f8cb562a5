package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/monopatines/accounts-service/internal/domain"
	"github.com/monopatines/accounts-service/internal/store"
)

type assocRepoStub struct {
	store.Repository

	account      *domain.Account
	user         *domain.User
	pairs        map[[2]uuid.UUID]domain.AccountUser
	roles        map[uuid.UUID][]string
	associateErr error
}

func newAssocRepoStub(account *domain.Account, user *domain.User) *assocRepoStub {
	return &assocRepoStub{
		account: account,
		user:    user,
		pairs:   make(map[[2]uuid.UUID]domain.AccountUser),
		roles:   make(map[uuid.UUID][]string),
	}
}

func (s *assocRepoStub) FindAccountByID(ctx context.Context, accountID uuid.UUID) (*domain.Account, error) {
	if s.account == nil || s.account.ID != accountID {
		return nil, store.ErrAccountNotFound
	}
	result := *s.account
	return &result, nil
}

func (s *assocRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, store.ErrUserNotFound
	}
	result := *s.user
	return &result, nil
}

func (s *assocRepoStub) AssociateUserToAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, bool, error) {
	if s.associateErr != nil {
		return nil, false, s.associateErr
	}
	key := [2]uuid.UUID{accountID, userID}
	if existing, ok := s.pairs[key]; ok {
		result := existing
		return &result, false, nil
	}
	assoc := domain.AccountUser{AccountID: accountID, UserID: userID, CreatedAt: time.Now()}
	s.pairs[key] = assoc
	result := assoc
	return &result, true, nil
}

func (s *assocRepoStub) DisassociateUserFromAccount(ctx context.Context, accountID, userID uuid.UUID) (*domain.AccountUser, error) {
	key := [2]uuid.UUID{accountID, userID}
	assoc, ok := s.pairs[key]
	if !ok {
		return nil, store.ErrAssociationNotFound
	}
	delete(s.pairs, key)
	result := assoc
	return &result, nil
}

func (s *assocRepoStub) AssignRoleToUser(ctx context.Context, userID uuid.UUID, roleName string) error {
	for _, name := range s.roles[userID] {
		if name == roleName {
			return nil
		}
	}
	s.roles[userID] = append(s.roles[userID], roleName)
	return nil
}

func (s *assocRepoStub) RemoveRoleFromUser(ctx context.Context, userID uuid.UUID, roleName string) error {
	names := s.roles[userID]
	for i, name := range names {
		if name == roleName {
			s.roles[userID] = append(names[:i], names[i+1:]...)
			return nil
		}
	}
	return store.ErrRoleNotFound
}

func (s *assocRepoStub) FindRolesByUserID(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.roles[userID], nil
}

func TestAssociateUserToAccount_RepeatAssociationIsIdempotent(t *testing.T) {
	account := activeAccount(0)
	user := &domain.User{ID: uuid.New(), Email: "rider@example.com", FullName: "Rider One"}
	repo := newAssocRepoStub(account, user)
	producer := &publisherStub{}
	svc := NewService(repo, producer, 0)
	ctx := context.Background()

	first, err := svc.AssociateUserToAccount(ctx, account.ID, user.ID)
	if err != nil {
		t.Fatalf("first associate failed: %v", err)
	}

	second, err := svc.AssociateUserToAccount(ctx, account.ID, user.ID)
	if err != nil {
		t.Fatalf("repeat associate should succeed, got %v", err)
	}
	if second.AccountID != first.AccountID || second.UserID != first.UserID {
		t.Fatalf("repeat associate returned a different pair")
	}
	if len(repo.pairs) != 1 {
		t.Fatalf("expected a single stored association, got %d", len(repo.pairs))
	}
	if got := producer.count(domain.EventUserAssociated); got != 1 {
		t.Fatalf("repeat associate must not re-publish: got %d events, want 1", got)
	}
}

func TestAssociateUserToAccount_RejectsCancelledAccount(t *testing.T) {
	account := activeAccount(0)
	account.Status = domain.AccountStatusCancelled
	user := &domain.User{ID: uuid.New(), Email: "rider@example.com", FullName: "Rider One"}
	svc := NewService(newAssocRepoStub(account, user), &publisherStub{}, 0)

	_, err := svc.AssociateUserToAccount(context.Background(), account.ID, user.ID)
	if !errors.Is(err, store.ErrAccountCancelled) {
		t.Fatalf("expected ErrAccountCancelled, got %v", err)
	}
}

func TestAssociateUserToAccount_PropagatesInsertTimeConflicts(t *testing.T) {
	// The repository re-checks the account and the pair inside its own
	// transaction, so its verdict can differ from the pre-checks when a
	// cancel or disassociate commits in between. Those errors must surface
	// as-is and must not publish an event.
	account := activeAccount(0)
	user := &domain.User{ID: uuid.New(), Email: "rider@example.com", FullName: "Rider One"}
	ctx := context.Background()

	for _, want := range []error{store.ErrAccountCancelled, store.ErrAssociationNotFound} {
		repo := newAssocRepoStub(account, user)
		repo.associateErr = want
		producer := &publisherStub{}
		svc := NewService(repo, producer, 0)

		if _, err := svc.AssociateUserToAccount(ctx, account.ID, user.ID); !errors.Is(err, want) {
			t.Fatalf("expected %v, got %v", want, err)
		}
		if got := producer.count(domain.EventUserAssociated); got != 0 {
			t.Fatalf("failed associate must not publish: got %d events", got)
		}
	}
}

func TestAssociateUserToAccount_RejectsUnknownEntities(t *testing.T) {
	account := activeAccount(0)
	user := &domain.User{ID: uuid.New(), Email: "rider@example.com", FullName: "Rider One"}
	svc := NewService(newAssocRepoStub(account, user), &publisherStub{}, 0)
	ctx := context.Background()

	if _, err := svc.AssociateUserToAccount(ctx, uuid.New(), user.ID); !errors.Is(err, store.ErrAccountNotFound) {
		t.Fatalf("unknown account: expected ErrAccountNotFound, got %v", err)
	}
	if _, err := svc.AssociateUserToAccount(ctx, account.ID, uuid.New()); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("unknown user: expected ErrUserNotFound, got %v", err)
	}
}

func TestDisassociateUserFromAccount_SecondRemovalFails(t *testing.T) {
	account := activeAccount(0)
	user := &domain.User{ID: uuid.New(), Email: "rider@example.com", FullName: "Rider One"}
	repo := newAssocRepoStub(account, user)
	svc := NewService(repo, &publisherStub{}, 0)
	ctx := context.Background()

	if _, err := svc.AssociateUserToAccount(ctx, account.ID, user.ID); err != nil {
		t.Fatalf("associate failed: %v", err)
	}
	if err := svc.DisassociateUserFromAccount(ctx, account.ID, user.ID); err != nil {
		t.Fatalf("first disassociate failed: %v", err)
	}
	if err := svc.DisassociateUserFromAccount(ctx, account.ID, user.ID); !errors.Is(err, store.ErrAssociationNotFound) {
		t.Fatalf("second disassociate: expected ErrAssociationNotFound, got %v", err)
	}
}

func TestRoles_AssignRemoveAndList(t *testing.T) {
	account := activeAccount(0)
	user := &domain.User{ID: uuid.New(), Email: "admin@example.com", FullName: "Admin One"}
	repo := newAssocRepoStub(account, user)
	svc := NewService(repo, &publisherStub{}, 0)
	ctx := context.Background()

	if err := svc.AssignRole(ctx, user.ID, "ROLE_ADMIN"); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	// Re-assignment of a held role is a no-op.
	if err := svc.AssignRole(ctx, user.ID, "ROLE_ADMIN"); err != nil {
		t.Fatalf("repeat assign failed: %v", err)
	}

	roles, err := svc.GetRolesByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(roles) != 1 || roles[0] != "ROLE_ADMIN" {
		t.Fatalf("expected [ROLE_ADMIN], got %v", roles)
	}

	if err := svc.RemoveRole(ctx, user.ID, "ROLE_ADMIN"); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if err := svc.RemoveRole(ctx, user.ID, "ROLE_ADMIN"); !errors.Is(err, store.ErrRoleNotFound) {
		t.Fatalf("removing an absent role: expected ErrRoleNotFound, got %v", err)
	}

	if err := svc.AssignRole(ctx, uuid.New(), "ROLE_ADMIN"); !errors.Is(err, store.ErrUserNotFound) {
		t.Fatalf("assign to unknown user: expected ErrUserNotFound, got %v", err)
	}
}
