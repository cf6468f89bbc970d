package onboarding

import (
	"context"
	"errors"

	"github.com/rentiva/rentiva/internal/authz"
)

// ErrInvalidAccountType rejects roles the flow cannot assign.
var ErrInvalidAccountType = errors.New("onboarding: invalid account type")

// Repository persists the onboarding completion.
type Repository interface {
	CompleteOnboarding(ctx context.Context, userID, role, phone string) error
}

// Service finalises a pending account: assigns the chosen role, records the
// profile and clears the onboarding flag.
type Service struct {
	repo  Repository
	roles *authz.RoleCache
}

// NewService constructs a Service.
func NewService(repo Repository, roles *authz.RoleCache) *Service {
	return &Service{repo: repo, roles: roles}
}

// Complete finishes onboarding for userID. Only renter and owner can be
// chosen; admin accounts are provisioned out of band.
func (s *Service) Complete(ctx context.Context, userID, accountType, phone string) (Completion, error) {
	role := authz.Role(accountType)
	if role != authz.RoleRenter && role != authz.RoleOwner {
		return Completion{}, ErrInvalidAccountType
	}
	if err := s.repo.CompleteOnboarding(ctx, userID, accountType, phone); err != nil {
		return Completion{}, err
	}
	// Drop the cached pending role so the next request resolves the new
	// one from the store.
	if s.roles != nil {
		s.roles.Invalidate(ctx, userID)
	}
	return Completion{UserID: userID, Role: accountType}, nil
}
