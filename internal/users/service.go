package users

import (
	"context"

	"github.com/rentiva/rentiva/internal/authz"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context) ([]User, error)
	SetRole(ctx context.Context, userID, role string) error
	SetActive(ctx context.Context, userID string, active bool) error
}

// SessionRevoker revokes all sessions for a user.
type SessionRevoker interface {
	InvalidateSession(ctx context.Context, userID string) error
}

// Service handles user administration. Every mutation that changes what a
// user may do also drops their cached role, and deactivation revokes their
// sessions so the change takes effect on the very next request.
type Service struct {
	repo     RepositoryPort
	roles    *authz.RoleCache
	sessions SessionRevoker
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles *authz.RoleCache, sessions SessionRevoker) *Service {
	return &Service{repo: repo, roles: roles, sessions: sessions}
}

// ListUsers returns all users.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// ChangeRole assigns a new role and invalidates the stale cached one.
func (s *Service) ChangeRole(ctx context.Context, userID string, role authz.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}
	if err := s.repo.SetRole(ctx, userID, string(role)); err != nil {
		return err
	}
	if s.roles != nil {
		s.roles.Invalidate(ctx, userID)
	}
	return nil
}

// Deactivate disables the account, drops its cached role and revokes every
// live session.
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	if err := s.repo.SetActive(ctx, userID, false); err != nil {
		return err
	}
	if s.roles != nil {
		s.roles.Invalidate(ctx, userID)
	}
	if s.sessions != nil {
		if err := s.sessions.InvalidateSession(ctx, userID); err != nil {
			return err
		}
	}
	return nil
}

// Reactivate re-enables a previously deactivated account.
func (s *Service) Reactivate(ctx context.Context, userID string) error {
	if err := s.repo.SetActive(ctx, userID, true); err != nil {
		return err
	}
	if s.roles != nil {
		s.roles.Invalidate(ctx, userID)
	}
	return nil
}
