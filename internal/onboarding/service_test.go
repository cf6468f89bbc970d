package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentiva/rentiva/internal/authz"
	_ "github.com/rentiva/rentiva/testing"
)

type stubRepo struct {
	userID string
	role   string
	phone  string
	err    error
}

func (s *stubRepo) CompleteOnboarding(ctx context.Context, userID, role, phone string) error {
	if s.err != nil {
		return s.err
	}
	s.userID, s.role, s.phone = userID, role, phone
	return nil
}

func newRoleCache(t *testing.T) *authz.RoleCache {
	t.Helper()
	cache := authz.NewRoleCache(authz.RoleCacheConfig{TTL: time.Minute})
	t.Cleanup(cache.Stop)
	return cache
}

func TestCompleteAssignsRoleAndDropsCache(t *testing.T) {
	repo := &stubRepo{}
	cache := newRoleCache(t)
	ctx := context.Background()
	cache.Set(ctx, "u1", authz.RolePending)

	svc := NewService(repo, cache)
	completion, err := svc.Complete(ctx, "u1", "owner", "+3161234")
	require.NoError(t, err)
	assert.Equal(t, "owner", completion.Role)
	assert.Equal(t, "owner", repo.role)
	assert.Equal(t, "+3161234", repo.phone)

	_, ok := cache.Get(ctx, "u1")
	assert.False(t, ok, "stale pending role must be invalidated")
}

func TestCompleteRejectsInvalidAccountType(t *testing.T) {
	svc := NewService(&stubRepo{}, newRoleCache(t))

	for _, accountType := range []string{"admin", "pending", "none", "", "root"} {
		_, err := svc.Complete(context.Background(), "u1", accountType, "")
		assert.ErrorIs(t, err, ErrInvalidAccountType, "account type %q", accountType)
	}
}

func TestCompleteKeepsCacheOnRepoError(t *testing.T) {
	repo := &stubRepo{err: errors.New("db down")}
	cache := newRoleCache(t)
	ctx := context.Background()
	cache.Set(ctx, "u1", authz.RolePending)

	svc := NewService(repo, cache)
	_, err := svc.Complete(ctx, "u1", "renter", "")
	require.Error(t, err)

	role, ok := cache.Get(ctx, "u1")
	assert.True(t, ok)
	assert.Equal(t, authz.RolePending, role)
}
