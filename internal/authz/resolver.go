package authz

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rentiva/rentiva/internal/shared"
)

// RoleResolver answers "what role does this user hold" by consulting the
// cache first and the authoritative store on miss.
type RoleResolver struct {
	cache  *RoleCache
	store  UserStore
	logger *slog.Logger
}

// NewRoleResolver constructs a RoleResolver.
func NewRoleResolver(cache *RoleCache, store UserStore, logger *slog.Logger) *RoleResolver {
	return &RoleResolver{cache: cache, store: store, logger: logger}
}

// Resolve returns the user's role and where it came from. A store failure
// yields RoleUnknown with SourceUnknown; callers must never treat that as
// RolePending and must re-read the store directly before deciding access.
func (r *RoleResolver) Resolve(ctx context.Context, userID string) Resolution {
	if role, ok := r.cache.Get(ctx, userID); ok {
		return Resolution{Role: role, Source: SourceCache}
	}

	rec, err := r.store.GetUserRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			// A definitive "no such account" is an answer, not a
			// degraded read. The guard handles the missing record.
			return Resolution{Role: RoleNone, Source: SourceStore}
		}
		if r.logger != nil {
			r.logger.Warn("role resolution store read failed", slog.String("user_id", userID), slog.Any("error", err))
		}
		return Resolution{Role: RoleUnknown, Source: SourceUnknown}
	}

	// The fresh store value wins over any concurrently written cache
	// entry; Set is an unconditional overwrite.
	r.cache.Set(ctx, userID, rec.Role)
	return Resolution{Role: rec.Role, Source: SourceStore, Record: rec}
}
