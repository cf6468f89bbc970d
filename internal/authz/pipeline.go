package authz

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rentiva/rentiva/internal/shared"
)

// DefaultStoreTimeout bounds authoritative store and session-invalidation
// calls so a slow dependency cannot stall the request path.
const DefaultStoreTimeout = 3 * time.Second

// SessionInvalidator revokes every live session for a user. Implemented by
// the session manager; the pipeline calls it before redirecting a user
// whose account failed the integrity check.
type SessionInvalidator interface {
	InvalidateSession(ctx context.Context, userID string) error
}

// DecisionObserver receives the terminal outcome of each pipeline run.
type DecisionObserver interface {
	ObserveDecision(outcome string, source string, elapsed time.Duration)
}

// Request is the slice of an inbound HTTP request the pipeline needs.
type Request struct {
	// Path is the requested URL path.
	Path string
	// UserID is the session subject, empty when no valid session exists.
	UserID string
}

// Pipeline runs the per-request authorization state machine: session check,
// role resolution, account integrity, onboarding gate, then route policy.
// Every run terminates in exactly one AccessDecision; on any ambiguity it
// fails closed.
type Pipeline struct {
	resolver *RoleResolver
	store    UserStore
	guard    AccountIntegrityGuard
	gate     OnboardingGate
	policy   RoutePolicy
	sessions SessionInvalidator
	timeout  time.Duration
	logger   *slog.Logger
	observer DecisionObserver
}

// PipelineConfig collects the pipeline's collaborators.
type PipelineConfig struct {
	Resolver *RoleResolver
	Store    UserStore
	Policy   RoutePolicy
	Sessions SessionInvalidator
	// StoreTimeout bounds store and invalidation calls; zero means
	// DefaultStoreTimeout.
	StoreTimeout time.Duration
	Logger       *slog.Logger
	Observer     DecisionObserver
}

// NewPipeline constructs a Pipeline.
func NewPipeline(cfg PipelineConfig) *Pipeline {
	timeout := cfg.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &Pipeline{
		resolver: cfg.Resolver,
		store:    cfg.Store,
		gate:     NewOnboardingGate(cfg.Policy),
		policy:   cfg.Policy,
		sessions: cfg.Sessions,
		timeout:  timeout,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}
}

// Authorize decides whether the request may proceed. Transition rules are
// evaluated in order; the first match wins.
func (p *Pipeline) Authorize(ctx context.Context, req Request) AccessDecision {
	start := time.Now()
	decision, source := p.decide(ctx, req)
	if p.observer != nil {
		p.observer.ObserveDecision(decision.Outcome.String(), string(source), time.Since(start))
	}
	return decision
}

func (p *Pipeline) decide(ctx context.Context, req Request) (AccessDecision, Source) {
	path := normalizePath(req.Path)

	// No session: public routes pass, everything else goes to login with
	// the original path preserved for the post-login return.
	if req.UserID == "" {
		if p.policy.IsPublic(path) {
			return AccessDecision{Outcome: OutcomeAllow}, SourceUnknown
		}
		return p.redirectLogin(path, ""), SourceUnknown
	}

	resolveCtx, cancelResolve := context.WithTimeout(ctx, p.timeout)
	res := p.resolver.Resolve(resolveCtx, req.UserID)
	cancelResolve()
	role := res.Role
	rec := res.Record
	freshRead := res.Source == SourceStore

	switch res.Source {
	case SourceUnknown:
		// A cache miss that coincided with a store error is not an
		// answer. Re-attempt one direct, uncached read before deciding
		// anything; if that fails too, fail closed.
		fresh, err := p.fetchRecord(ctx, req.UserID)
		if err != nil {
			p.logStoreFailure(req.UserID, err)
			return p.redirectLogin(path, ""), SourceUnknown
		}
		rec = fresh
		freshRead = true
		role = RoleNone
		if rec != nil {
			role = rec.Role
			p.resolver.cache.Set(ctx, req.UserID, rec.Role)
		}
	case SourceCache:
		// A cached role shortcuts the lookup, but integrity and
		// onboarding flags must come from a fresh read whenever the
		// route needs a decision beyond "public".
		if !p.policy.IsPublic(path) {
			fresh, err := p.fetchRecord(ctx, req.UserID)
			if err != nil {
				p.logStoreFailure(req.UserID, err)
				return p.redirectLogin(path, ""), res.Source
			}
			rec = fresh
			freshRead = true
			if rec != nil {
				role = rec.Role
				if rec.Role != res.Role {
					// Store wins the race over the stale cache.
					p.resolver.cache.Set(ctx, req.UserID, rec.Role)
				}
			}
		}
	}

	// Integrity check runs whenever a fresh record was in play. A nil
	// record after a fresh read means the store answered definitively:
	// force logout, even if a stale cached role still exists.
	if rec != nil || freshRead {
		if guard := p.guard.Check(rec); !guard.OK {
			if guard.Action == GuardActionForceLogout {
				p.forceLogout(ctx, req.UserID)
			}
			d := p.redirectLogin(path, guard.Reason)
			return d, res.Source
		}
	}

	needsOnboarding := rec != nil && rec.NeedsOnboarding
	switch p.gate.Decide(role, needsOnboarding, path) {
	case OnboardingRedirect:
		return AccessDecision{
			Outcome: OutcomeRedirectOnboarding,
			Target:  PathOnboarding,
		}, res.Source
	case OnboardingRedirectDashboard:
		return AccessDecision{
			Outcome: OutcomeRedirectDashboard,
			Target:  p.policy.DashboardFor(role),
		}, res.Source
	}

	// Admin and owner accounts never sit on the public landing page;
	// they are sent to their dashboard before any policy evaluation.
	if (role == RoleAdmin || role == RoleOwner) && p.policy.IsLanding(path) {
		return AccessDecision{
			Outcome: OutcomeRedirectDashboard,
			Target:  p.policy.DashboardFor(role),
		}, res.Source
	}

	// Authenticated, onboarded users have no business on login/signup.
	if p.policy.IsAuthEntry(path) && role.Valid() && role != RolePending && !needsOnboarding {
		return AccessDecision{
			Outcome: OutcomeRedirectDashboard,
			Target:  p.policy.DashboardFor(role),
		}, res.Source
	}

	verdict := p.policy.IsAllowed(path, role)
	if !verdict.Allowed {
		return AccessDecision{
			Outcome: OutcomeRedirectUnauthorized,
			Target:  PathUnauthorized,
			Reason:  verdict.Reason,
			Path:    path,
		}, res.Source
	}
	return AccessDecision{Outcome: OutcomeAllow}, res.Source
}

// fetchRecord performs one bounded, uncached store read. A definitive
// missing row comes back as (nil, nil); only transport failures error.
func (p *Pipeline) fetchRecord(ctx context.Context, userID string) (*UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	rec, err := p.store.GetUserRecord(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// forceLogout invalidates every session for the user and drops their
// cached role. Invalidation failures are logged and swallowed: the
// redirect to login happens regardless.
func (p *Pipeline) forceLogout(ctx context.Context, userID string) {
	p.resolver.cache.Invalidate(ctx, userID)
	if p.sessions == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.sessions.InvalidateSession(ctx, userID); err != nil && p.logger != nil {
		p.logger.Warn("session invalidation failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}

func (p *Pipeline) redirectLogin(path, message string) AccessDecision {
	return AccessDecision{
		Outcome:    OutcomeRedirectLogin,
		Target:     PathLogin,
		RedirectTo: path,
		Message:    message,
	}
}

func (p *Pipeline) logStoreFailure(userID string, err error) {
	if p.logger != nil {
		p.logger.Error("user store unavailable, failing closed", slog.String("user_id", userID), slog.Any("error", err))
	}
}
