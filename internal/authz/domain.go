package authz

import "time"

// Role is the coarse permission level attached to an account.
type Role string

// Roles known to the platform. RoleNone marks unauthenticated callers,
// RolePending marks accounts that registered but have not finished
// onboarding, RoleUnknown marks a resolution that could not complete.
const (
	RoleAdmin   Role = "admin"
	RoleOwner   Role = "owner"
	RoleRenter  Role = "renter"
	RolePending Role = "pending"
	RoleNone    Role = "none"
	RoleUnknown Role = "unknown"
)

// Valid reports whether the role is one an account can actually hold.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleRenter, RolePending:
		return true
	}
	return false
}

// UserRecord is the authoritative account snapshot read from the store.
type UserRecord struct {
	ID              string
	Role            Role
	NeedsOnboarding bool
	IsActive        bool
	Email           string
}

// Source reports where a resolved role came from.
type Source string

const (
	SourceCache   Source = "cache"
	SourceStore   Source = "store"
	SourceUnknown Source = "unknown"
)

// Resolution is the result of a role lookup. Record is set only when the
// lookup hit the store; a nil Record with SourceStore means the store
// definitively reported no such account.
type Resolution struct {
	Role   Role
	Source Source
	Record *UserRecord
}

// Outcome enumerates the terminal states of the authorization pipeline.
type Outcome int

const (
	OutcomeAllow Outcome = iota
	OutcomeRedirectLogin
	OutcomeRedirectOnboarding
	OutcomeRedirectDashboard
	OutcomeRedirectUnauthorized
)

// String returns the outcome label used in logs and metrics.
func (o Outcome) String() string {
	switch o {
	case OutcomeAllow:
		return "allow"
	case OutcomeRedirectLogin:
		return "redirect_login"
	case OutcomeRedirectOnboarding:
		return "redirect_onboarding"
	case OutcomeRedirectDashboard:
		return "redirect_dashboard"
	case OutcomeRedirectUnauthorized:
		return "redirect_unauthorized"
	}
	return "unknown"
}

// AccessDecision is the pipeline's sole output. It is constructed once and
// never mutated; the HTTP layer consumes it to produce a response.
type AccessDecision struct {
	Outcome Outcome
	// Target is the redirect destination for non-allow outcomes.
	Target string
	// RedirectTo preserves the originally requested path so login can
	// return the user there afterwards.
	RedirectTo string
	// Message is a user-visible explanation safe to display.
	Message string
	// Reason is the denial reason from the route policy.
	Reason string
	// Path is the attempted path echoed on unauthorized redirects.
	Path string
}

// Allowed reports whether the request may pass through.
func (d AccessDecision) Allowed() bool {
	return d.Outcome == OutcomeAllow
}

// CacheEntry is a cached role with its validity window.
type CacheEntry struct {
	Role      Role      `json:"role"`
	CachedAt  time.Time `json:"cached_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the entry must no longer be served.
func (e CacheEntry) Expired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}
