package authz

import (
	"fmt"
	"strings"
)

// PolicyVerdict is a route policy answer.
type PolicyVerdict struct {
	Allowed bool
	Reason  string
}

// RoutePolicy maps (path, role) to an access verdict. The pipeline consumes
// it as a pure lookup; it performs no I/O.
type RoutePolicy interface {
	IsAllowed(path string, role Role) PolicyVerdict
	IsPublic(path string) bool
	DashboardFor(role Role) string
	IsAuthEntry(path string) bool
	IsLanding(path string) bool
	IsOnboarding(path string) bool
}

// Well-known paths of the rental platform.
const (
	PathLanding      = "/"
	PathLogin        = "/login"
	PathSignup       = "/signup"
	PathOnboarding   = "/onboarding"
	PathUnauthorized = "/unauthorized"

	PathAdminDashboard  = "/admin/dashboard"
	PathOwnerDashboard  = "/owner/dashboard"
	PathRenterDashboard = "/dashboard"
)

// StaticRoutePolicy is the platform's route table: a fixed set of public
// paths plus role-exclusive prefixes. Each role reaches only its own
// prefix; there is no cross-role sharing.
type StaticRoutePolicy struct {
	public      map[string]bool
	publicPref  []string
	exclusive   map[string]Role
	authEntries map[string]bool
}

// NewStaticRoutePolicy builds the default route table.
func NewStaticRoutePolicy() *StaticRoutePolicy {
	return &StaticRoutePolicy{
		public: map[string]bool{
			PathLanding: true,
			"/vehicles": true,
			"/about":    true,
			"/contact":  true,
		},
		publicPref: []string{"/vehicles/"},
		exclusive: map[string]Role{
			"/admin": RoleAdmin,
			"/owner": RoleOwner,
		},
		authEntries: map[string]bool{
			PathLogin:  true,
			PathSignup: true,
		},
	}
}

// IsPublic reports whether the path requires no session at all.
func (p *StaticRoutePolicy) IsPublic(path string) bool {
	path = normalizePath(path)
	if p.public[path] || p.authEntries[path] {
		return true
	}
	for _, pref := range p.publicPref {
		if strings.HasPrefix(path, pref) {
			return true
		}
	}
	return false
}

// IsAllowed evaluates role-exclusive prefixes and the shared surfaces.
func (p *StaticRoutePolicy) IsAllowed(path string, role Role) PolicyVerdict {
	path = normalizePath(path)
	if p.IsPublic(path) {
		return PolicyVerdict{Allowed: true}
	}
	for pref, owner := range p.exclusive {
		if path == pref || strings.HasPrefix(path, pref+"/") {
			if role == owner {
				return PolicyVerdict{Allowed: true}
			}
			return PolicyVerdict{Allowed: false, Reason: fmt.Sprintf("this area is reserved for %s accounts", owner)}
		}
	}
	// The renter dashboard lives at /dashboard rather than /renter.
	if path == PathRenterDashboard || strings.HasPrefix(path, PathRenterDashboard+"/") {
		if role == RoleRenter {
			return PolicyVerdict{Allowed: true}
		}
		return PolicyVerdict{Allowed: false, Reason: "this area is reserved for renter accounts"}
	}
	if path == PathOnboarding {
		// Reachability is the onboarding gate's job; any authenticated
		// role may target the path itself.
		return PolicyVerdict{Allowed: true}
	}
	if role.Valid() {
		return PolicyVerdict{Allowed: true}
	}
	return PolicyVerdict{Allowed: false, Reason: "sign in to continue"}
}

// DashboardFor returns the home surface for a role.
func (p *StaticRoutePolicy) DashboardFor(role Role) string {
	switch role {
	case RoleAdmin:
		return PathAdminDashboard
	case RoleOwner:
		return PathOwnerDashboard
	case RoleRenter:
		return PathRenterDashboard
	case RolePending:
		return PathOnboarding
	}
	return PathLanding
}

// IsAuthEntry reports whether the path is a login or signup surface.
func (p *StaticRoutePolicy) IsAuthEntry(path string) bool {
	return p.authEntries[normalizePath(path)]
}

// IsLanding reports whether the path is the unauthenticated landing page.
func (p *StaticRoutePolicy) IsLanding(path string) bool {
	return normalizePath(path) == PathLanding
}

// IsOnboarding reports whether the path is the onboarding surface.
func (p *StaticRoutePolicy) IsOnboarding(path string) bool {
	path = normalizePath(path)
	return path == PathOnboarding || strings.HasPrefix(path, PathOnboarding+"/")
}

func normalizePath(path string) string {
	if path == "" {
		return PathLanding
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path
}

var _ RoutePolicy = (*StaticRoutePolicy)(nil)
