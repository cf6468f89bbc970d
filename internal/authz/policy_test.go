package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticPolicyIsPublic(t *testing.T) {
	policy := NewStaticRoutePolicy()

	assert.True(t, policy.IsPublic("/"))
	assert.True(t, policy.IsPublic("/vehicles"))
	assert.True(t, policy.IsPublic("/vehicles/123"))
	assert.True(t, policy.IsPublic("/about"))
	assert.True(t, policy.IsPublic("/login"))
	assert.True(t, policy.IsPublic("/signup"))
	assert.False(t, policy.IsPublic("/dashboard"))
	assert.False(t, policy.IsPublic("/admin/dashboard"))
	assert.False(t, policy.IsPublic("/owner/vehicles"))
	assert.False(t, policy.IsPublic("/onboarding"))
}

func TestStaticPolicyRoleExclusiveAreas(t *testing.T) {
	policy := NewStaticRoutePolicy()

	assert.True(t, policy.IsAllowed("/admin/dashboard", RoleAdmin).Allowed)
	assert.True(t, policy.IsAllowed("/owner/vehicles", RoleOwner).Allowed)
	assert.True(t, policy.IsAllowed("/dashboard/bookings", RoleRenter).Allowed)

	verdict := policy.IsAllowed("/admin/dashboard", RoleOwner)
	assert.False(t, verdict.Allowed)
	assert.NotEmpty(t, verdict.Reason)

	assert.False(t, policy.IsAllowed("/owner/vehicles", RoleRenter).Allowed)
	assert.False(t, policy.IsAllowed("/owner/vehicles", RoleAdmin).Allowed, "admins do not share owner routes")
	assert.False(t, policy.IsAllowed("/dashboard", RoleOwner).Allowed)
}

func TestStaticPolicyDashboardFor(t *testing.T) {
	policy := NewStaticRoutePolicy()

	assert.Equal(t, PathAdminDashboard, policy.DashboardFor(RoleAdmin))
	assert.Equal(t, PathOwnerDashboard, policy.DashboardFor(RoleOwner))
	assert.Equal(t, PathRenterDashboard, policy.DashboardFor(RoleRenter))
	assert.Equal(t, PathOnboarding, policy.DashboardFor(RolePending))
	assert.Equal(t, PathLanding, policy.DashboardFor(RoleNone))
}

func TestStaticPolicyTrailingSlash(t *testing.T) {
	policy := NewStaticRoutePolicy()

	assert.True(t, policy.IsPublic("/vehicles/"))
	assert.True(t, policy.IsLanding("/"))
	assert.True(t, policy.IsOnboarding("/onboarding/"))
	assert.True(t, policy.IsAuthEntry("/login/"))
}
