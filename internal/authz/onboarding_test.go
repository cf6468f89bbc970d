package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOnboardingGate(t *testing.T) {
	gate := NewOnboardingGate(NewStaticRoutePolicy())

	tests := []struct {
		name  string
		role  Role
		flag  bool
		path  string
		want  OnboardingDecision
	}{
		{"pending role redirected", RolePending, false, "/vehicles", OnboardingRedirect},
		{"flagged renter redirected", RoleRenter, true, "/dashboard", OnboardingRedirect},
		{"pending already on onboarding", RolePending, true, "/onboarding", OnboardingContinue},
		{"onboarded renter continues", RoleRenter, false, "/dashboard", OnboardingContinue},
		{"onboarded renter cannot revisit", RoleRenter, false, "/onboarding", OnboardingRedirectDashboard},
		{"onboarded owner cannot revisit", RoleOwner, false, "/onboarding", OnboardingRedirectDashboard},
		{"admin continues elsewhere", RoleAdmin, false, "/admin/dashboard", OnboardingContinue},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, gate.Decide(tc.role, tc.flag, tc.path))
		})
	}
}
