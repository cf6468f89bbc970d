package authz

// OnboardingDecision is the verdict of the onboarding gate.
type OnboardingDecision int

const (
	// OnboardingContinue lets the request proceed to route evaluation.
	OnboardingContinue OnboardingDecision = iota
	// OnboardingRedirect sends the user to the onboarding route.
	OnboardingRedirect
	// OnboardingRedirectDashboard sends an already-onboarded user away
	// from the onboarding route to their dashboard.
	OnboardingRedirectDashboard
)

// OnboardingGate routes users who still need profile completion to
// onboarding, and keeps everyone else out of it. Onboarding is one way:
// once cleared it is never revisitable.
type OnboardingGate struct {
	policy RoutePolicy
}

// NewOnboardingGate constructs an OnboardingGate over the route policy.
func NewOnboardingGate(policy RoutePolicy) OnboardingGate {
	return OnboardingGate{policy: policy}
}

// Decide evaluates the gate for the given role, onboarding flag and path.
func (g OnboardingGate) Decide(role Role, needsOnboarding bool, currentPath string) OnboardingDecision {
	onOnboarding := g.policy.IsOnboarding(currentPath)
	if needsOnboarding || role == RolePending {
		if onOnboarding {
			return OnboardingContinue
		}
		return OnboardingRedirect
	}
	if onOnboarding {
		return OnboardingRedirectDashboard
	}
	return OnboardingContinue
}
