package onboarding

import "time"

// Profile is the contact detail captured during onboarding.
type Profile struct {
	UserID    string
	Phone     string
	CreatedAt time.Time
}

// Completion is the outcome of a finished onboarding flow.
type Completion struct {
	UserID string
	Role   string
}
