package authz

// GuardAction is the corrective side effect an integrity failure requires.
type GuardAction int

const (
	GuardActionNone GuardAction = iota
	GuardActionForceLogout
)

// Generic user-facing reasons. A missing row and a deactivated account are
// surfaced through the same redirect shape so a caller cannot probe which
// accounts exist.
const (
	ReasonVerificationFailed = "account verification failed"
	ReasonDeactivated        = "account deactivated"
)

// GuardResult is the outcome of an account integrity check.
type GuardResult struct {
	OK     bool
	Action GuardAction
	Reason string
}

// AccountIntegrityGuard decides whether a freshly fetched account is in a
// state that permits continued access.
type AccountIntegrityGuard struct{}

// Check inspects the record. A nil record means the authenticated principal
// has no matching account row (deleted, or filtered by row-level access
// control); both that and deactivation demand a forced logout.
func (AccountIntegrityGuard) Check(rec *UserRecord) GuardResult {
	if rec == nil {
		return GuardResult{OK: false, Action: GuardActionForceLogout, Reason: ReasonVerificationFailed}
	}
	if !rec.IsActive {
		return GuardResult{OK: false, Action: GuardActionForceLogout, Reason: ReasonDeactivated}
	}
	return GuardResult{OK: true, Action: GuardActionNone}
}
