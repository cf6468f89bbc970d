package shared

import "context"

type sessionKeyType struct{}

var sessionKey sessionKeyType

// ContextWithSession attaches sess to ctx for downstream handlers.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the request session, or nil when the session
// middleware has not run.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}
