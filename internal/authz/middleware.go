package authz

import (
	"net/http"
	"net/url"

	"github.com/rentiva/rentiva/internal/shared"
)

// Middleware gates every request through the authorization pipeline and
// turns the resulting AccessDecision into a response.
type Middleware struct {
	Pipeline *Pipeline
}

// Handler wraps next with the authorization check. Allowed requests pass
// through untouched; everything else becomes a 303 redirect carrying the
// decision's context as query parameters.
func (m Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{Path: r.URL.Path}
		if sess := shared.SessionFromContext(r.Context()); sess != nil {
			req.UserID = sess.User()
		}
		decision := m.Pipeline.Authorize(r.Context(), req)
		if decision.Allowed() {
			next.ServeHTTP(w, r)
			return
		}
		http.Redirect(w, r, RedirectURL(decision), http.StatusSeeOther)
	})
}

// RedirectURL renders the redirect target with the decision's query
// parameters: redirect (post-login return), message (user-visible note),
// reason and path (unauthorized context).
func RedirectURL(d AccessDecision) string {
	values := url.Values{}
	if d.RedirectTo != "" && d.RedirectTo != PathLanding {
		values.Set("redirect", d.RedirectTo)
	}
	if d.Message != "" {
		values.Set("message", d.Message)
	}
	if d.Reason != "" {
		values.Set("reason", d.Reason)
	}
	if d.Path != "" {
		values.Set("path", d.Path)
	}
	target := d.Target
	if target == "" {
		target = PathLanding
	}
	if encoded := values.Encode(); encoded != "" {
		return target + "?" + encoded
	}
	return target
}
