// Package identity resolves the stable user identifier of the caller.
package identity

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"strings"
)

const (
	// UserIDQueryParam is the query parameter carrying the user id on the wire.
	UserIDQueryParam = "userId"
	// UserIDHeader is accepted as a fallback for clients that cannot set query params.
	UserIDHeader = "X-User-ID"
	// AnonymousScope is the cache scope used when no user is signed in.
	AnonymousScope = "anonymous"
)

type contextKey int

const userIDKey contextKey = iota

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9@._:+-]{1,128}$`)

// Provider yields the signed-in user's id, or false when nobody is signed in.
type Provider interface {
	CurrentUserID() (string, bool)
}

// Static is a Provider that always returns the same id. An empty Static
// reports no user.
type Static string

// CurrentUserID implements Provider.
func (s Static) CurrentUserID() (string, bool) {
	id := Sanitize(string(s))
	return id, id != ""
}

// Env is a Provider reading the user id from an environment variable on each call.
type Env string

// CurrentUserID implements Provider.
func (e Env) CurrentUserID() (string, bool) {
	id := Sanitize(os.Getenv(string(e)))
	return id, id != ""
}

// Valid returns true if id is a well-formed user id.
func Valid(id string) bool {
	return userIDPattern.MatchString(id)
}

// Sanitize trims id and returns "" if it is not well-formed.
func Sanitize(id string) string {
	id = strings.TrimSpace(id)
	if !Valid(id) {
		return ""
	}
	return id
}

// Scope returns the user id or AnonymousScope, for keying local state.
func Scope(p Provider) string {
	if p == nil {
		return AnonymousScope
	}
	if id, ok := p.CurrentUserID(); ok {
		return id
	}
	return AnonymousScope
}

// WithUserID returns a copy of ctx carrying userID.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext extracts the user ID from the request context.
func UserIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey).(string); ok {
		return v
	}
	return ""
}

func userIDFromRequest(r *http.Request) string {
	id := r.URL.Query().Get(UserIDQueryParam)
	if id == "" {
		id = r.Header.Get(UserIDHeader)
	}
	return Sanitize(id)
}

// Middleware lifts the caller's user id from the query string (or header)
// into the request context. Requests without one pass through unchanged.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userID := userIDFromRequest(r); userID != "" {
			r = r.WithContext(WithUserID(r.Context(), userID))
		}
		next.ServeHTTP(w, r)
	})
}
