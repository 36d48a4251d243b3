package middleware

import (
	"context"
	"net/http"
)

// CallerIDKey is the context key for the authenticated caller account.
const CallerIDKey contextKey = "caller-id"

// CallerID extracts the caller account from the X-Caller-ID header and
// stores it in the request context. Authentication itself is expected to
// happen at the edge; this middleware only propagates the identity.
func CallerID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := r.Header.Get("X-Caller-ID")
			ctx := context.WithValue(r.Context(), CallerIDKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CallerFrom returns the caller account stored by CallerID, if any.
func CallerFrom(ctx context.Context) string {
	caller, _ := ctx.Value(CallerIDKey).(string)
	return caller
}
