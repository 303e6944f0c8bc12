package middleware

import (
	"context"
	"net/http"
)

// userIDKey is the context key for the user ID.
type userIDKey struct{}

// DefaultUserID is used when a request carries no X-User-Id header.
// The app runs one profile per device, so most traffic falls here.
const DefaultUserID = "local"

// Identity extracts the caller's user ID from the X-User-Id header and
// adds it to the request context. Missing headers fall back to
// DefaultUserID.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get("X-User-Id")
		if userID == "" {
			userID = DefaultUserID
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetUserID retrieves the user ID from the context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey{}).(string); ok {
		return id
	}
	return ""
}
