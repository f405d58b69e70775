package common

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey string

const (
	userIDKey  ctxKey = "auth/user-id"
	sessionKey ctxKey = "cart/session-id"
)

// TrustedUserHeader names the header an upstream gateway uses to forward the
// authenticated user. Verification happens at that gateway; this service
// only propagates the identity.
const TrustedUserHeader = "X-User-ID"

// TrustedUserMiddleware lifts the gateway-forwarded user identity into the
// request context. Requests without the header stay anonymous.
func TrustedUserMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := strings.TrimSpace(r.Header.Get(TrustedUserHeader)); id != "" {
			r = r.WithContext(WithUserID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// WithUserID stores the authenticated user identifier on the provided context.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey, id)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	v := ctx.Value(userIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}

// WithSessionID stores the cart session identifier on the provided context.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionKey, id)
}

// SessionID extracts the cart session identifier from the context if present.
func SessionID(ctx context.Context) (string, bool) {
	v := ctx.Value(sessionKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
