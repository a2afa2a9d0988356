package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// JWTValidator defines the interface for validating JWT tokens
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the actor claims the middleware needs.
type JWTClaims struct {
	UserID       string
	SessionID    string
	ClientID     int64
	Capabilities []string
}

type contextKeySessionID struct{}

// SessionID returns the token session the request was authenticated with.
// The CSRF middleware binds its token to this value.
func SessionID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeySessionID{}).(string); ok {
		return v
	}
	return ""
}

// WithSessionID injects a session ID. Useful in handler tests.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, contextKeySessionID{}, sessionID)
}

// RequireAuth validates the bearer token and places the actor in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error:            "unauthorized",
					ErrorDescription: "Missing or invalid Authorization header",
				})
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteJSON(w, http.StatusUnauthorized, httputil.ErrorResponse{
					Error:            "unauthorized",
					ErrorDescription: "Invalid or expired token",
				})
				return
			}

			ctx = requestcontext.WithActor(ctx, claims.UserID, claims.ClientID, claims.Capabilities)
			ctx = WithSessionID(ctx, claims.SessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
