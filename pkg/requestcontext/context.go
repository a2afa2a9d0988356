// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them. Keeping this package free of
// net/http lets services and workers import it without pulling in transport code.
//
// Usage in services:
//
//	actor := requestcontext.UserID(ctx)
//	clientID := requestcontext.ClientID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests:
//
//	ctx = requestcontext.WithActor(ctx, "u-1", 42, []string{"case.convert"})
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"slices"
	"time"
)

type (
	userIDKey       struct{}
	clientIDKey     struct{}
	capabilitiesKey struct{}
	clientIPKey     struct{}
	userAgentKey    struct{}
	requestIDKey    struct{}
	requestTimeKey  struct{}
)

// -----------------------------------------------------------------------------
// Actor context (user, client, capabilities)
// -----------------------------------------------------------------------------

// UserID returns the authenticated actor's user ID, or "" when unauthenticated.
func UserID(ctx context.Context) string {
	if v, ok := ctx.Value(userIDKey{}).(string); ok {
		return v
	}
	return ""
}

// ClientID returns the tenant client the actor belongs to, or 0.
func ClientID(ctx context.Context) int64 {
	if v, ok := ctx.Value(clientIDKey{}).(int64); ok {
		return v
	}
	return 0
}

// Capabilities returns the ACL capabilities granted to the actor.
func Capabilities(ctx context.Context) []string {
	if v, ok := ctx.Value(capabilitiesKey{}).([]string); ok {
		return v
	}
	return nil
}

// HasCapability reports whether the actor holds capability.
func HasCapability(ctx context.Context, capability string) bool {
	return slices.Contains(Capabilities(ctx), capability)
}

// WithActor injects the authenticated actor into the context.
func WithActor(ctx context.Context, userID string, clientID int64, capabilities []string) context.Context {
	ctx = context.WithValue(ctx, userIDKey{}, userID)
	ctx = context.WithValue(ctx, clientIDKey{}, clientID)
	ctx = context.WithValue(ctx, capabilitiesKey{}, slices.Clone(capabilities))
	return ctx
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the raw User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	ctx = context.WithValue(ctx, userAgentKey{}, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
