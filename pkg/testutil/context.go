package testutil

import (
	"net/http"

	"caseflow/pkg/requestcontext"
)

// WithActor puts the actor the auth middleware would resolve from a token
// into the request context.
func WithActor(req *http.Request, userID string, clientID int64, capabilities ...string) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), userID, clientID, capabilities))
}
