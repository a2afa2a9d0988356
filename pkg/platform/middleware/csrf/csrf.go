// Package csrf guards mutating requests with a token bound to the caller's
// session. Tokens are HMAC-SHA256(key, sessionID), hex encoded, and travel in
// the X-CSRF-Token header.
package csrf

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"

	authmw "caseflow/pkg/platform/middleware/auth"
	"caseflow/pkg/platform/httputil"
	"caseflow/pkg/requestcontext"
)

// HeaderName carries the token on mutating requests.
const HeaderName = "X-CSRF-Token"

// Token derives the token a client must echo for sessionID.
func Token(key []byte, sessionID string) string {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(sessionID))
	return hex.EncodeToString(mac.Sum(nil))
}

// Valid reports whether token matches sessionID under key.
func Valid(key []byte, sessionID, token string) bool {
	if sessionID == "" || token == "" {
		return false
	}
	want, err := hex.DecodeString(Token(key, sessionID))
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(token)
	if err != nil {
		return false
	}
	return hmac.Equal(want, got)
}

// Protect rejects mutating requests without a valid token. It must run after
// the auth middleware so the session is known. Safe methods pass through.
func Protect(key []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if !Valid(key, authmw.SessionID(ctx), r.Header.Get(HeaderName)) {
				logger.WarnContext(ctx, "csrf token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", requestcontext.UserID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteJSON(w, http.StatusForbidden, httputil.ErrorResponse{
					Error:            "forbidden",
					ErrorDescription: "invalid csrf token",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
