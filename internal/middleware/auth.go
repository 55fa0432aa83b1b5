package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"media-explorer/internal/logging"
)

const (
	// TokenParam is the query parameter carrying the access token.
	TokenParam = "token"
	// TokenHeader is the header alternative to TokenParam.
	TokenHeader = "X-Token"
)

// AuthConfig configures the shared-secret check.
type AuthConfig struct {
	// Token is the expected secret. Empty disables the check.
	Token string
	// PublicPaths are served without a token.
	PublicPaths []string
}

// DefaultAuthConfig exempts probes, version and metrics.
func DefaultAuthConfig(token string) AuthConfig {
	return AuthConfig{
		Token:       token,
		PublicPaths: []string{"/health", "/healthz", "/livez", "/readyz", "/version", "/metrics"},
	}
}

// RequireToken rejects requests whose token does not match with 403.
func RequireToken(config AuthConfig) func(http.Handler) http.Handler {
	expected := []byte(config.Token)
	return func(next http.Handler) http.Handler {
		if len(expected) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r.URL.Path, config.PublicPaths) {
				next.ServeHTTP(w, r)
				return
			}
			got := r.URL.Query().Get(TokenParam)
			if got == "" {
				got = r.Header.Get(TokenHeader)
			}
			if subtle.ConstantTimeCompare([]byte(got), expected) != 1 {
				logging.Debug("Rejected request for %s from %s: invalid or missing token",
					sanitizeLogField(r.URL.Path), sanitizeLogField(getClientIP(r)))
				http.Error(w, "Forbidden: invalid or missing token", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPublic(path string, public []string) bool {
	for _, p := range public {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}
