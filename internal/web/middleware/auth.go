package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/csvsearch/internal/config"
)

// APIKeyHeader carries the client's key on /api requests.
const APIKeyHeader = "X-API-Key"

// authFailure is one way a request can fail key checking.
type authFailure struct {
	status  int
	message string
	action  string
	code    string
}

var (
	errMissingKey = authFailure{http.StatusUnauthorized, "Missing API key", "Send your key in the " + APIKeyHeader + " header", "AUTH001"}
	errInvalidKey = authFailure{http.StatusForbidden, "Invalid API key", "Check the key with your administrator", "AUTH002"}
)

// APIKeyAuth guards a route group with APIKeyHeader. The configuration is
// read once; blank keys are ignored. When RequireAPIKey is false the
// returned middleware is a no-op.
func APIKeyAuth(cfg *config.SecurityConfig) func(http.Handler) http.Handler {
	if !cfg.RequireAPIKey {
		return func(next http.Handler) http.Handler { return next }
	}

	keys := make([][]byte, 0, len(cfg.APIKeys))
	for _, k := range cfg.APIKeys {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(APIKeyHeader)
			switch {
			case presented == "":
				rejectAuth(w, r, errMissingKey)
			case !matchesAnyKey([]byte(presented), keys):
				rejectAuth(w, r, errInvalidKey)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

func rejectAuth(w http.ResponseWriter, r *http.Request, f authFailure) {
	slog.Warn("api key rejected",
		"code", f.code,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
	)
	writeReject(w, f.status, f.message, f.action, f.code)
}

// matchesAnyKey compares against every key so timing does not reveal
// which one matched.
func matchesAnyKey(presented []byte, keys [][]byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(presented, k)
	}
	return match == 1
}
