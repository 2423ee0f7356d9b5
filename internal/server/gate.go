package server

import (
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotlite/internal/auth"
)

// Routes the gate treats as public: reachable without a session.
var publicPaths = []string{"/login", "/callback"}

// Prefixes the gate skips entirely: JSON endpoints carry their own semantics
// and static assets are harmless.
var skipPrefixes = []string{"/api/", "/static/"}

// AuthGate returns [Middleware] that guards every page behind the session cookie.
//
// Unauthenticated requests to protected paths are redirected to /login;
// authenticated visits to /login are redirected home so a signed-in user never
// sees the login screen again. A cookie that fails to decode is treated
// exactly like an absent one: the gate fails closed to /login, never open.
// The gate mutates nothing.
func AuthGate(codec *auth.Codec, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			for _, prefix := range skipPrefixes {
				if strings.HasPrefix(path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			session := codec.ReadSession(r)
			authenticated := session != nil && session.UserID != ""

			if isPublicPath(path) {
				if authenticated && path == "/login" {
					http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !authenticated {
				logger.Debug("unauthenticated request", "path", path)
				http.Redirect(w, r, "/login", http.StatusTemporaryRedirect)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func isPublicPath(path string) bool {
	for _, public := range publicPaths {
		if path == public || strings.HasPrefix(path, public+"/") {
			return true
		}
	}
	return false
}
