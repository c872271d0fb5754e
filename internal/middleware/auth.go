package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/AdamBeresnev/innerdrive/internal/httputil"
	"github.com/alexedwards/scs/v2"
	"golang.org/x/crypto/bcrypt"
)

const AdminSessionKey = "admin"

const ProxyKeyHeader = "X-Proxy-Key"

// CheckAdminPassword compares a login attempt with the configured bcrypt
// hash. An empty hash means admin login is disabled.
func CheckAdminPassword(hash, password string) bool {
	if hash == "" || password == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// RequireAdmin rejects requests without an admin session. The session is
// loaded by sessionManager.LoadAndSave further up the chain.
func RequireAdmin(sessionManager *scs.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !sessionManager.GetBool(r.Context(), AdminSessionKey) {
				httputil.Error(w, http.StatusUnauthorized, httputil.KindUnauthorized, "admin login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireProxyKey guards the partner registration endpoint. With no key
// configured the endpoint is closed.
func RequireProxyKey(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(ProxyKeyHeader)
			if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
				httputil.Error(w, http.StatusForbidden, httputil.KindForbidden, "invalid proxy key")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
