package web

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/securecookie"
)

// newAPIToken returns a fresh bearer token for one daemon run.
func newAPIToken() (string, error) {
	tokenBytes := securecookie.GenerateRandomKey(32)
	if tokenBytes == nil {
		return "", errors.New("cannot read random bytes for the API token")
	}
	return hex.EncodeToString(tokenBytes), nil
}

// writeTokenFile leaves the token where local clients running as root
// can pick it up.
func writeTokenFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token+"\n"), 0600)
}

func getBearerToken(r *http.Request) (bool, string) {
	authHeader := r.Header.Get("authorization")
	if authHeader == "" {
		return false, ""
	}

	authPart := strings.Split(authHeader, " ")
	if len(authPart) != 2 || !strings.EqualFold(authPart[0], "bearer") {
		return false, ""
	}

	return true, authPart[1]
}

// authReq guards the routes that change network state. Read-only routes
// pass straight through.
func (t *api) authReq(route string, next http.HandlerFunc) http.HandlerFunc {
	method, _, _ := strings.Cut(route, " ")
	if method != http.MethodPost && method != http.MethodDelete {
		return next
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ok, token := getBearerToken(r)
		if !ok || t.token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(t.token)) != 1 {
			sendErrorResponse(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next(w, r)
	}
}

// checkOrigin turns away browser requests from pages that are neither
// served by this daemon nor listed in allowed_origins.
func (t *api) checkOrigin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && !sameHost(origin, r.Host) && !t.originListed(origin) {
			t.log.WithField("origin", origin).Warnf("Rejected %s %s from foreign origin", r.Method, r.URL.Path)
			sendErrorResponse(w, http.StatusForbidden, "origin not allowed")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (t *api) originListed(origin string) bool {
	for _, allowed := range t.config.Server.AllowedOrigins {
		if strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}

func sameHost(origin, host string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, host)
}
