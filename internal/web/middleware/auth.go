package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/rowrelay/internal/config"
)

// APIKeyAuth returns middleware that checks the X-API-Key header against the
// configured keys. It is a pass-through when RequireAPIKey is false.
//
// CORS preflight (OPTIONS) requests are never authenticated: browsers do not
// send custom headers on them.
func APIKeyAuth(cfg config.SecurityConfig) func(http.Handler) http.Handler {
	keys := make([][]byte, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		keys[i] = []byte(k)
	}

	return func(next http.Handler) http.Handler {
		if !cfg.RequireAPIKey {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("X-API-Key")
			switch {
			case key == "":
				slog.Warn("auth: missing API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				denyRequest(w, http.StatusUnauthorized, "Falta la clave de API", "AUTH001")
			case !validAPIKey([]byte(key), keys):
				slog.Warn("auth: invalid API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				denyRequest(w, http.StatusForbidden, "Clave de API inválida", "AUTH002")
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// validAPIKey compares key with every configured key in constant time.
func validAPIKey(key []byte, keys [][]byte) bool {
	match := 0
	for _, k := range keys {
		match |= subtle.ConstantTimeCompare(key, k)
	}
	return match == 1
}

// denyRequest writes the response envelope for a rejected request.
func denyRequest(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(struct {
		Success bool   `json:"Success"`
		Status  int    `json:"Status"`
		Message string `json:"Message"`
		Code    string `json:"Code"`
	}{false, status, message, code})
}
