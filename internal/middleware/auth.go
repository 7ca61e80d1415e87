package middleware

import (
	"encoding/json"
	"net/http"

	"golang.org/x/crypto/bcrypt"
)

// RequireAdmin checks the X-Admin-Token header against the configured bcrypt
// hash. An empty hash disables the check, which is only acceptable for local
// development.
func RequireAdmin(tokenHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			token := r.Header.Get("X-Admin-Token")
			if token == "" || bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(token)) != nil {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid admin token"})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
