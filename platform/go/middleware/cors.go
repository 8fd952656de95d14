package middleware

import "net/http"

// CORSConfig controls the cross-origin policy. An empty AllowedOrigin allows
// any origin, which is only appropriate outside production.
type CORSConfig struct {
	AllowedOrigin string
}

// CORS returns a middleware applying the configured cross-origin headers and
// short-circuiting preflight requests.
func CORS(cfg CORSConfig) func(http.Handler) http.Handler {
	origin := cfg.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			if origin != "*" {
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PATCH,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type,Idempotency-Key")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultCORS keeps the permissive development policy.
func DefaultCORS() func(http.Handler) http.Handler {
	return CORS(CORSConfig{})
}
