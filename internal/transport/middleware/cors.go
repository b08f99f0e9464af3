package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/heartmarshall/commonprayer-backend/internal/config"
)

// exposedHeaders lets browser clients read the request ID and rate-limit state.
var exposedHeaders = strings.Join([]string{
	RequestIDHeader, "Retry-After", rateLimitLimitHeader, rateLimitRemainingHeader,
}, ", ")

// CORS answers preflight requests and marks responses for allowed origins.
// An OPTIONS request without Access-Control-Request-Method is not a preflight
// and is passed to the router.
func CORS(cfg config.CORSConfig) Middleware {
	anyOrigin := false
	allowed := make(map[string]struct{})
	for _, o := range strings.Split(cfg.AllowedOrigins, ",") {
		switch o = strings.TrimSpace(o); o {
		case "":
		case "*":
			anyOrigin = true
		default:
			allowed[o] = struct{}{}
		}
	}
	maxAge := strconv.Itoa(cfg.MaxAge)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := allowed[origin]; ok || anyOrigin {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Expose-Headers", exposedHeaders)
				if cfg.AllowCredentials {
					h.Set("Access-Control-Allow-Credentials", "true")
				}
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				h.Set("Access-Control-Allow-Methods", cfg.AllowedMethods)
				h.Set("Access-Control-Allow-Headers", cfg.AllowedHeaders)
				h.Set("Access-Control-Max-Age", maxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
