package middleware

import (
	"net/http"
	"strings"

	"github.com/go-chi/cors"
)

// CORS allows the configured origins with credentials. "*" allows any origin;
// the origin is then echoed rather than sent as a wildcard so credentialed
// requests still work.
func CORS(allowed []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-Total-Count", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	var origins []string
	for _, origin := range allowed {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin == "*" {
			opts.AllowOriginFunc = func(*http.Request, string) bool { return true }
			origins = nil
			break
		}
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	if opts.AllowOriginFunc == nil {
		if len(origins) == 0 {
			opts.AllowOriginFunc = func(*http.Request, string) bool { return false }
		}
		opts.AllowedOrigins = origins
	}
	return cors.Handler(opts)
}
