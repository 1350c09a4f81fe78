package http

import (
	"net/http"

	"github.com/go-chi/cors"
)

// extensionCORS builds the CORS policy for the browser-extension endpoints.
// Only the exact configured origins are allowed; with no origins configured
// every cross-origin request is rejected.
func extensionCORS(origins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	if len(origins) == 0 {
		// go-chi/cors treats an empty origin list as allow-all; an
		// unconfigured extension policy must reject instead.
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
	}
	return cors.Handler(opts)
}

// appCORS builds the CORS policy for the admin web app.
func appCORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
