package middleware

import (
	"github.com/go-chi/cors"
)

// NewCORS builds the cross-origin policy for the analytics API. The surface
// is read-heavy: GET for series and snapshots, POST only for the recompute
// triggers, and no custom request headers beyond the JSON content type.
func NewCORS(allowedOrigins []string) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}
