package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/sangkips/tablepos-api/internal/config"
)

var (
	devOrigins = []string{
		"http://localhost:3000",
		"http://localhost:3001",
		"http://127.0.0.1:3000",
	}

	defaultMethods = []string{
		http.MethodGet, http.MethodPost, http.MethodPut,
		http.MethodPatch, http.MethodDelete, http.MethodOptions,
	}

	defaultHeaders = []string{"Accept", "Authorization", "Content-Type", "Origin"}

	// POS clients retry with these, so they survive any configured list
	requiredHeaders = []string{IdempotencyKeyHeader, "X-Request-ID"}

	// headers the terminal reads for replay detection and backoff
	exposedHeaders = []string{
		"Content-Length", "Content-Type", "X-Request-ID",
		IdempotencyReplayedHeader, "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After",
	}
)

// CORSMiddleware creates a CORS middleware with the provided configuration
func CORSMiddleware(cfg *config.CORSConfig) gin.HandlerFunc {
	return cors.New(corsConfig(cfg))
}

// corsConfig builds the gin-contrib/cors settings. An origin of "*" allows
// every origin without credentials, since browsers refuse credentialed
// wildcard responses. Entries like "https://*.example.com" match subdomains.
func corsConfig(cfg *config.CORSConfig) cors.Config {
	c := cors.Config{
		AllowMethods:  orDefault(cfg.AllowedMethods, defaultMethods),
		AllowHeaders:  withRequired(orDefault(cfg.AllowedHeaders, defaultHeaders), requiredHeaders),
		ExposeHeaders: exposedHeaders,
		AllowWildcard: true,
		MaxAge:        cfg.MaxAge,
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 12 * time.Hour
	}

	origins := orDefault(cfg.AllowedOrigins, devOrigins)
	if slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	c.AllowCredentials = true
	return c
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return slices.Clone(fallback)
	}
	return slices.Clone(values)
}

func withRequired(values, required []string) []string {
	for _, h := range required {
		if !slices.ContainsFunc(values, func(v string) bool { return http.CanonicalHeaderKey(v) == http.CanonicalHeaderKey(h) }) {
			values = append(values, h)
		}
	}
	return values
}
