package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/bloquito/pkg/config"
)

// The widget is embedded in third-party pages and only reads and deletes
// its own history, so the defaults stay narrow.
var (
	defaultCORSMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	defaultCORSHeaders = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
)

const defaultCORSMaxAge = 86400

// NewCORS builds the CORS middleware from config, filling unset lists with
// the widget defaults. Credentials are never combined with a wildcard
// origin.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := orDefault(cfg.AllowedOrigins, []string{"*"})
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = defaultCORSMaxAge
	}

	credentials := cfg.Credentials
	for _, o := range origins {
		if o == "*" {
			credentials = false
		}
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ","),
		AllowHeaders:     strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ","),
		ExposeHeaders:    strings.Join(cfg.ExposeHeaders, ","),
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}
