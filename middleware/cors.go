package middleware

import (
	"strconv"
	"strings"

	"github.com/yourusername/ember/core"
)

// CORSConfig defines configuration for the CORS fang.
type CORSConfig struct {
	// AllowOrigins is a list of allowed origins. ["*"] allows all (default).
	AllowOrigins []string

	// AllowMethods is a list of allowed HTTP methods.
	// Default: ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"]
	AllowMethods []string

	// AllowHeaders is a list of allowed request headers. ["*"] allows all (default).
	AllowHeaders []string

	// ExposeHeaders is a list of headers exposed to the client. Default: none.
	ExposeHeaders []string

	// AllowCredentials indicates whether credentials are allowed.
	// If true, AllowOrigins cannot be ["*"] per the Fetch spec, though this
	// package does not enforce that — it's the caller's responsibility.
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Default: 86400.
	MaxAge int
}

// DefaultCORSConfig returns the configuration CORS() uses.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"},
		AllowHeaders: []string{"*"},
		MaxAge:       86400,
	}
}

// corsPolicy is CORSConfig compiled into the form the fang actually checks
// against on every request: pre-joined header values and an origin set
// instead of a slice, so neither is rebuilt per request.
type corsPolicy struct {
	allowAllOrigins  bool
	origins          map[string]bool
	allowMethods     string
	allowHeaders     string
	exposeHeaders    string
	maxAge           string
	allowCredentials bool
}

func compileCORSPolicy(config CORSConfig) corsPolicy {
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"*"}
	}
	if len(config.AllowMethods) == 0 {
		config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "HEAD", "OPTIONS"}
	}
	if len(config.AllowHeaders) == 0 {
		config.AllowHeaders = []string{"*"}
	}
	if config.MaxAge == 0 {
		config.MaxAge = 86400
	}

	policy := corsPolicy{
		allowMethods:     strings.Join(config.AllowMethods, ", "),
		allowHeaders:     strings.Join(config.AllowHeaders, ", "),
		exposeHeaders:    strings.Join(config.ExposeHeaders, ", "),
		maxAge:           strconv.Itoa(config.MaxAge),
		allowCredentials: config.AllowCredentials,
		origins:          make(map[string]bool, len(config.AllowOrigins)),
	}
	for _, origin := range config.AllowOrigins {
		if origin == "*" {
			policy.allowAllOrigins = true
			break
		}
		policy.origins[origin] = true
	}
	return policy
}

// resolve reports the Access-Control-Allow-Origin value for origin, or ""
// if origin isn't allowed (in which case no CORS headers should be set).
func (p corsPolicy) resolve(origin string) string {
	if p.allowAllOrigins {
		return "*"
	}
	if origin != "" && p.origins[origin] {
		return origin
	}
	return ""
}

// CORS returns a fang that handles Cross-Origin Resource Sharing using
// DefaultCORSConfig.
//
// Example:
//
//	app := ember.New()
//	app.Use(CORS())
//	app.Get("/api/users", getUsers)
func CORS() core.Middleware {
	return CORSWithConfig(DefaultCORSConfig())
}

// CORSWithConfig returns a CORS fang with custom configuration.
//
// Example:
//
//	app.Use(CORSWithConfig(CORSConfig{
//	    AllowOrigins:     []string{"https://example.com"},
//	    AllowCredentials: true,
//	}))
func CORSWithConfig(config CORSConfig) core.Middleware {
	policy := compileCORSPolicy(config)

	return func(next core.Handler) core.Handler {
		return func(c *core.Context) error {
			origin := c.GetHeader("Origin")
			allowOrigin := policy.resolve(origin)

			if allowOrigin != "" {
				c.SetHeader("Access-Control-Allow-Origin", allowOrigin)
				if policy.allowCredentials {
					c.SetHeader("Access-Control-Allow-Credentials", "true")
				}
				if policy.exposeHeaders != "" {
					c.SetHeader("Access-Control-Expose-Headers", policy.exposeHeaders)
				}
			}

			if c.Method() != "OPTIONS" {
				return next(c)
			}

			if allowOrigin != "" {
				c.SetHeader("Access-Control-Allow-Methods", policy.allowMethods)
				c.SetHeader("Access-Control-Allow-Headers", policy.allowHeaders)
				c.SetHeader("Access-Control-Max-Age", policy.maxAge)
			}
			return c.NoContent()
		}
	}
}
