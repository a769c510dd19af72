package middleware

import (
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"github.com/yourusername/ember/core"
)

// BasicAuth returns a middleware verifying each request carries the given
// username and password via RFC 7617 Basic authentication.
//
// NEVER hardcode credentials that reach source control, and never rely on
// Basic auth over plain HTTP: the credentials are base64, not encrypted.
//
// Example:
//
//	app.Use(BasicAuthWithConfig(BasicAuthConfig{
//	    Credentials: []Credential{{Username: "admin", Password: "hunter2"}},
//	    SkipPaths:   []string{"/health"},
//	}))
func BasicAuth(username, password string) core.Middleware {
	return BasicAuthWithConfig(BasicAuthConfig{
		Credentials: []Credential{{Username: username, Password: password}},
	})
}

// Credential is one accepted username/password pair.
type Credential struct {
	Username string
	Password string
}

// BasicAuthConfig configures the BasicAuth middleware.
type BasicAuthConfig struct {
	// Credentials lists every accepted username/password pair. A request
	// matching any one of them is authenticated.
	Credentials []Credential

	// Realm is sent in the WWW-Authenticate challenge. Default: "Secure Area".
	Realm string

	// SkipPaths are paths excluded from authentication.
	SkipPaths []string
}

// BasicAuthWithConfig returns a middleware with custom configuration.
func BasicAuthWithConfig(config BasicAuthConfig) core.Middleware {
	if config.Realm == "" {
		config.Realm = "Secure Area"
	}

	skipMap := make(map[string]bool, len(config.SkipPaths))
	for _, path := range config.SkipPaths {
		skipMap[path] = true
	}

	challenge := `Basic realm="` + config.Realm + `"`

	return func(next core.Handler) core.Handler {
		return func(c *core.Context) error {
			if skipMap[c.Path()] {
				return next(c)
			}

			username, password, ok := parseBasicAuth(c.GetHeader("Authorization"))
			if !ok || !matchesAny(config.Credentials, username, password) {
				c.SetHeader("WWW-Authenticate", challenge)
				return c.JSON(401, map[string]string{
					"error": "unauthorized",
				})
			}

			return next(c)
		}
	}
}

// parseBasicAuth decodes an "Authorization: Basic <base64>" header into its
// username/password pair.
func parseBasicAuth(header string) (username, password string, ok bool) {
	const prefix = "Basic "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	credential := string(decoded)
	idx := strings.IndexByte(credential, ':')
	if idx < 0 {
		return "", "", false
	}

	return credential[:idx], credential[idx+1:], true
}

// matchesAny reports whether username/password match one of the configured
// credentials, comparing in constant time to avoid leaking a match via
// timing.
func matchesAny(credentials []Credential, username, password string) bool {
	for _, cred := range credentials {
		userMatch := subtle.ConstantTimeCompare([]byte(cred.Username), []byte(username)) == 1
		passMatch := subtle.ConstantTimeCompare([]byte(cred.Password), []byte(password)) == 1
		if userMatch && passMatch {
			return true
		}
	}
	return false
}
