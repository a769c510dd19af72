package core

import (
	"context"
	"errors"
)

// HTTPMethod represents an HTTP method.
type HTTPMethod string

// HTTP methods supported by Ember.
const (
	MethodGet     HTTPMethod = "GET"
	MethodPost    HTTPMethod = "POST"
	MethodPut     HTTPMethod = "PUT"
	MethodDelete  HTTPMethod = "DELETE"
	MethodPatch   HTTPMethod = "PATCH"
	MethodHead    HTTPMethod = "HEAD"
	MethodOptions HTTPMethod = "OPTIONS"
	MethodConnect HTTPMethod = "CONNECT"
	MethodTrace   HTTPMethod = "TRACE"
)

// Handler defines a standard request handler function.
//
// Handlers receive a Context and return an error. If an error is returned,
// the framework's error handler processes it.
//
// Example:
//
//	func getUser(c *ember.Context) error {
//	    user, err := db.GetUser(c.Param("id"))
//	    if err != nil {
//	        return err
//	    }
//	    return c.JSON(200, user)
//	}
type Handler func(*Context) error

// Fang wraps a Handler to provide cross-cutting functionality: a request
// interceptor that sits in front of (and, by calling next, behind) a
// handler. "Fang" is this framework's name for what other frameworks call
// middleware — the usage is identical, nesting front-to-back around one
// request.
//
// A fang can:
//   - Run code before the handler (authentication, logging)
//   - Run code after the handler (response modification, cleanup)
//   - Short-circuit the handler (return early, never calling next)
//   - Modify the context (add values, set headers)
//
// Example:
//
//	func Logger() Fang {
//	    return func(next Handler) Handler {
//	        return func(c *Context) error {
//	            start := time.Now()
//	            err := next(c)
//	            log.Printf("%s %s - %v", c.Method(), c.Path(), time.Since(start))
//	            return err
//	        }
//	    }
//	}
type Fang func(Handler) Handler

// Middleware is an alias for Fang, kept for callers more comfortable with
// the conventional name. Both identify the same composition contract.
type Middleware = Fang

// FromParam extracts a typed value out of a single named path parameter.
// A handler argument type implements this to opt into automatic binding
// via Context.BindParam instead of reading Context.Param and parsing by
// hand.
type FromParam interface {
	FromParam(raw string) error
}

// FromRequest extracts a typed value from request-level data — path
// parameters, the query string, and headers — considered together. This
// is the right contract for a type that needs more than one source, e.g.
// a pagination cursor built from both a query parameter and a header.
type FromRequest interface {
	FromRequest(c *Context) error
}

// FromBody extracts a typed value by deserializing the request body. The
// contentType argument is the request's Content-Type header (may be
// empty); implementations that only understand one encoding should
// reject anything else with ErrBadRequest.
type FromBody interface {
	FromBody(body []byte, contentType string) error
}

// IntoResponse converts an application-level value directly into a wire
// response by writing to c. Handlers that return a type implementing
// IntoResponse from a generic Respond call get full control over status,
// headers, and body shape without going through JSON/Text/HTML.
type IntoResponse interface {
	IntoResponse(c *Context) error
}

// IntoBody converts an application-level value into response body bytes
// and reports the Content-Type that should accompany them. Simpler than
// IntoResponse: IntoBody only decides the body, Context.Respond still
// owns status code and header writing.
type IntoBody interface {
	IntoBody() (body []byte, contentType string, err error)
}

// ErrorHandler handles errors returned by handlers.
//
// The default error handler sends a 500 Internal Server Error response.
// Custom error handlers can provide more sophisticated error handling.
//
// Example:
//
//	func customErrorHandler(c *Context, err error) {
//	    if errors.Is(err, ErrNotFound) {
//	        c.JSON(404, map[string]string{"error": "not found"})
//	        return
//	    }
//	    c.JSON(500, map[string]string{"error": "internal server error"})
//	}
type ErrorHandler func(*Context, error)

// Common errors returned by the framework.
//
// These map onto the five categories of error a request can fail with,
// ordered by where in the pipeline they originate:
//
//  1. Protocol  — malformed request line, oversized headers, unknown method.
//     Handled entirely inside internal/wire/transport before a Context
//     ever exists; surfaced here only so an ErrorHandler can recognize the
//     status if it inspects a propagated error.
//  2. Routing   — no matching route. ErrNotFound.
//  3. Extraction — a handler argument couldn't be produced from the request.
//     ErrBadRequest (malformed param/body), ErrUnauthorized (missing/invalid
//     credentials).
//  4. Handler   — application code returned an error deliberately.
//  5. Panic     — never modeled as an error value; the connection layer
//     converts an unrecovered panic into a closed connection
//     (wire.ErrHandlerPanic), not a status code, unless Recovery middleware
//     is installed to translate it into one.
var (
	// ErrNotFound is returned when a resource is not found.
	ErrNotFound = errors.New("not found")

	// ErrBadRequest is returned for malformed requests.
	ErrBadRequest = errors.New("bad request")

	// ErrUnauthorized is returned for authentication failures.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned for authorization failures.
	ErrForbidden = errors.New("forbidden")

	// ErrMethodNotAllowed is returned when HTTP method is not supported.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRequestTooLarge is returned when request body exceeds limits.
	ErrRequestTooLarge = errors.New("request too large")

	// ErrHeaderFieldsTooLarge is returned when request headers exceed the
	// configured size budget. Protocol-category error, 431.
	ErrHeaderFieldsTooLarge = errors.New("request header fields too large")

	// ErrNotImplemented is returned when a request uses a method the
	// framework recognizes but does not support handling. Protocol-category
	// error, 501.
	ErrNotImplemented = errors.New("not implemented")

	// ErrGatewayTimeout is returned by the Timeout middleware when a
	// handler doesn't finish inside its deadline. 504, not 408: the
	// request itself was received fine.
	ErrGatewayTimeout = errors.New("gateway timeout")

	// ErrInternalServerError is returned for internal errors.
	ErrInternalServerError = errors.New("internal server error")
)

// RouteInfo contains metadata about a registered route.
type RouteInfo struct {
	Method  HTTPMethod
	Path    string
	Handler Handler
}

// ChainLink allows fluent API for route configuration.
//
// Example:
//
//	app.Get("/users", listUsers).
//	    Use(AuthMiddleware()).
//	    Use(RateLimitMiddleware())
type ChainLink struct {
	app       *App
	lastRoute *RouteInfo
}

// Use adds middleware to the last registered route.
//
// Example:
//
//	app.Get("/admin", adminHandler).
//	    Use(AuthMiddleware()).
//	    Use(AdminMiddleware())
func (cl *ChainLink) Use(middleware ...Middleware) *ChainLink {
	if cl.lastRoute != nil && cl.app != nil {
		// Wrap the handler with middleware (in reverse order)
		handler := cl.lastRoute.Handler
		for i := len(middleware) - 1; i >= 0; i-- {
			handler = middleware[i](handler)
		}
		cl.lastRoute.Handler = handler

		// Re-register the route with the updated handler
		// This overwrites the previous registration
		cl.app.router.Add(cl.lastRoute.Method, cl.lastRoute.Path, handler)
	}
	return cl
}

// Config holds application configuration.
type Config struct {
	// Server address (default: ":8080")
	Addr string

	// Error handler (default: DefaultErrorHandler)
	ErrorHandler ErrorHandler

	// Context for graceful shutdown
	ShutdownContext context.Context

	// Maximum request body size (default: 10MB)
	// Uses int to match Ember's Config type
	MaxRequestBodySize int

	// Enable request logging (default: false)
	EnableLogging bool

	// Disable stats collection for zero-allocation mode
	DisableStats bool

	// Use lock-free router (optional, disabled by default)
	// Lock-free router uses atomic.Value for zero-contention reads
	// Phase 2 testing showed RWMutex router is faster for most workloads
	// Set to true for experimentation or high-concurrency edge cases
	// Recommended: false (default) for best performance
	UseLockFreeRouter bool
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		ErrorHandler:       DefaultErrorHandler,
		MaxRequestBodySize: 10 << 20, // 10MB
		EnableLogging:      false,
		DisableStats:       true,  // Zero-allocation mode by default
		UseLockFreeRouter:  false, // RWMutex router (faster for most workloads)
	}
}

// DefaultErrorHandler is the default error handler.
//
// It sends a 500 Internal Server Error for all errors.
// Override with custom error handler for better error handling.
func DefaultErrorHandler(c *Context, err error) {
	// Map common errors to HTTP status codes
	status := 500
	message := "Internal Server Error"

	switch {
	case errors.Is(err, ErrNotFound):
		status = 404
		message = "Not Found"
	case errors.Is(err, ErrBadRequest):
		status = 400
		message = "Bad Request"
	case errors.Is(err, ErrUnauthorized):
		status = 401
		message = "Unauthorized"
	case errors.Is(err, ErrForbidden):
		status = 403
		message = "Forbidden"
	case errors.Is(err, ErrMethodNotAllowed):
		status = 405
		message = "Method Not Allowed"
	case errors.Is(err, ErrRequestTooLarge):
		status = 413
		message = "Request Too Large"
	case errors.Is(err, ErrHeaderFieldsTooLarge):
		status = 431
		message = "Request Header Fields Too Large"
	case errors.Is(err, ErrNotImplemented):
		status = 501
		message = "Not Implemented"
	case errors.Is(err, ErrGatewayTimeout):
		status = 504
		message = "Gateway Timeout"
	}

	// Send JSON error response
	c.JSON(status, map[string]string{
		"error": message,
	})
}
