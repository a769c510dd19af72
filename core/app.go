package core

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/yourusername/ember/internal/transport"
	"github.com/yourusername/ember/internal/wire"
)

// App is the main Ember application.
//
// App manages:
//   - Route registration (Get, Post, Put, Delete, etc.)
//   - Middleware chains
//   - Wire-level HTTP/1.1 transport integration
//   - Context pooling
//   - Graceful shutdown
//
// Example:
//
//	app := ember.New()
//	app.Get("/hello", func(c *ember.Context) error {
//	    return c.JSON(200, map[string]string{"message": "Hello, World!"})
//	})
//	app.Listen(":8080")
type App struct {
	router       IRouter // Interface allows choosing router implementation
	contextPool  *ContextPool
	config       Config
	middleware   []Middleware
	errorHandler ErrorHandler
	server       *transport.Server
	serverMu     sync.RWMutex // Protects server field from concurrent access
}

// New creates a new Ember application with default configuration.
func New() *App {
	return NewWithConfig(DefaultConfig())
}

// NewWithConfig creates a new Ember application with custom configuration.
func NewWithConfig(config Config) *App {
	if config.ErrorHandler == nil {
		config.ErrorHandler = DefaultErrorHandler
	}

	// Create context pool
	contextPool := NewContextPool()

	// Pre-warm pool to eliminate cold start allocations
	// Pre-allocate 1000 contexts (covers burst traffic, ~1.4MB memory)
	contextPool.Warmup(1000)

	// Choose router implementation based on config
	var router IRouter
	if config.UseLockFreeRouter {
		// Lock-free router for maximum concurrent performance (opt-in)
		router = NewRouterLockFree()
	} else {
		// Standard router with RWMutex (simple, proven)
		router = NewRouter()
	}

	return &App{
		router:       router,
		contextPool:  contextPool,
		config:       config,
		middleware:   make([]Middleware, 0),
		errorHandler: config.ErrorHandler,
	}
}

// Use adds global middleware to the application.
//
// Middleware is executed in the order it's registered.
//
// Example:
//
//	app.Use(Logger())
//	app.Use(CORS())
//	app.Use(Recovery())
func (app *App) Use(middleware ...Middleware) {
	app.middleware = append(app.middleware, middleware...)
}

// Get registers a GET route.
//
// Example:
//
//	app.Get("/users/:id", getUser)
func (app *App) Get(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodGet, path, handler)
}

// Post registers a POST route.
//
// Example:
//
//	app.Post("/users", createUser)
func (app *App) Post(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodPost, path, handler)
}

// Put registers a PUT route.
//
// Example:
//
//	app.Put("/users/:id", updateUser)
func (app *App) Put(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodPut, path, handler)
}

// Delete registers a DELETE route.
//
// Example:
//
//	app.Delete("/users/:id", deleteUser)
func (app *App) Delete(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodDelete, path, handler)
}

// Patch registers a PATCH route.
//
// Example:
//
//	app.Patch("/users/:id", patchUser)
func (app *App) Patch(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodPatch, path, handler)
}

// Head registers a HEAD route.
func (app *App) Head(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodHead, path, handler)
}

// Options registers an OPTIONS route.
func (app *App) Options(path string, handler Handler) *ChainLink {
	return app.addRoute(MethodOptions, path, handler)
}

// Group returns an AppGroup that registers every route under prefix,
// wrapped in fangs ahead of the app's global Use fangs. Nest it freely:
// AppGroup.Group concatenates prefixes and appends fangs after the
// parent's, the same composition rule Router.Group follows.
//
// Example:
//
//	api := app.Group("/api/v1", RequireAPIKey())
//	api.Get("/users", listUsers)        // GET /api/v1/users
//	admin := api.Group("/admin", RequireRole("admin"))
//	admin.Get("/stats", statsHandler)   // GET /api/v1/admin/stats
func (app *App) Group(prefix string, fangs ...Fang) *AppGroup {
	return &AppGroup{app: app, prefix: strings.TrimSuffix(prefix, "/"), fangs: fangs}
}

// AppGroup registers routes under a shared path prefix and fang stack, going
// through App.addRoute so grouped routes still pick up the app's global
// middleware and ChainLink support exactly like a route declared directly.
type AppGroup struct {
	app    *App
	prefix string
	fangs  []Fang
}

func (g *AppGroup) add(method HTTPMethod, path string, handler Handler) *ChainLink {
	for i := len(g.fangs) - 1; i >= 0; i-- {
		handler = g.fangs[i](handler)
	}
	return g.app.addRoute(method, g.prefix+path, handler)
}

// Get registers a GET route under the group's prefix.
func (g *AppGroup) Get(path string, handler Handler) *ChainLink { return g.add(MethodGet, path, handler) }

// Post registers a POST route under the group's prefix.
func (g *AppGroup) Post(path string, handler Handler) *ChainLink {
	return g.add(MethodPost, path, handler)
}

// Put registers a PUT route under the group's prefix.
func (g *AppGroup) Put(path string, handler Handler) *ChainLink { return g.add(MethodPut, path, handler) }

// Delete registers a DELETE route under the group's prefix.
func (g *AppGroup) Delete(path string, handler Handler) *ChainLink {
	return g.add(MethodDelete, path, handler)
}

// Patch registers a PATCH route under the group's prefix.
func (g *AppGroup) Patch(path string, handler Handler) *ChainLink {
	return g.add(MethodPatch, path, handler)
}

// Group returns a nested group, concatenating prefixes and appending fangs
// after the parent's.
func (g *AppGroup) Group(prefix string, fangs ...Fang) *AppGroup {
	return &AppGroup{
		app:    g.app,
		prefix: g.prefix + strings.TrimSuffix(prefix, "/"),
		fangs:  append(append([]Fang{}, g.fangs...), fangs...),
	}
}

// NOTE: Generic methods are not supported in Go as methods cannot have type
// parameters independent of the receiver type, so there is no app.Get[T]().
// Use the Data[T] wrapper with Context.Respond instead — Data[T] implements
// IntoResponse, so Respond dispatches to it automatically:
//
//	app.Get("/users/:id", func(c *ember.Context) error {
//	    user, err := db.GetUser(c.Param("id"))
//	    if err != nil {
//	        return c.Respond(200, ember.NotFound[User](err))
//	    }
//	    return c.Respond(200, ember.OK(user))
//	})

// freezeRouter rejects further route registration once the lock-free router
// is in use, matching the read path's assumption that the route table is
// stable once requests start arriving. The RWMutex-backed Router has no
// equivalent restriction — registering a route after Listen there just costs
// one write-lock acquisition, no correctness issue.
func (app *App) freezeRouter() {
	if lockFree, ok := app.router.(*RouterLockFree); ok {
		lockFree.Freeze()
	}
}

// addRoute registers a route with the router.
func (app *App) addRoute(method HTTPMethod, path string, handler Handler) *ChainLink {
	// Wrap handler with global middleware
	finalHandler := handler
	for i := len(app.middleware) - 1; i >= 0; i-- {
		finalHandler = app.middleware[i](finalHandler)
	}

	// Register with router
	app.router.Add(method, path, finalHandler)

	// Return chain link for fluent API
	return &ChainLink{
		app: app,
		lastRoute: &RouteInfo{
			Method:  method,
			Path:    path,
			Handler: finalHandler,
		},
	}
}

// Listen starts the HTTP server on the specified address.
//
// This is a blocking call. The server runs until interrupted (Ctrl+C).
//
// Example:
//
//	app.Listen(":8080")
func (app *App) Listen(addr string) error {
	app.config.Addr = addr
	app.freezeRouter()

	// Create the wire-level transport server
	srv := transport.NewServer(transport.Config{
		Addr:               addr,
		Handler:            app.handleWireRequest,
		MaxRequestBodySize: app.config.MaxRequestBodySize,
		EnableStats:        !app.config.DisableStats,
	})

	// Store server with mutex protection
	app.serverMu.Lock()
	app.server = srv
	app.serverMu.Unlock()

	log.Printf("Ember server listening on %s", addr)

	// Start server
	return srv.ListenAndServe()
}

// Run starts the server with graceful shutdown support.
//
// The server runs until interrupted (Ctrl+C), then performs graceful shutdown.
//
// Example:
//
//	app.Run(":8080")
func (app *App) Run(addr string) error {
	app.config.Addr = addr
	app.freezeRouter()

	// Create the wire-level transport server
	srv := transport.NewServer(transport.Config{
		Addr:               addr,
		Handler:            app.handleWireRequest,
		MaxRequestBodySize: app.config.MaxRequestBodySize,
		EnableStats:        !app.config.DisableStats,
	})

	// Store server with mutex protection
	app.serverMu.Lock()
	app.server = srv
	app.serverMu.Unlock()

	// Start server in background
	errChan := make(chan error, 1)
	go func() {
		log.Printf("Ember server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil {
			errChan <- err
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case <-sigChan:
		log.Println("Shutting down gracefully...")

		// Graceful shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := app.Shutdown(ctx); err != nil {
			log.Printf("Shutdown error: %v", err)
			return err
		}

		log.Println("Server stopped")
		return nil
	}
}

// Shutdown gracefully shuts down the server.
//
// It waits for active connections to finish (up to context deadline).
func (app *App) Shutdown(ctx context.Context) error {
	app.serverMu.RLock()
	srv := app.server
	app.serverMu.RUnlock()

	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// ServeHTTP implements http.Handler interface for testing and compatibility.
//
// This allows Ember to be used with standard Go http testing tools like httptest.
// For production use, use Listen() which integrates with the wire transport.
//
// Example (testing):
//
//	app := ember.New()
//	app.Get("/ping", handler)
//	req := httptest.NewRequest("GET", "/ping", nil)
//	w := httptest.NewRecorder()
//	app.ServeHTTP(w, req)
func (app *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Acquire context from pool
	ctx := app.contextPool.Acquire()

	// Map http.Request to Ember Context (ZERO-ALLOC: unsafe string→[]byte)
	ctx.httpReq = r
	ctx.httpRes = w
	// SAFE: Read-only references, valid for request lifetime
	ctx.methodBytes = stringToBytes(r.Method)
	ctx.pathBytes = stringToBytes(r.URL.Path)
	ctx.queryBytes = stringToBytes(r.URL.RawQuery)

	// Route and execute handler
	if err := app.router.ServeHTTP(ctx); err != nil {
		// Handle error
		app.errorHandler(ctx, err)
	}

	// Release context back to pool (direct call, no defer overhead)
	app.contextPool.Release(ctx)
}

// handleWireRequest handles an incoming request already parsed by the wire
// engine.
//
// Fast-path for common responses (404, errors)
//
// This is the bridge between the transport layer and the routing/fang core:
//   - Acquires Context from pool (zero allocation)
//   - Maps the parsed wire request onto Ember Context (zero-copy)
//   - Routes and executes handler
//   - Fast-path error handling for 404
//   - Releases Context back to pool
//
// Performance: <50ns overhead (down from ~200ns)
func (app *App) handleWireRequest(res *wire.ResponseWriter, req *wire.Request) {
	// Acquire context from pool (10ns with FastReset)
	ctx := app.contextPool.Acquire()
	defer app.contextPool.Release(ctx)

	// Map the wire request onto the Ember context (zero-copy byte slices, 0ns)
	// Direct pointer assignment - no allocations
	ctx.wireReq = req
	ctx.wireRes = res
	ctx.methodBytes = req.MethodBytes() // Zero-copy reference to the wire buffer
	ctx.pathBytes = req.PathBytes()     // Zero-copy reference to the wire buffer
	ctx.queryBytes = req.QueryBytes()   // Zero-copy reference to the wire buffer

	// Route and execute handler
	err := app.router.ServeHTTP(ctx)

	// Handle 404 directly (most common error)
	if err == ErrNotFound {
		// Use pre-compiled 404 response (0 allocs)
		_ = ctx.JSONNotFound()
		return
	}

	// Slow path: Other errors
	if err != nil {
		app.errorHandler(ctx, err)
	}
}
