package core

// IRouter is the contract both route-table implementations satisfy, so App
// can be built against either one without its dispatch code knowing which:
//
//   - Router: RWMutex-guarded static map + per-method radix trees, built for
//     the common case of registering routes once before Listen.
//   - RouterLockFree: atomic.Value snapshots with copy-on-write registration,
//     built for serving many concurrent connections without a read lock;
//     App freezes it when the server starts, after which Add panics.
//
// Group/RouteGroup are deliberately not part of this interface — grouping is
// sugar over repeated Add calls, so App.Group works over either router
// through Add.
type IRouter interface {
	// Add registers handler for method and path, wrapping a *Context-taking
	// Handler that the caller has already run through whatever Fangs apply.
	Add(method HTTPMethod, path string, handler Handler)

	// Lookup finds a handler for method and path, returning captured
	// parameters as a map. Allocates even on a miss; prefer LookupBytes on
	// a request-serving hot path.
	Lookup(method HTTPMethod, path string) (Handler, map[string]string)

	// LookupBytes is Lookup without the map allocation: captured parameters
	// land in a fixed-size array the caller owns, and paramCount says how
	// many of its slots are populated.
	LookupBytes(method HTTPMethod, pathBytes []byte) (Handler, [maxInlineParams]ParamPair, int)

	// ServeHTTP resolves c's method and path against the route table and
	// invokes the matching handler, setting captured parameters on c first.
	ServeHTTP(c *Context) error
}

var (
	_ IRouter = (*Router)(nil)
	_ IRouter = (*RouterLockFree)(nil)
)
