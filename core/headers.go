package core

// Pre-compiled header name/value constants avoid the allocation
// Header().Set() pays on every response: one for the canonical key lookup,
// one for the value string. A handful of headers (Content-Type, Server,
// Cache-Control, CORS) are set on nearly every response, so those get a
// direct, pre-built path instead.

// Header names, as byte slices for the wire response writer.
var (
	headerContentType              = []byte("Content-Type")
	headerServer                   = []byte("Server")
	headerCacheControl             = []byte("Cache-Control")
	headerAccessControlAllowOrigin = []byte("Access-Control-Allow-Origin")
)

// Content-Type values, as byte slices for the wire response writer.
var (
	contentTypeJSON = []byte("application/json")
	contentTypeText = []byte("text/plain; charset=utf-8")
	contentTypeHTML = []byte("text/html; charset=utf-8")
	contentTypeXML  = []byte("application/xml; charset=utf-8")
)

// Pre-allocated single-element []string slices, assigned directly into an
// http.Header map. http.Header is map[string][]string; writing one of
// these in place of calling Header().Set() skips textproto's canonical-key
// lookup and validation entirely, since the key "Content-Type" is already
// canonical and the value is already known-valid.
var (
	contentTypeJSONSlice = []string{"application/json"}
	contentTypeTextSlice = []string{"text/plain; charset=utf-8"}
	contentTypeHTMLSlice = []string{"text/html; charset=utf-8"}
)

// Other header values used often enough to pre-build.
var (
	serverEmber  = []byte("Ember")
	cacheNoCache = []byte("no-cache, no-store, must-revalidate")
	corsAllowAll = []byte("*")
)

// setContentTypeJSON sets Content-Type to application/json on whichever
// response backend c holds: net/http's Header map gets the pre-allocated
// slice written directly, the wire engine's header map gets the byte-slice
// constant, and test mode (no backend attached) gets a plain string map
// write.
//
//go:inline
func (c *Context) setContentTypeJSON() {
	if c.httpRes != nil {
		c.httpRes.Header()["Content-Type"] = contentTypeJSONSlice
		return
	}

	if c.wireRes != nil {
		_ = c.wireRes.Header().Set(headerContentType, contentTypeJSON)
		return
	}

	if c.testResHeaders == nil {
		c.testResHeaders = make(map[string]string, 4)
	}
	c.testResHeaders["Content-Type"] = "application/json"
}

// setContentTypeText sets Content-Type to text/plain; charset=utf-8.
//
//go:inline
func (c *Context) setContentTypeText() {
	if c.httpRes != nil {
		c.httpRes.Header()["Content-Type"] = contentTypeTextSlice
		return
	}
	if c.wireRes != nil {
		_ = c.wireRes.Header().Set(headerContentType, contentTypeText)
		return
	}
	if c.testResHeaders == nil {
		c.testResHeaders = make(map[string]string, 4)
	}
	c.testResHeaders["Content-Type"] = "text/plain; charset=utf-8"
}

// setContentTypeHTML sets Content-Type to text/html; charset=utf-8.
//
//go:inline
func (c *Context) setContentTypeHTML() {
	if c.httpRes != nil {
		c.httpRes.Header()["Content-Type"] = contentTypeHTMLSlice
		return
	}
	if c.wireRes != nil {
		_ = c.wireRes.Header().Set(headerContentType, contentTypeHTML)
		return
	}
	if c.testResHeaders == nil {
		c.testResHeaders = make(map[string]string, 4)
	}
	c.testResHeaders["Content-Type"] = "text/html; charset=utf-8"
}

// setContentTypeXML sets Content-Type to application/xml; charset=utf-8.
func (c *Context) setContentTypeXML() {
	c.SetHeaderBytes(headerContentType, contentTypeXML)
}

// SetServerHeader sets the Server response header to "Ember".
func (c *Context) SetServerHeader() {
	c.SetHeaderBytes(headerServer, serverEmber)
}

// SetNoCacheHeaders sets Cache-Control to prevent any caching of the
// response.
func (c *Context) SetNoCacheHeaders() {
	c.SetHeaderBytes(headerCacheControl, cacheNoCache)
}

// SetCORSAllowAll sets Access-Control-Allow-Origin to "*".
func (c *Context) SetCORSAllowAll() {
	c.SetHeaderBytes(headerAccessControlAllowOrigin, corsAllowAll)
}
