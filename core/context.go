package core

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/yourusername/ember/internal/wire"
	"github.com/yourusername/ember/pool/buffers"
)

// Context carries one request/response pair through routing, extraction,
// and handler execution. Instances are pooled (see FastReset) and must
// never be retained past the handler that received them.
//
// The struct is arranged so the fields read on every request — the wire
// request/response pointers and the raw path/method/query byte views —
// sit in the first two cache lines, ahead of the lazily-populated string
// caches and the net/http-compatibility and unit-test fields.
// The inline param buffers are large (384 and 768 bytes) but accessed
// linearly, so they're pushed to the end where their size doesn't disturb
// the hot fields' cache locality.
type Context struct {
	wireReq *wire.Request
	wireRes *wire.ResponseWriter

	methodBytes []byte
	pathBytes   []byte

	queryBytes []byte
	store      map[string]interface{}

	params      map[string]string // overflow once paramsBuf's inline slots are exhausted
	queryParams map[string]string // overflow once queryParamsBuf's inline slots are exhausted

	paramsLen      int
	queryParamsLen int

	methodString string
	pathString   string
	queryString  string

	statusCode int
	written    bool

	stringsCached bool
	queryParsed   bool

	// httpReq/httpRes back Context when it's driven through ServeHTTP
	// (net/http compatibility mode) instead of the wire transport; nil in
	// production request handling.
	httpReq *http.Request
	httpRes http.ResponseWriter

	testReqHeaders map[string]string
	testResHeaders map[string]string

	paramsBuf [8]struct {
		keyBytes   []byte
		valueBytes []byte
	}

	queryParamsBuf [16]struct {
		keyBytes   []byte
		valueBytes []byte
	}
}

// MethodBytes returns the HTTP method as a zero-copy view valid only for
// the request's lifetime. Use Method if the value needs to outlive that.
func (c *Context) MethodBytes() []byte {
	return c.methodBytes
}

// Method returns the HTTP method (GET, POST, ...), allocating a string on
// first call and caching it for subsequent calls.
func (c *Context) Method() string {
	if !c.stringsCached {
		c.cacheStrings()
	}
	return c.methodString
}

// PathBytes returns the request path as a zero-copy view valid only for
// the request's lifetime. Use Path if the value needs to outlive that.
func (c *Context) PathBytes() []byte {
	return c.pathBytes
}

// Path returns the request path, allocating a string on first call and
// caching it for subsequent calls.
func (c *Context) Path() string {
	if !c.stringsCached {
		c.cacheStrings()
	}
	return c.pathString
}

// QueryBytes returns the raw query string (without the leading '?') as a
// zero-copy view valid only for the request's lifetime.
func (c *Context) QueryBytes() []byte {
	return c.queryBytes
}

func (c *Context) cacheStrings() {
	c.methodString = string(c.methodBytes)
	c.pathString = string(c.pathBytes)
	c.queryString = string(c.queryBytes)
	c.stringsCached = true
}

// paramsInlineCap is how many path parameters setParam/setParamBytes keep
// in paramsBuf before spilling the rest into the params map — kept below
// paramsBuf's full 8-slot capacity so the common case (≤4 params) never
// touches the map at all; ParamBytes/Param still scan the full buffer in
// case a caller populated it directly (see context_pool_test.go).
const paramsInlineCap = 4

// ParamBytes returns a path parameter as a zero-copy view valid only for
// the request's lifetime. Use Param if the value needs to outlive that.
func (c *Context) ParamBytes(key string) []byte {
	keyBytes := []byte(key)

	for i := 0; i < c.paramsLen && i < len(c.paramsBuf); i++ {
		if bytesEqual(c.paramsBuf[i].keyBytes, keyBytes) {
			return c.paramsBuf[i].valueBytes
		}
	}
	if c.params != nil {
		return []byte(c.params[key])
	}
	return nil
}

// Param returns a path parameter by name.
//
// For route "/users/:id", c.Param("id") returns the ID segment.
//
// Example:
//
//	app.Get("/users/:id", func(c *Context) error {
//	    id := c.Param("id")
//	    return c.JSON(200, map[string]string{"id": id})
//	})
func (c *Context) Param(key string) string {
	keyBytes := stringToBytes(key) // read-only use; never retained past this call

	for i := 0; i < c.paramsLen && i < len(c.paramsBuf); i++ {
		if bytesEqual(c.paramsBuf[i].keyBytes, keyBytes) {
			return bytesToString(c.paramsBuf[i].valueBytes) // backed by paramsBuf, lives for Context's lifetime
		}
	}
	if c.params != nil {
		return c.params[key]
	}
	return ""
}

//go:inline
func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// splitAmpersand splits query on its first '&', returning the pair before
// it and the remainder after. With no '&' present, pair is the whole
// input and rest is nil.
func splitAmpersand(query []byte) (pair, rest []byte) {
	if idx := bytes.IndexByte(query, '&'); idx >= 0 {
		return query[:idx], query[idx+1:]
	}
	return query, nil
}

// findQueryParam searches raw query bytes for a single "key=value" pair
// without parsing the rest of the query string — most requests read one
// or two params, so paying to populate a full map is wasted work. Returns
// nil if key isn't present; the caller falls back to parseQuery.
func findQueryParam(queryBytes, keyBytes []byte) []byte {
	if len(queryBytes) == 0 || len(keyBytes) == 0 {
		return nil
	}

	query := queryBytes
	keyLen := len(keyBytes)

	for len(query) > 0 {
		var pair []byte
		pair, query = splitAmpersand(query)

		if len(pair) <= keyLen {
			continue
		}
		if !bytesEqual(pair[:keyLen], keyBytes) {
			continue
		}
		if pair[keyLen] == '=' {
			return pair[keyLen+1:]
		}
	}

	return nil
}

// QueryParamBytes returns a query parameter as a zero-copy view valid
// only for the request's lifetime. Use Query if the value needs to
// outlive that.
func (c *Context) QueryParamBytes(key string) []byte {
	if !c.queryParsed {
		c.parseQuery()
	}

	keyBytes := []byte(key)

	for i := 0; i < c.queryParamsLen; i++ {
		if bytesEqual(c.queryParamsBuf[i].keyBytes, keyBytes) {
			return c.queryParamsBuf[i].valueBytes
		}
	}
	if c.queryParams != nil {
		return []byte(c.queryParams[key])
	}
	return nil
}

// Query returns a query parameter by name.
//
// For URL "/search?q=golang&limit=10", c.Query("q") returns "golang".
//
// Example:
//
//	app.Get("/search", func(c *Context) error {
//	    query := c.Query("q")
//	    limit := c.Query("limit")
//	    // ...
//	})
func (c *Context) Query(key string) string {
	// Try the raw bytes directly before paying to parse every param —
	// most handlers read one or two keys, not all of them.
	if !c.queryParsed && len(c.queryBytes) > 0 {
		keyBytes := stringToBytes(key)
		if valueBytes := findQueryParam(c.queryBytes, keyBytes); valueBytes != nil {
			return bytesToString(valueBytes)
		}
	}

	if !c.queryParsed {
		c.parseQuery()
	}

	keyBytes := stringToBytes(key)
	for i := 0; i < c.queryParamsLen; i++ {
		if bytesEqual(c.queryParamsBuf[i].keyBytes, keyBytes) {
			return bytesToString(c.queryParamsBuf[i].valueBytes)
		}
	}
	if c.queryParams != nil {
		return c.queryParams[key]
	}
	return ""
}

// QueryDefault returns a query parameter, or defaultValue if it's absent
// or empty.
func (c *Context) QueryDefault(key, defaultValue string) string {
	if value := c.Query(key); value != "" {
		return value
	}
	return defaultValue
}

// GetHeader returns a request header value, reading from whichever
// backend c holds (wire request, net/http request, or test-mode header
// maps).
//
// Example:
//
//	auth := c.GetHeader("Authorization")
func (c *Context) GetHeader(key string) string {
	if c.httpReq != nil {
		return c.httpReq.Header.Get(key)
	}

	if c.wireReq != nil {
		val := c.wireReq.Header.Get([]byte(key))
		if val == nil {
			return ""
		}
		return string(val)
	}

	if c.testReqHeaders != nil {
		return c.testReqHeaders[key]
	}
	if c.testResHeaders != nil {
		return c.testResHeaders[key]
	}
	return ""
}

// SetHeader sets a response header.
//
// Example:
//
//	c.SetHeader("X-Custom-Header", "value")
func (c *Context) SetHeader(key, value string) {
	if c.httpRes != nil {
		c.httpRes.Header().Set(key, value)
		return
	}

	if c.wireRes != nil {
		_ = c.wireRes.Header().Set([]byte(key), []byte(value))
		return
	}

	if c.testResHeaders == nil {
		c.testResHeaders = make(map[string]string, 4)
	}
	c.testResHeaders[key] = value
}

// SetHeaderBytes is SetHeader for pre-built byte-slice constants (see
// headers.go) — it skips the string<->[]byte conversions SetHeader pays
// on every call, at the cost of requiring the caller already hold bytes.
func (c *Context) SetHeaderBytes(keyBytes, valueBytes []byte) {
	if c.httpRes != nil {
		// http.Header.Set copies both strings internally, so handing it a
		// temporary unsafe view of keyBytes/valueBytes is safe.
		c.httpRes.Header().Set(bytesToString(keyBytes), bytesToString(valueBytes))
		return
	}

	if c.wireRes != nil {
		_ = c.wireRes.Header().Set(keyBytes, valueBytes)
		return
	}

	if c.testResHeaders == nil {
		c.testResHeaders = make(map[string]string, 4)
	}
	c.testResHeaders[string(keyBytes)] = string(valueBytes)
}

// writeRaw sets the status and writes body through whichever response
// backend c holds — httpRes in net/http compatibility mode, wireRes in
// production — and marks the response written. With neither backend
// attached (a handler under unit test), it just records the status.
func (c *Context) writeRaw(status int, body []byte) error {
	c.statusCode = status
	c.written = true

	if c.httpRes != nil {
		c.httpRes.WriteHeader(status)
		_, err := c.httpRes.Write(body)
		return err
	}
	if c.wireRes != nil {
		c.wireRes.WriteHeader(status)
		_, err := c.wireRes.Write(body)
		return err
	}
	return nil
}

// writeWireOnly is writeRaw restricted to the wire transport: Text, HTML,
// NoContent, and JSONBytes don't support net/http compatibility mode, so
// outside the wire transport these just record the status without
// writing a body. A nil body writes an empty one (NoContent's case).
func (c *Context) writeWireOnly(status int, body []byte) error {
	c.statusCode = status
	c.written = true

	if c.wireRes == nil {
		return nil
	}
	c.wireRes.WriteHeader(status)
	if body == nil {
		return nil
	}
	_, err := c.wireRes.Write(body)
	return err
}

// JSON marshals data with goccy/go-json into a pooled buffer and writes
// it with the given status. Buffer size is chosen per AcquireMediumJSONBuffer
// (8KB); use JSONLarge for responses that routinely exceed that.
//
// Example:
//
//	return c.JSON(200, map[string]string{"status": "ok"})
func (c *Context) JSON(status int, data interface{}) error {
	buf := buffers.AcquireMediumJSONBuffer()
	defer buffers.ReleaseJSONBuffer(buf)

	if err := json.NewEncoder(buf).Encode(data); err != nil {
		return err
	}

	c.setContentTypeJSON()
	return c.writeRaw(status, buf.Bytes())
}

// JSONLarge is JSON backed by a 64KB pooled buffer instead of 8KB, for
// payloads (pagination pages, large arrays) that would otherwise force
// repeated buffer growth.
//
// Example:
//
//	return c.JSONLarge(200, paginatedResults)
func (c *Context) JSONLarge(status int, data interface{}) error {
	buf := buffers.AcquireLargeJSONBuffer()
	defer buffers.ReleaseJSONBuffer(buf)

	if err := json.NewEncoder(buf).Encode(data); err != nil {
		return err
	}

	c.setContentTypeJSON()
	return c.writeRaw(status, buf.Bytes())
}

// JSONBytes writes pre-marshaled JSON bytes directly, skipping encoding
// entirely.
//
// Example:
//
//	var okResponse = []byte(`{"status":"ok"}`)
//	return c.JSONBytes(200, okResponse)
func (c *Context) JSONBytes(status int, data []byte) error {
	c.setContentTypeJSON()
	return c.writeWireOnly(status, data)
}

// Text sends a plain text response.
//
// Example:
//
//	return c.Text(200, "Hello, World!")
func (c *Context) Text(status int, text string) error {
	c.setContentTypeText()
	return c.writeWireOnly(status, []byte(text))
}

// HTML sends an HTML response.
//
// Example:
//
//	return c.HTML(200, "<h1>Hello, World!</h1>")
func (c *Context) HTML(status int, html string) error {
	c.setContentTypeHTML()
	return c.writeWireOnly(status, []byte(html))
}

// NoContent sends a 204 No Content response.
//
// Example:
//
//	return c.NoContent()
func (c *Context) NoContent() error {
	return c.writeWireOnly(204, nil)
}

// BindJSON decodes the request body as JSON into v, rejecting unknown
// fields.
//
// Example:
//
//	type Request struct {
//	    Name string `json:"name"`
//	}
//	var req Request
//	if err := c.BindJSON(&req); err != nil {
//	    return c.JSON(400, map[string]string{"error": "invalid json"})
//	}
func (c *Context) BindJSON(v interface{}) error {
	if c.wireReq == nil || c.wireReq.Body == nil {
		return ErrBadRequest
	}

	decoder := json.NewDecoder(c.wireReq.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Bind extracts a handler argument from the request body, dispatching on
// what v implements rather than assuming JSON:
//
//   - if v implements FromBody, its FromBody method runs directly against
//     the raw body bytes and the request's Content-Type;
//   - otherwise Bind falls back to BindJSON, so existing callers that pass
//     a plain struct pointer keep working unchanged.
//
// This is the extraction-contract counterpart to BindJSON: BindJSON always
// decodes JSON, Bind lets the destination type decide its own wire format.
func (c *Context) Bind(v interface{}) error {
	if extractor, ok := v.(FromBody); ok {
		if c.wireReq == nil || c.wireReq.Body == nil {
			return ErrBadRequest
		}
		body, err := io.ReadAll(c.wireReq.Body)
		if err != nil {
			return ErrBadRequest
		}
		return extractor.FromBody(body, c.GetHeader("Content-Type"))
	}
	return c.BindJSON(v)
}

// BindParam extracts a single named path parameter into dst via dst's
// FromParam method. Returns ErrBadRequest if the parameter is missing or
// dst rejects the raw value.
//
// Example:
//
//	var id UserID // implements FromParam
//	if err := c.BindParam("id", &id); err != nil {
//	    return err
//	}
func (c *Context) BindParam(name string, dst FromParam) error {
	raw := c.Param(name)
	if raw == "" {
		return ErrBadRequest
	}
	if err := dst.FromParam(raw); err != nil {
		return ErrBadRequest
	}
	return nil
}

// Respond writes v to the response, dispatching on what v implements:
//
//   - IntoResponse gets full control (status, headers, body);
//   - IntoBody supplies body bytes and a Content-Type, Respond writes them
//     with the given status;
//   - anything else is marshaled as JSON with the given status, matching
//     c.JSON's behavior.
//
// This is the generic counterpart to calling c.JSON/c.Text/c.HTML directly:
// a handler that wants callers to control their own wire representation
// returns a type implementing IntoResponse or IntoBody instead.
func (c *Context) Respond(status int, v interface{}) error {
	if responder, ok := v.(IntoResponse); ok {
		return responder.IntoResponse(c)
	}
	if body, ok := v.(IntoBody); ok {
		data, contentType, err := body.IntoBody()
		if err != nil {
			return err
		}
		if contentType != "" {
			c.SetHeader("Content-Type", contentType)
		}
		return c.JSONBytes(status, data)
	}
	return c.JSON(status, v)
}

// Set stores a value in the context for later retrieval with Get — the
// usual way middleware passes data downstream to handlers.
//
// Example:
//
//	// In middleware
//	c.Set("user", user)
//
//	// In handler
//	user := c.Get("user").(User)
func (c *Context) Set(key string, value interface{}) {
	if c.store == nil {
		c.store = make(map[string]interface{}, 4)
	}
	c.store[key] = value
}

// Get retrieves a value previously stored with Set, or nil if absent.
func (c *Context) Get(key string) interface{} {
	if c.store == nil {
		return nil
	}
	return c.store[key]
}

// MustGet retrieves a value stored with Set, panicking if it isn't
// present.
func (c *Context) MustGet(key string) interface{} {
	if c.store == nil {
		panic("key not found: " + key)
	}
	value, ok := c.store[key]
	if !ok {
		panic("key not found: " + key)
	}
	return value
}

// StatusCode returns the status code of the response written so far.
func (c *Context) StatusCode() int {
	return c.statusCode
}

// Written reports whether a response has already been written.
func (c *Context) Written() bool {
	return c.written
}

// setParam records a path parameter by name (internal, called by the
// router). Routes with more than 4 parameters spill into c.params.
//
// NOTE: prefer setParamBytes, which avoids the two string allocations
// this incurs.
func (c *Context) setParam(key, val string) {
	c.setParamBytes([]byte(key), []byte(val))
}

// setParamBytes is setParam for zero-copy byte slices sourced from the
// router's path buffer (internal, called by the router). The slices must
// stay valid for the Context's lifetime — the router guarantees this by
// slicing the request path buffer rather than a temporary.
func (c *Context) setParamBytes(keyBytes, valBytes []byte) {
	if c.paramsLen < paramsInlineCap {
		c.paramsBuf[c.paramsLen] = struct {
			keyBytes   []byte
			valueBytes []byte
		}{keyBytes: keyBytes, valueBytes: valBytes}
		c.paramsLen++
		return
	}

	if c.params == nil {
		c.params = make(map[string]string, 8)
		for i := 0; i < paramsInlineCap; i++ {
			c.params[string(c.paramsBuf[i].keyBytes)] = string(c.paramsBuf[i].valueBytes)
		}
	}
	c.params[string(keyBytes)] = string(valBytes)
}

// parseQuery parses c.queryBytes into queryParamsBuf (and, past 16 params,
// into the queryParams overflow map). Called lazily on the first Query
// access that isn't satisfied by findQueryParam's single-key fast path.
func (c *Context) parseQuery() {
	if c.queryParsed {
		return
	}
	c.queryParsed = true

	if c.httpReq != nil {
		c.queryParams = make(map[string]string, 4)
		for key, values := range c.httpReq.URL.Query() {
			if len(values) > 0 {
				c.queryParams[key] = values[0]
			}
		}
		return
	}

	query := c.queryBytes
	if len(query) == 0 {
		return
	}

	for len(query) > 0 && c.queryParamsLen < len(c.queryParamsBuf) {
		var pair []byte
		pair, query = splitAmpersand(query)

		if eqIdx := bytes.IndexByte(pair, '='); eqIdx >= 0 {
			c.queryParamsBuf[c.queryParamsLen] = struct {
				keyBytes   []byte
				valueBytes []byte
			}{keyBytes: pair[:eqIdx], valueBytes: pair[eqIdx+1:]}
			c.queryParamsLen++
		}
	}

	if len(query) == 0 {
		return
	}

	// More than queryParamsBuf's inline capacity — spill the rest into a map.
	if c.queryParams == nil {
		c.queryParams = make(map[string]string, 4)
		for i := 0; i < c.queryParamsLen; i++ {
			c.queryParams[string(c.queryParamsBuf[i].keyBytes)] = string(c.queryParamsBuf[i].valueBytes)
		}
	}

	for len(query) > 0 {
		var pair []byte
		pair, query = splitAmpersand(query)

		if eqIdx := bytes.IndexByte(pair, '='); eqIdx >= 0 {
			c.queryParams[string(pair[:eqIdx])] = string(pair[eqIdx+1:])
		}
	}
}

// Reset clears the Context for reuse; an alias kept for callers that
// predate FastReset.
func (c *Context) Reset() {
	c.FastReset()
}

// FastReset clears the Context for reuse by the pool. It clears only the
// param slots actually populated (paramsLen/queryParamsLen), rather than
// the full 384+768 bytes of inline storage, since most requests use only
// a handful of parameters.
func (c *Context) FastReset() {
	for i := 0; i < c.paramsLen && i < len(c.paramsBuf); i++ {
		c.paramsBuf[i].keyBytes = nil
		c.paramsBuf[i].valueBytes = nil
	}
	for i := 0; i < c.queryParamsLen && i < len(c.queryParamsBuf); i++ {
		c.queryParamsBuf[i].keyBytes = nil
		c.queryParamsBuf[i].valueBytes = nil
	}

	c.wireReq = nil
	c.wireRes = nil
	c.methodBytes = nil
	c.pathBytes = nil
	c.queryBytes = nil
	c.store = nil
	c.params = nil
	c.queryParams = nil
	c.paramsLen = 0
	c.queryParamsLen = 0
	c.methodString = ""
	c.pathString = ""
	c.queryString = ""
	c.statusCode = 0
	c.written = false
	c.stringsCached = false
	c.queryParsed = false
	c.httpReq = nil
	c.httpRes = nil
	c.testReqHeaders = nil
	c.testResHeaders = nil
}

// splitQuery splits a query string on '&'. Exercised by tests exclusively;
// production parsing works on bytes via parseQuery/splitAmpersand instead.
func splitQuery(query string) []string {
	if query == "" {
		return nil
	}

	var result []string
	start := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '&' {
			result = append(result, query[start:i])
			start = i + 1
		}
	}
	result = append(result, query[start:])
	return result
}

// splitKeyValue splits a single "key=value" pair on its first '='.
// Exercised by tests exclusively; see splitQuery.
func splitKeyValue(pair string) []string {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '=' {
			return []string{pair[:i], pair[i+1:]}
		}
	}
	return []string{pair}
}

// SetMethod overrides the HTTP method (test helper).
func (c *Context) SetMethod(method string) {
	c.methodBytes = []byte(method)
	c.stringsCached = false
}

// SetPath overrides the request path (test helper).
func (c *Context) SetPath(path string) {
	c.pathBytes = []byte(path)
	c.stringsCached = false
}

// SetRequestHeader sets a request header (test helper); unlike SetHeader,
// which sets a response header, this simulates an inbound one.
func (c *Context) SetRequestHeader(key, value string) {
	if c.testReqHeaders == nil {
		c.testReqHeaders = make(map[string]string, 4)
	}
	c.testReqHeaders[key] = value
}

// GetResponseHeader returns a response header previously set in test mode.
func (c *Context) GetResponseHeader(key string) string {
	if c.testResHeaders != nil {
		return c.testResHeaders[key]
	}
	return ""
}

// Hijack lets a handler take raw ownership of the underlying TCP connection,
// stepping outside the request/response cycle entirely. The core pipeline
// does not implement any protocol beyond that handoff: WebSocket framing,
// ping/pong, and message parsing are the caller's responsibility (or a
// dedicated protocol package's), not this package's.
//
// Only valid when the request arrived through the wire transport (Listen,
// Run). Returns an error for requests served through ServeHTTP (net/http
// compatibility mode), since http.Hijacker has a different contract.
func (c *Context) Hijack() (net.Conn, *bufio.Reader, error) {
	if c.wireRes == nil {
		return nil, nil, errors.New("ember: hijack requires the wire transport, not net/http compatibility mode")
	}
	return c.wireRes.Hijack()
}

// IsUpgradeRequest reports whether the request carries the headers an
// RFC 6455 WebSocket handshake requires (Connection: Upgrade and
// Upgrade: websocket). It does not validate Sec-WebSocket-Key or negotiate
// the handshake; pair it with Hijack and a dedicated upgrader.
func (c *Context) IsUpgradeRequest() bool {
	return headerContainsToken(c.GetHeader("Connection"), "upgrade") &&
		strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

func headerContainsToken(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
