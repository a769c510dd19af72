package core

import (
	"strings"
	"sync"
)

// maxInlineParams bounds how many captured path parameters a single route
// can carry without silently dropping the rest. An [8]ParamPair costs
// nothing extra on the stack, so this router is generous rather than tight;
// a route declaring more than 8 ":param"/"*wildcard" segments just loses
// the overflow ones instead of failing registration.
const maxInlineParams = 8

// Router dispatches requests to the fang-wrapped handler registered for a
// method and path. It is two structures glued together:
//
//   - static: an exact-match table for routes with no ":param"/"*wildcard"
//     segment, looked up in O(1);
//   - trees: one compressed radix tree per HTTP method, for everything else.
//
// Both are read without allocation on the hot path; Add is the only
// operation that allocates, and is expected to run entirely before Listen.
type Router struct {
	static map[string]Handler // "METHOD:PATH" -> handler
	trees  map[HTTPMethod]*routeNode

	mu sync.RWMutex
}

// routeNode is one segment of a registered path inside a method's radix
// tree. handler is already fully fang-wrapped by the time it reaches the
// node — RouteGroup applies its fangs before calling Router.Add, so the
// tree itself never needs to know a route came from a group.
type routeNode struct {
	label   byte // first byte of the segment this node matches
	isParam bool
	isWild  bool

	pathBytes []byte
	children  []*routeNode
	handler   Handler

	paramNameBytes []byte
	indices        string // one byte per child, same order as children
	priority       uint32 // access counter; hot children migrate to index 0

	path      string
	paramName string
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{
		static: make(map[string]Handler),
		trees:  make(map[HTTPMethod]*routeNode),
	}
}

// Add registers handler for method and path.
//
// Path syntax:
//   - "/users" is a static segment, matched verbatim;
//   - "/users/:id" captures the segment into a parameter named "id";
//   - "/files/*path" is a wildcard, matching and capturing everything after
//     it; it must be the last segment of the path.
func (r *Router) Add(method HTTPMethod, path string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(method, path, handler)
}

// register performs the actual insertion; Add and Mount both funnel
// through here so a prefixed sub-router is registered exactly the way a
// directly-declared route would be.
func (r *Router) register(method HTTPMethod, path string, handler Handler) {
	if !strings.ContainsAny(path, ":*") {
		r.static[staticKey(method, path)] = handler
		return
	}

	root := r.trees[method]
	if root == nil {
		root = &routeNode{}
		r.trees[method] = root
	}
	r.insert(root, path, handler)
}

// staticKey builds the "METHOD:PATH" key used by the static route table.
func staticKey(method HTTPMethod, path string) string {
	return string(method) + ":" + path
}

// Group returns a RouteGroup that registers every route under prefix and
// wraps each one in the given fangs, ahead of whatever App.Use or the
// route's own ChainLink.Use add later. It is this router's realization of
// composing a sub-application's routes into a parent — nest freely, the
// prefix concatenates.
//
// Example:
//
//	admin := router.Group("/admin", RequireRole("admin"))
//	admin.Get("/stats", statsHandler)   // registers GET /admin/stats
func (r *Router) Group(prefix string, fangs ...Fang) *RouteGroup {
	return &RouteGroup{router: r, prefix: strings.TrimSuffix(prefix, "/"), fangs: fangs}
}

// RouteGroup registers routes under a shared path prefix and fang stack.
// It has no state of its own beyond that — every method is a thin wrapper
// around Router.Add.
type RouteGroup struct {
	router *Router
	prefix string
	fangs  []Fang
}

func (g *RouteGroup) add(method HTTPMethod, path string, handler Handler) {
	for i := len(g.fangs) - 1; i >= 0; i-- {
		handler = g.fangs[i](handler)
	}
	g.router.Add(method, g.prefix+path, handler)
}

// Get registers a GET route under the group's prefix.
func (g *RouteGroup) Get(path string, handler Handler) { g.add(MethodGet, path, handler) }

// Post registers a POST route under the group's prefix.
func (g *RouteGroup) Post(path string, handler Handler) { g.add(MethodPost, path, handler) }

// Put registers a PUT route under the group's prefix.
func (g *RouteGroup) Put(path string, handler Handler) { g.add(MethodPut, path, handler) }

// Delete registers a DELETE route under the group's prefix.
func (g *RouteGroup) Delete(path string, handler Handler) { g.add(MethodDelete, path, handler) }

// Patch registers a PATCH route under the group's prefix.
func (g *RouteGroup) Patch(path string, handler Handler) { g.add(MethodPatch, path, handler) }

// Group returns a nested group, concatenating prefixes and appending fangs
// after the parent's.
func (g *RouteGroup) Group(prefix string, fangs ...Fang) *RouteGroup {
	return &RouteGroup{
		router: g.router,
		prefix: g.prefix + strings.TrimSuffix(prefix, "/"),
		fangs:  append(append([]Fang{}, g.fangs...), fangs...),
	}
}

// Lookup finds a handler for method and path, returning captured parameters
// as a map. Prefer LookupBytes on a hot path: Lookup returns a nil map when
// no parameters are captured, but it allocates a map otherwise, and it
// always copies the path argument into a []byte.
func (r *Router) Lookup(method HTTPMethod, path string) (Handler, map[string]string) {
	handler, params, paramCount := r.LookupBytes(method, []byte(path))
	if handler == nil {
		return nil, nil
	}
	if paramCount == 0 {
		return handler, nil
	}

	paramsMap := make(map[string]string, paramCount)
	for i := 0; i < paramCount; i++ {
		paramsMap[string(params[i].Key)] = string(params[i].Value)
	}
	return handler, paramsMap
}

// ParamPair is one captured path parameter, stored as byte-slice views into
// the request's path buffer rather than freshly allocated strings.
type ParamPair struct {
	Key   []byte
	Value []byte
}

// LookupBytes is the zero-allocation lookup path: static routes resolve via
// a stack-built map key, dynamic routes via matchBytes, and captured
// parameters land in a fixed [maxInlineParams]ParamPair array the caller
// owns — no map, no slice growth.
func (r *Router) LookupBytes(method HTTPMethod, pathBytes []byte) (Handler, [maxInlineParams]ParamPair, int) {
	r.mu.RLock()

	if handler, ok := r.static[staticKeyBytes(method, pathBytes)]; ok {
		r.mu.RUnlock()
		return handler, [maxInlineParams]ParamPair{}, 0
	}

	root := r.trees[method]
	if root == nil {
		r.mu.RUnlock()
		return nil, [maxInlineParams]ParamPair{}, 0
	}

	var params [maxInlineParams]ParamPair
	paramCount := 0
	handler := matchBytes(root, pathBytes, 0, &params, &paramCount)

	r.mu.RUnlock()
	return handler, params, paramCount
}

// staticKeyBytes builds the same key as staticKey, but from a []byte path
// without allocating: the key only ever needs to live for the duration of
// one map lookup, so bytesToString's zero-copy cast is safe here.
func staticKeyBytes(method HTTPMethod, pathBytes []byte) string {
	var buf [128]byte
	n := copy(buf[:], method)
	buf[n] = ':'
	n++
	n += copy(buf[n:], pathBytes)
	return bytesToString(buf[:n])
}

// insert walks path's segments, creating radix tree nodes as needed, and
// attaches handler to the final segment (or, for a wildcard, to the
// wildcard node itself, since nothing can follow one).
func (r *Router) insert(root *routeNode, path string, handler Handler) {
	segs := segments(path)
	current := root

	for i, seg := range segs {
		last := i == len(segs)-1

		switch {
		case len(seg) > 0 && seg[0] == ':':
			child := r.child(current, seg, true, false, seg[1:])
			current = child
			if last {
				child.handler = handler
			}
		case len(seg) > 0 && seg[0] == '*':
			child := r.child(current, seg, false, true, seg[1:])
			child.handler = handler
			return
		default:
			child := r.child(current, seg, false, false, "")
			current = child
			if last {
				child.handler = handler
			}
		}
	}
}

// child finds parent's existing child for path, or creates one. indices
// keeps one byte per child (its label) so a lookup can skip straight to
// candidates sharing the segment's first byte instead of scanning linearly.
func (r *Router) child(parent *routeNode, path string, isParam, isWild bool, paramName string) *routeNode {
	var label byte
	if len(path) > 0 {
		label = path[0]
	}

	for i, c := range parent.indices {
		if byte(c) == label && parent.children[i].path == path {
			return parent.children[i]
		}
	}

	child := &routeNode{
		path:           path,
		pathBytes:      []byte(path),
		label:          label,
		priority:       1,
		isParam:        isParam,
		isWild:         isWild,
		paramName:      paramName,
		paramNameBytes: []byte(paramName),
	}
	parent.children = append(parent.children, child)
	parent.indices += string(label)
	return child
}

// matchBytes walks node's subtree matching pathBytes from start, preferring
// static children over :param over *wildcard at each level (so a declared
// "/users/me" always wins over "/users/:id" for the literal path "/users/me").
// Captured parameters are appended to params as byte-slice views into
// pathBytes; backtracking pops them back off on a failed deeper match.
func matchBytes(node *routeNode, pathBytes []byte, start int, params *[maxInlineParams]ParamPair, paramCount *int) Handler {
	if node == nil {
		return nil
	}

	segStart := start
	if segStart < len(pathBytes) && pathBytes[segStart] == '/' {
		segStart++
	}
	segEnd := segStart
	for segEnd < len(pathBytes) && pathBytes[segEnd] != '/' {
		segEnd++
	}

	if segStart >= len(pathBytes) {
		return node.handler
	}

	segment := pathBytes[segStart:segEnd]
	if len(segment) == 0 {
		return matchBytes(node, pathBytes, segEnd, params, paramCount)
	}
	if len(node.children) == 0 {
		return nil
	}

	if handler := matchStaticChild(node, segment, pathBytes, segEnd, params, paramCount); handler != nil {
		return handler
	}
	return matchParamOrWildcard(node, segment, pathBytes, segStart, segEnd, params, paramCount)
}

// matchStaticChild tries every non-param, non-wildcard child of node whose
// index label matches segment's first byte, promoting whichever one
// actually matches to index 0 once it has been picked more often than the
// current index-0 child (a cheap approximation of move-to-front caching for
// hot routes).
func matchStaticChild(node *routeNode, segment, pathBytes []byte, segEnd int, params *[maxInlineParams]ParamPair, paramCount *int) Handler {
	label := segment[0]
	for i, c := range node.indices {
		if byte(c) != label {
			continue
		}
		child := node.children[i]
		if child.isParam || child.isWild || child.label != label {
			continue
		}
		if !bytesEqual(child.pathBytes, segment) {
			continue
		}

		child.priority++
		if i > 0 && child.priority > node.children[0].priority {
			node.children[0], node.children[i] = node.children[i], node.children[0]
			indices := []byte(node.indices)
			indices[0], indices[i] = indices[i], indices[0]
			node.indices = string(indices)
		}

		if handler := matchBytes(child, pathBytes, segEnd, params, paramCount); handler != nil {
			return handler
		}
	}
	return nil
}

// matchParamOrWildcard tries node's :param and *wildcard children, in that
// order, after every static child has failed to match segment.
func matchParamOrWildcard(node *routeNode, segment, pathBytes []byte, segStart, segEnd int, params *[maxInlineParams]ParamPair, paramCount *int) Handler {
	for _, child := range node.children {
		if child.isParam {
			captured := *paramCount < maxInlineParams
			if captured {
				params[*paramCount] = ParamPair{Key: child.paramNameBytes, Value: segment}
				*paramCount++
			}

			if handler := matchBytes(child, pathBytes, segEnd, params, paramCount); handler != nil {
				return handler
			}
			if captured {
				*paramCount--
			}
		}
	}
	for _, child := range node.children {
		if child.isWild {
			if *paramCount < maxInlineParams {
				params[*paramCount] = ParamPair{Key: child.paramNameBytes, Value: pathBytes[segStart:]}
				*paramCount++
			}
			return child.handler
		}
	}
	return nil
}

// segments splits a path on '/', discarding empty segments so "/a//b/" and
// "a/b" tokenize identically.
func segments(path string) []string {
	if path == "" || path == "/" {
		return []string{}
	}
	path = strings.Trim(path, "/")
	parts := strings.Split(path, "/")

	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// ServeHTTP resolves the request's method and path against the router and
// invokes the matching handler, setting any captured parameters on c first.
// A path that matches no registered route, or matches one only under a
// different method, both yield ErrNotFound — this router does not
// distinguish "wrong method" from "no such path" (see DESIGN.md, method
// mismatch is 404 here, not 405).
func (r *Router) ServeHTTP(c *Context) error {
	method := HTTPMethod(c.MethodBytes())
	pathBytes := c.PathBytes()

	r.mu.RLock()
	if handler, ok := r.static[staticKeyBytes(method, pathBytes)]; ok {
		r.mu.RUnlock()
		return handler(c)
	}
	r.mu.RUnlock()

	handler, params, paramCount := r.LookupBytes(method, pathBytes)
	if handler == nil {
		return ErrNotFound
	}

	for i := 0; i < paramCount; i++ {
		c.setParamBytes(params[i].Key, params[i].Value)
	}
	return handler(c)
}
