package core

import (
	"strings"
	"sync"
	"sync/atomic"
)

// RouterLockFree is an alternate Router implementation for deployments that
// register every route before Listen and then serve a large number of
// concurrent connections: reads never take a lock, at the cost of making
// writes (route registration) copy-on-write.
//
// Reads load an immutable snapshot via atomic.Value; writes build a new
// snapshot under writeMu and swap it in. Once Freeze is called (or the
// server starts, via App), further Add calls panic rather than silently
// racing a reader against a registration.
//
// Router and RouterLockFree both satisfy IRouter (see router_interface.go);
// Config.UseLockFreeRouter selects which one App builds.
type RouterLockFree struct {
	staticRoutes atomic.Value // map[string]Handler
	dynamicTrees atomic.Value // map[HTTPMethod]*routeNode

	writeMu sync.Mutex
	frozen  atomic.Bool
}

// NewRouterLockFree creates an empty lock-free router.
func NewRouterLockFree() *RouterLockFree {
	r := &RouterLockFree{}
	r.staticRoutes.Store(make(map[string]Handler))
	r.dynamicTrees.Store(make(map[HTTPMethod]*routeNode))
	return r
}

// Add registers a route by copying the route table for that method and
// swapping the new snapshot in; concurrent Add calls are serialised by
// writeMu. Once Freeze has run (App calls it from Listen and Run), Add
// panics.
func (r *RouterLockFree) Add(method HTTPMethod, path string, handler Handler) {
	if r.frozen.Load() {
		panic("ember: cannot register a route after the router is frozen")
	}

	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	oldStatic := r.staticRoutes.Load().(map[string]Handler)
	oldTrees := r.dynamicTrees.Load().(map[HTTPMethod]*routeNode)

	if !strings.ContainsAny(path, ":*") {
		newStatic := make(map[string]Handler, len(oldStatic)+1)
		for k, v := range oldStatic {
			newStatic[k] = v
		}
		newStatic[staticKey(method, path)] = handler
		r.staticRoutes.Store(newStatic)
		return
	}

	newTrees := make(map[HTTPMethod]*routeNode, len(oldTrees)+1)
	for k, v := range oldTrees {
		if k == method {
			newTrees[k] = cloneSubtree(v)
		} else {
			newTrees[k] = v
		}
	}

	root := newTrees[method]
	if root == nil {
		root = &routeNode{}
		newTrees[method] = root
	}
	insertLinear(root, path, handler)
	r.dynamicTrees.Store(newTrees)
}

// Freeze rejects further Add calls. App calls this automatically when the
// lock-free router is selected and the server starts; calling it earlier
// is also safe for an application that wants registration mistakes caught
// immediately rather than at Listen.
func (r *RouterLockFree) Freeze() {
	r.frozen.Store(true)
}

// Lookup finds a handler for method and path, returning captured
// parameters as a map.
func (r *RouterLockFree) Lookup(method HTTPMethod, path string) (Handler, map[string]string) {
	staticRoutes := r.staticRoutes.Load().(map[string]Handler)
	if handler, ok := staticRoutes[staticKey(method, path)]; ok {
		return handler, nil
	}

	dynamicTrees := r.dynamicTrees.Load().(map[HTTPMethod]*routeNode)
	root := dynamicTrees[method]
	if root == nil {
		return nil, nil
	}
	return lookupTree(root, []byte(path))
}

// LookupBytes is Lookup's zero-allocation counterpart.
func (r *RouterLockFree) LookupBytes(method HTTPMethod, pathBytes []byte) (Handler, [maxInlineParams]ParamPair, int) {
	staticRoutes := r.staticRoutes.Load().(map[string]Handler)
	if handler, ok := staticRoutes[staticKeyBytes(method, pathBytes)]; ok {
		return handler, [maxInlineParams]ParamPair{}, 0
	}

	dynamicTrees := r.dynamicTrees.Load().(map[HTTPMethod]*routeNode)
	root := dynamicTrees[method]
	if root == nil {
		return nil, [maxInlineParams]ParamPair{}, 0
	}
	return matchLinear(root, pathBytes)
}

// ServeHTTP resolves and invokes the handler for c's method and path.
func (r *RouterLockFree) ServeHTTP(c *Context) error {
	handler, params, paramCount := r.LookupBytes(HTTPMethod(c.MethodBytes()), c.PathBytes())
	if handler == nil {
		return ErrNotFound
	}
	for i := 0; i < paramCount; i++ {
		c.setParamBytes(params[i].Key, params[i].Value)
	}
	return handler(c)
}

// cloneSubtree deep-copies n and its descendants so a writer can mutate the
// clone while readers keep dereferencing the original, unmodified tree.
func cloneSubtree(n *routeNode) *routeNode {
	if n == nil {
		return nil
	}
	clone := &routeNode{
		pathBytes:      n.pathBytes,
		handler:        n.handler,
		indices:        n.indices,
		label:          n.label,
		priority:       n.priority,
		isParam:        n.isParam,
		isWild:         n.isWild,
		paramNameBytes: n.paramNameBytes,
		path:           n.path,
		paramName:      n.paramName,
	}
	if len(n.children) > 0 {
		clone.children = make([]*routeNode, len(n.children))
		for i, child := range n.children {
			clone.children[i] = cloneSubtree(child)
		}
	}
	return clone
}

// insertLinear walks path byte-by-byte rather than segment-by-segment —
// deliberately a different tokenizer than Router.insert's strings.Split,
// since this router clones whole subtrees on write and a single linear pass
// keeps that copy cheap to reason about. The resulting tree shape is
// compatible with matchLinear below.
func insertLinear(root *routeNode, path string, handler Handler) {
	pathBytes := stringToBytes(path)
	current := root
	i := 0

	for i < len(path) {
		switch path[i] {
		case ':':
			end := i + 1
			for end < len(path) && path[end] != '/' {
				end++
			}
			paramName := path[i+1 : end]
			paramNode := &routeNode{
				pathBytes:      pathBytes[i:end],
				path:           path[i:end],
				isParam:        true,
				paramNameBytes: stringToBytes(paramName),
				paramName:      paramName,
				label:          ':',
			}
			current.children = append(current.children, paramNode)
			current.indices += ":"
			current = paramNode
			i = end
			continue

		case '*':
			paramName := path[i+1:]
			wildcardNode := &routeNode{
				pathBytes:      pathBytes[i:],
				path:           path[i:],
				isWild:         true,
				paramNameBytes: stringToBytes(paramName),
				paramName:      paramName,
				handler:        handler,
				label:          '*',
			}
			current.children = append(current.children, wildcardNode)
			current.indices += "*"
			return

		default:
			end := i
			for end < len(path) && path[end] != ':' && path[end] != '*' {
				end++
			}
			segment := path[i:end]

			var matched *routeNode
			for _, child := range current.children {
				if child.path == segment {
					matched = child
					break
				}
			}
			if matched == nil {
				matched = &routeNode{
					pathBytes: pathBytes[i:end],
					path:      segment,
					label:     segment[0],
				}
				current.children = append(current.children, matched)
				current.indices += string(segment[0])
			}
			current = matched
			i = end
		}
	}

	current.handler = handler
}

// lookupTree is Lookup's map-building wrapper around matchLinear.
func lookupTree(root *routeNode, pathBytes []byte) (Handler, map[string]string) {
	handler, params, paramCount := matchLinear(root, pathBytes)
	if handler == nil {
		return nil, nil
	}
	if paramCount == 0 {
		return handler, nil
	}

	paramMap := make(map[string]string, paramCount)
	for i := 0; i < paramCount; i++ {
		paramMap[bytesToString(params[i].Key)] = bytesToString(params[i].Value)
	}
	return handler, paramMap
}

// matchLinear walks the tree insertLinear built, consuming pathBytes a
// segment at a time against whichever child matches — static, then
// parameter, then wildcard, checked in the order children were registered
// rather than Router's static-first/indices-based search, since this tree
// has no indices-based reordering.
func matchLinear(root *routeNode, pathBytes []byte) (Handler, [maxInlineParams]ParamPair, int) {
	var params [maxInlineParams]ParamPair
	paramCount := 0

	current := root
	i := 0

	for i < len(pathBytes) {
		var matched *routeNode
		for _, child := range current.children {
			if child.isWild {
				if paramCount < len(params) {
					params[paramCount] = ParamPair{Key: child.paramNameBytes, Value: pathBytes[i:]}
					paramCount++
				}
				return child.handler, params, paramCount
			}

			if child.isParam {
				end := i
				for end < len(pathBytes) && pathBytes[end] != '/' {
					end++
				}
				if paramCount < len(params) {
					params[paramCount] = ParamPair{Key: child.paramNameBytes, Value: pathBytes[i:end]}
					paramCount++
				}
				matched = child
				i = end
				break
			}

			if len(child.pathBytes) <= len(pathBytes)-i && bytesEqual(child.pathBytes, pathBytes[i:i+len(child.pathBytes)]) {
				matched = child
				i += len(child.pathBytes)
				break
			}
		}

		if matched == nil {
			return nil, [maxInlineParams]ParamPair{}, 0
		}
		current = matched

		if i >= len(pathBytes) {
			if current.handler != nil {
				return current.handler, params, paramCount
			}
			return nil, [maxInlineParams]ParamPair{}, 0
		}
	}

	if current.handler != nil {
		return current.handler, params, paramCount
	}
	return nil, [maxInlineParams]ParamPair{}, 0
}
