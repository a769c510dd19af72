package core

import (
	"unsafe"
)

// bytesToString and stringToBytes back the router's zero-copy path: request
// paths arrive as []byte views into a pooled read buffer (see
// internal/wire/pool.go), and the radix tree wants to key a map on a
// string without allocating one per lookup. Both conversions alias the
// same backing array rather than copying it — correct only under the
// constraints documented on each function, and used in this package
// exclusively for read-only, single-request-scoped values: static route
// keys (router.go), captured ParamPair views (router.go,
// router_lockfree.go).

// bytesToString reinterprets b as a string without copying. The result
// shares b's backing array, so it is only valid for as long as b is valid
// and unmodified — do not retain it past the point b itself could be
// reused or mutated (e.g. once a pooled buffer is released).
//
//go:inline
func bytesToString(b []byte) string {
	return unsafe.String(unsafe.SliceData(b), len(b))
}

// stringToBytes reinterprets s as a []byte without copying. Go strings are
// immutable and may live in read-only memory, so the returned slice must
// never be written to — doing so is undefined behavior, not merely a bug
// that corrupts s. Safe uses are read-only comparisons and passing s to a
// []byte-typed API that itself won't write through the slice.
//
//go:inline
func stringToBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
