package wire

import (
	"io"
	"net/url"
)

// Request is a parsed HTTP/1.1 request. methodBytes, pathBytes, queryBytes,
// and protoBytes are zero-copy views into buf, the pooled read buffer —
// valid only for the lifetime of the request they were parsed from. Clone
// exists for the rare case a caller needs the request to outlive that;
// everything else should read through Method/Path/Query (which allocate a
// string) or the *Bytes accessors (which don't, but inherit the same
// lifetime restriction as the fields they wrap).
type Request struct {
	// MethodID is the numeric method; MethodString(MethodID) or Method()
	// gives the name back.
	MethodID uint8

	methodBytes []byte
	pathBytes   []byte
	queryBytes  []byte
	protoBytes  []byte

	// pathParsed caches ParsedURL's result; nil until first call.
	pathParsed *url.URL

	// Header holds up to MaxHeaders entries without a heap allocation.
	Header Header

	// Body is nil when the request has none, an io.LimitReader bounded by
	// ContentLength, or a chunked-transfer-encoding reader.
	Body io.Reader

	Proto      string
	ProtoMajor int
	ProtoMinor int

	// ContentLength is the declared body size, or 0 when there is no
	// Content-Length header (including chunked requests).
	ContentLength int64

	// TransferEncoding is nil for identity encoding, ["chunked"] for
	// chunked — per RFC 7230, chunked must be the last encoding listed if
	// more than one is present, see IsChunked.
	TransferEncoding []string

	// Close reports whether the connection should close after this
	// request, set by an explicit "Connection: close" header.
	Close bool

	RemoteAddr string

	// buf is the pooled buffer methodBytes/pathBytes/queryBytes/protoBytes
	// alias into; held here only so Reset can release the reference.
	buf []byte
}

// Method returns the request method as a string.
func (r *Request) Method() string { return MethodString(r.MethodID) }

// MethodBytes is a zero-copy view of the method, valid only for the
// request's lifetime.
func (r *Request) MethodBytes() []byte { return r.methodBytes }

// Path returns the request path, allocating a string from the zero-copy
// buffer view. Use PathBytes to avoid the allocation.
func (r *Request) Path() string { return string(r.pathBytes) }

// PathBytes is a zero-copy view of the path, valid only for the request's
// lifetime.
func (r *Request) PathBytes() []byte { return r.pathBytes }

// Query returns the query string (without the leading '?'), allocating a
// string from the zero-copy buffer view. Use QueryBytes to avoid the
// allocation.
func (r *Request) Query() string { return string(r.queryBytes) }

// QueryBytes is a zero-copy view of the query string, valid only for the
// request's lifetime.
func (r *Request) QueryBytes() []byte { return r.queryBytes }

// ParsedURL lazily parses path+query into a *url.URL and caches the
// result. Prefer PathBytes/QueryBytes when full URL parsing isn't needed.
func (r *Request) ParsedURL() (*url.URL, error) {
	if r.pathParsed == nil {
		urlStr := string(r.pathBytes)
		if len(r.queryBytes) > 0 {
			urlStr += "?" + string(r.queryBytes)
		}

		parsed, err := url.Parse(urlStr)
		if err != nil {
			return nil, err
		}
		r.pathParsed = parsed
	}
	return r.pathParsed, nil
}

// GetHeader retrieves a header value by name (case-insensitive), or nil if
// absent.
func (r *Request) GetHeader(name []byte) []byte { return r.Header.Get(name) }

// GetHeaderString is GetHeader with a string argument/result, at the cost
// of one allocation for the result.
func (r *Request) GetHeaderString(name string) string {
	return r.Header.GetString([]byte(name))
}

// HasHeader reports whether a header is present (case-insensitive).
func (r *Request) HasHeader(name []byte) bool { return r.Header.Has(name) }

// IsGET reports whether the method is GET.
func (r *Request) IsGET() bool { return r.MethodID == MethodGET }

// IsPOST reports whether the method is POST.
func (r *Request) IsPOST() bool { return r.MethodID == MethodPOST }

// IsPUT reports whether the method is PUT.
func (r *Request) IsPUT() bool { return r.MethodID == MethodPUT }

// IsDELETE reports whether the method is DELETE.
func (r *Request) IsDELETE() bool { return r.MethodID == MethodDELETE }

// IsPATCH reports whether the method is PATCH.
func (r *Request) IsPATCH() bool { return r.MethodID == MethodPATCH }

// IsHEAD reports whether the method is HEAD.
func (r *Request) IsHEAD() bool { return r.MethodID == MethodHEAD }

// IsOPTIONS reports whether the method is OPTIONS.
func (r *Request) IsOPTIONS() bool { return r.MethodID == MethodOPTIONS }

// HasBody reports whether the request declares a body, via Content-Length
// or Transfer-Encoding.
func (r *Request) HasBody() bool {
	return r.ContentLength > 0 || len(r.TransferEncoding) > 0
}

// IsChunked reports whether the request uses chunked transfer encoding —
// the last entry of TransferEncoding, per RFC 7230.
func (r *Request) IsChunked() bool {
	if len(r.TransferEncoding) == 0 {
		return false
	}
	return r.TransferEncoding[len(r.TransferEncoding)-1] == "chunked"
}

// ShouldClose reports whether the connection should close once this
// request has been handled.
func (r *Request) ShouldClose() bool { return r.Close }

// Reset clears every field to its zero value, releasing references to the
// pooled buffer and parsed URL so the next request from the pool starts
// clean.
func (r *Request) Reset() {
	r.MethodID = 0
	r.methodBytes = nil
	r.pathBytes = nil
	r.queryBytes = nil
	r.protoBytes = nil
	r.pathParsed = nil
	r.Header.Reset()
	r.Body = nil
	r.Proto = ""
	r.ProtoMajor = 0
	r.ProtoMinor = 0
	r.ContentLength = 0
	r.TransferEncoding = nil
	r.Close = false
	r.RemoteAddr = ""
	r.buf = nil
}

// Clone returns a copy of the request whose fields no longer depend on the
// pooled read buffer — every zero-copy []byte field is re-allocated from
// its string form, so the clone stays valid after the original Request is
// reset and its buffer reused. Body is not cloned (the clone's Body is
// nil); read the body, or wrap it in io.TeeReader, before cloning if you
// need both.
func (r *Request) Clone() *Request {
	clone := &Request{
		MethodID:         r.MethodID,
		methodBytes:      []byte(r.Method()),
		pathBytes:        []byte(r.Path()),
		queryBytes:       []byte(r.Query()),
		protoBytes:       []byte(r.Proto),
		Proto:            r.Proto,
		ProtoMajor:       r.ProtoMajor,
		ProtoMinor:       r.ProtoMinor,
		ContentLength:    r.ContentLength,
		TransferEncoding: r.TransferEncoding,
		Close:            r.Close,
		RemoteAddr:       r.RemoteAddr,
	}

	r.Header.VisitAll(func(name, value []byte) bool {
		clone.Header.Add(name, value)
		return true
	})

	if r.pathParsed != nil {
		if parsed, _ := r.ParsedURL(); parsed != nil {
			clone.pathParsed = &url.URL{
				Scheme:   parsed.Scheme,
				Host:     parsed.Host,
				Path:     parsed.Path,
				RawQuery: parsed.RawQuery,
			}
		}
	}

	return clone
}
