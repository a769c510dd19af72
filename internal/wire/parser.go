package wire

import (
	"bytes"
	"io"
	"sync"
)

// tmpBufPool holds the scratch buffers readUntilHeadersEnd reads into,
// saving a 4KB allocation per request.
var tmpBufPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, 4096)
		return &buf
	},
}

// Parser parses HTTP/1.1 requests directly off a reader, byte-by-byte
// against its own buffer rather than through bufio, so a request with 32
// or fewer headers costs zero allocations once the pools have warmed up.
// It also supports pipelining: if a single Read pulled in the start of the
// next request along with the current one's trailing bytes, that excess is
// held in unreadBuf and prepended to the next Parse call instead of being
// dropped.
type Parser struct {
	// buf holds the request line and headers for the request currently
	// being parsed; sized for MaxRequestLineSize+MaxHeadersSize up front
	// so the common case never grows it.
	buf []byte

	// unreadBuf holds bytes read past the end of the current request's
	// headers — the start of the next pipelined request, if any.
	unreadBuf []byte
}

// NewParser returns a Parser with its header buffer pre-sized.
func NewParser() *Parser {
	return &Parser{
		buf: make([]byte, 0, MaxRequestLineSize+MaxHeadersSize),
	}
}

// Parse reads one HTTP/1.1 request from r and returns it. The returned
// Request holds zero-copy slices into the parser's internal buffer, so it
// is only valid until the next call to Parse — and the caller must call
// PutRequest on it when done, since it comes from Request's pool.
func (p *Parser) Parse(r io.Reader) (*Request, error) {
	p.buf = p.buf[:0]

	// Prepend anything left over from a previous pipelined read.
	var reader io.Reader
	if len(p.unreadBuf) > 0 {
		reader = io.MultiReader(bytes.NewReader(p.unreadBuf), r)
		p.unreadBuf = nil
	} else {
		reader = r
	}

	if err := p.readUntilHeadersEnd(reader); err != nil {
		return nil, err
	}

	req := GetRequest()

	req.Proto = http11Proto
	req.ProtoMajor = ProtoHTTP11Major
	req.ProtoMinor = ProtoHTTP11Minor
	req.buf = p.buf

	pos, err := p.parseRequestLine(req, p.buf)
	if err != nil {
		PutRequest(req)
		return nil, err
	}

	if err := p.parseHeaders(req, p.buf[pos:]); err != nil {
		PutRequest(req)
		return nil, err
	}

	// unreadBuf may already hold body bytes read along with the headers.
	// Only a request with a body takes them, and a Content-Length body only
	// its own share, so the start of a pipelined request stays queued.
	bodyReader := r
	if len(p.unreadBuf) > 0 && req.HasBody() {
		if !req.IsChunked() && int64(len(p.unreadBuf)) > req.ContentLength {
			bodyReader = bytes.NewReader(p.unreadBuf[:req.ContentLength])
			p.unreadBuf = p.unreadBuf[req.ContentLength:]
		} else {
			bodyReader = io.MultiReader(bytes.NewReader(p.unreadBuf), r)
			p.unreadBuf = nil
		}
	}

	if err := p.setupBodyReader(req, bodyReader); err != nil {
		PutRequest(req)
		return nil, err
	}

	return req, nil
}

// readUntilHeadersEnd fills p.buf until it sees \r\n\r\n, the boundary
// between headers and body (or the next pipelined request).
func (p *Parser) readUntilHeadersEnd(r io.Reader) error {
	tmpBufPtr := tmpBufPool.Get().(*[]byte)
	defer tmpBufPool.Put(tmpBufPtr)
	tmpBuf := *tmpBufPtr

	foundEnd := false

	for !foundEnd {
		n, err := r.Read(tmpBuf)
		if err != nil && err != io.EOF {
			return err
		}
		if n == 0 {
			if err == io.EOF {
				return ErrUnexpectedEOF
			}
			continue
		}

		p.buf = append(p.buf, tmpBuf[:n]...)

		if len(p.buf) >= 4 {
			// The terminator can only start in this read plus the 3
			// bytes immediately before it, so that's all we re-scan.
			searchStart := len(p.buf) - n - 3
			if searchStart < 0 {
				searchStart = 0
			}

			idx := bytes.Index(p.buf[searchStart:], []byte("\r\n\r\n"))
			if idx != -1 {
				foundEnd = true
				actualIdx := searchStart + idx + 4

				if actualIdx < len(p.buf) {
					excessLen := len(p.buf) - actualIdx
					p.unreadBuf = make([]byte, excessLen)
					copy(p.unreadBuf, p.buf[actualIdx:])
				}

				p.buf = p.buf[:actualIdx]
			}
		}

		if len(p.buf) > MaxRequestLineSize+MaxHeadersSize {
			return ErrHeadersTooLarge
		}

		if err == io.EOF {
			break
		}
	}

	if !foundEnd {
		return ErrUnexpectedEOF
	}

	return nil
}

// parseRequestLine parses "METHOD SP Request-URI SP HTTP-Version CRLF" and
// returns the buffer position immediately after it.
func (p *Parser) parseRequestLine(req *Request, buf []byte) (int, error) {
	lineEnd := bytes.Index(buf, []byte("\r\n"))
	if lineEnd == -1 {
		return 0, ErrInvalidRequestLine
	}

	line := buf[:lineEnd]

	if len(line) > MaxRequestLineSize {
		return 0, ErrRequestLineTooLarge
	}

	spaceIdx := bytes.IndexByte(line, ' ')
	if spaceIdx == -1 {
		return 0, ErrInvalidRequestLine
	}

	methodBytes := line[:spaceIdx]
	req.MethodID = ParseMethodID(methodBytes)
	if req.MethodID == MethodUnknown {
		return 0, ErrInvalidMethod
	}
	req.methodBytes = methodBytes

	line = line[spaceIdx+1:]
	spaceIdx = bytes.IndexByte(line, ' ')
	if spaceIdx == -1 {
		return 0, ErrInvalidRequestLine
	}

	uriBytes := line[:spaceIdx]

	if len(uriBytes) > MaxURILength {
		return 0, ErrURITooLong
	}

	if queryIdx := bytes.IndexByte(uriBytes, '?'); queryIdx != -1 {
		req.pathBytes = uriBytes[:queryIdx]
		req.queryBytes = uriBytes[queryIdx+1:]
	} else {
		req.pathBytes = uriBytes
		req.queryBytes = nil
	}

	if len(req.pathBytes) == 0 {
		return 0, ErrInvalidPath
	}
	if req.pathBytes[0] != '/' && req.pathBytes[0] != '*' {
		return 0, ErrInvalidPath
	}

	line = line[spaceIdx+1:]
	req.protoBytes = line

	if !bytes.Equal(line, http11Bytes) {
		return 0, ErrInvalidProtocol
	}

	return lineEnd + 2, nil
}

// parseHeaders parses "Name: Value\r\n" lines up to the blank line that
// ends the header block, rejecting the request-smuggling patterns RFC
// 7230 calls out: duplicate Content-Length with conflicting values,
// Content-Length combined with Transfer-Encoding, and whitespace before
// the colon.
func (p *Parser) parseHeaders(req *Request, buf []byte) error {
	pos := 0

	var hasContentLength bool
	var hasTransferEncoding bool
	var contentLengthValue int64 = -1
	var hasHost bool

	for {
		if pos >= len(buf) {
			break
		}

		if pos+1 < len(buf) && buf[pos] == '\r' && buf[pos+1] == '\n' {
			break
		}

		lineEnd := bytes.Index(buf[pos:], []byte("\r\n"))
		if lineEnd == -1 {
			return ErrInvalidHeader
		}
		lineEnd += pos

		line := buf[pos:lineEnd]

		colonIdx := bytes.IndexByte(line, ':')
		if colonIdx == -1 {
			return ErrInvalidHeader
		}

		name := line[:colonIdx]
		value := line[colonIdx+1:]

		// RFC 7230 §3.2 forbids whitespace between the field name and the
		// colon — "Host : x" is a smuggling pattern, not a formatting
		// nicety, so this is rejected rather than trimmed.
		if colonIdx > 0 && (line[colonIdx-1] == ' ' || line[colonIdx-1] == '\t') {
			return ErrInvalidHeader
		}

		value = trimLeadingSpace(value)
		value = trimTrailingSpace(value)

		if bytes.IndexByte(name, ' ') != -1 || bytes.IndexByte(name, '\t') != -1 {
			return ErrInvalidHeader
		}

		if err := req.Header.Add(name, value); err != nil {
			return err
		}

		if err := p.processSpecialHeader(req, name, value, &hasContentLength, &hasTransferEncoding, &contentLengthValue, &hasHost); err != nil {
			return err
		}

		pos = lineEnd + 2
	}

	// RFC 7230 §3.3.3: a message carrying both headers must be rejected —
	// a front-end honoring one and a back-end honoring the other is the
	// classic CL.TE smuggling split.
	if hasContentLength && hasTransferEncoding {
		return ErrContentLengthWithTransferEncoding
	}

	return nil
}

// processSpecialHeader updates request state for the headers that affect
// framing or routing: Content-Length, Transfer-Encoding, Connection, and
// Host.
func (p *Parser) processSpecialHeader(req *Request, name, value []byte,
	hasContentLength, hasTransferEncoding *bool, contentLengthValue *int64, hasHost *bool) error {

	if bytesEqualCaseInsensitive(name, headerContentLength) {
		contentLength, err := parseContentLength(value)
		if err != nil {
			return ErrInvalidContentLength
		}

		if *hasContentLength {
			// RFC 7230 §3.3.3: repeated Content-Length headers must agree;
			// disagreement is a smuggling attempt, not a typo to tolerate.
			if *contentLengthValue != contentLength {
				return ErrDuplicateContentLength
			}
			return nil
		}

		*hasContentLength = true
		*contentLengthValue = contentLength
		req.ContentLength = contentLength
		return nil
	}

	if bytesEqualCaseInsensitive(name, headerTransferEncoding) {
		*hasTransferEncoding = true
		if bytesEqualCaseInsensitive(value, headerChunked) {
			req.TransferEncoding = []string{"chunked"}
		}
		return nil
	}

	if bytesEqualCaseInsensitive(name, headerConnection) {
		if bytesEqualCaseInsensitive(value, headerClose) {
			req.Close = true
		}
		return nil
	}

	if bytesEqualCaseInsensitive(name, headerHost) {
		// RFC 7230 §5.4: exactly one Host header is required.
		if *hasHost {
			return ErrInvalidHeader
		}
		*hasHost = true
		return nil
	}

	return nil
}

// setupBodyReader attaches req.Body based on Content-Length or
// Transfer-Encoding: none, a length-bounded reader, or a ChunkedReader.
func (p *Parser) setupBodyReader(req *Request, r io.Reader) error {
	if req.ContentLength == 0 && len(req.TransferEncoding) == 0 {
		req.Body = nil
		return nil
	}

	if req.ContentLength > 0 {
		req.Body = io.LimitReader(r, req.ContentLength)
		return nil
	}

	if req.IsChunked() {
		req.Body = NewChunkedReader(r)
		return nil
	}

	return nil
}

// parseContentLength parses a Content-Length value as an unsigned decimal
// integer, rejecting anything else (including a leading sign or sign-like
// overflow).
func parseContentLength(b []byte) (int64, error) {
	if len(b) == 0 {
		return -1, ErrInvalidContentLength
	}

	var n int64
	for _, c := range b {
		if c < '0' || c > '9' {
			return -1, ErrInvalidContentLength
		}
		n = n*10 + int64(c-'0')

		if n < 0 {
			return -1, ErrInvalidContentLength
		}
	}
	return n, nil
}

func trimLeadingSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	return b
}

func trimTrailingSpace(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}
