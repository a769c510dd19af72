package wire

import (
	"bufio"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
)

const (
	// DefaultBufferSize is the size of a pooled read/write buffer.
	DefaultBufferSize = 4096

	// ParserBufferSize is the size of a pooled parser buffer: request
	// line plus headers, per the limits in constants.go.
	ParserBufferSize = MaxRequestLineSize + MaxHeadersSize
)

// PoolStrategy selects how the package-level Get*/Put* pools are backed.
type PoolStrategy int

const (
	// PoolStrategyStandard wraps sync.Pool directly — the default, and
	// the faster choice for typical request/response-sized hold times.
	PoolStrategyStandard PoolStrategy = iota

	// PoolStrategyPerCPU shards across one sync.Pool per GOMAXPROCS to
	// cut lock contention under sustained high concurrency with longer
	// hold times, at the cost of being slower for short-lived objects.
	PoolStrategyPerCPU
)

// poolStrategy is read by every Get*/Put* function below; set it once
// during server startup via SetPoolStrategy, before traffic starts.
var poolStrategy = PoolStrategyStandard

// SetPoolStrategy changes which backing strategy Get*/Put* use. Call it
// before the first pool operation — it is not safe to flip mid-traffic,
// since in-flight objects would return to the pool they were never taken
// from.
func SetPoolStrategy(strategy PoolStrategy) {
	poolStrategy = strategy
}

// perCPUPool round-robins Get/Put across GOMAXPROCS independent
// sync.Pools, trading a small chance of missing a same-CPU-warm object
// for no shared lock across cores.
type perCPUPool[T any] struct {
	pools      []*sync.Pool
	numCPU     int
	roundRobin atomic.Uint64
	newFunc    func() T
}

func newPerCPUPool[T any](newFunc func() T) *perCPUPool[T] {
	numCPU := runtime.GOMAXPROCS(0)
	if numCPU < 1 {
		numCPU = 1
	}

	pools := make([]*sync.Pool, numCPU)
	for i := 0; i < numCPU; i++ {
		pools[i] = &sync.Pool{
			New: func() interface{} {
				return newFunc()
			},
		}
	}

	return &perCPUPool[T]{
		pools:   pools,
		numCPU:  numCPU,
		newFunc: newFunc,
	}
}

func (p *perCPUPool[T]) get() T {
	idx := p.roundRobin.Add(1) % uint64(p.numCPU)
	pool := p.pools[idx]

	if obj := pool.Get(); obj != nil {
		return obj.(T)
	}
	return p.newFunc()
}

// put returns obj to the pool at the current round-robin cursor, not
// necessarily the one get last drew from — acceptable since no pooled
// object here carries per-shard state, so cross-shard reuse is safe.
func (p *perCPUPool[T]) put(obj T) {
	idx := p.roundRobin.Load() % uint64(p.numCPU)
	pool := p.pools[idx]
	pool.Put(obj)
}

func (p *perCPUPool[T]) warmup(countPerCPU int) {
	for _, pool := range p.pools {
		objs := make([]T, countPerCPU)
		for i := 0; i < countPerCPU; i++ {
			objs[i] = p.newFunc()
		}
		for i := 0; i < countPerCPU; i++ {
			pool.Put(objs[i])
		}
	}
}

// Both backing strategies are kept live side by side — Standard is the
// default, PerCPU is opt-in via SetPoolStrategy — rather than switching
// the implementation at build time, so a process can pick its strategy
// from a config flag without a recompile.
var (
	requestPoolStd = sync.Pool{
		New: func() interface{} {
			return &Request{}
		},
	}

	responseWriterPoolStd = sync.Pool{
		New: func() interface{} {
			return &ResponseWriter{}
		},
	}

	parserPoolStd = sync.Pool{
		New: func() interface{} {
			return NewParser()
		},
	}

	bufferPoolStd = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, DefaultBufferSize)
			return &buf
		},
	}

	largeBufferPoolStd = sync.Pool{
		New: func() interface{} {
			buf := make([]byte, 0, ParserBufferSize)
			return &buf
		},
	}

	bufioReaderPoolStd = sync.Pool{
		New: func() interface{} {
			return bufio.NewReaderSize(nil, DefaultBufferSize)
		},
	}

	bufioWriterPoolStd = sync.Pool{
		New: func() interface{} {
			return bufio.NewWriterSize(nil, DefaultBufferSize)
		},
	}

	requestPoolPerCPU = newPerCPUPool(func() *Request {
		return &Request{}
	})

	responseWriterPoolPerCPU = newPerCPUPool(func() *ResponseWriter {
		return &ResponseWriter{}
	})

	parserPoolPerCPU = newPerCPUPool(func() *Parser {
		return NewParser()
	})

	bufferPoolPerCPU = newPerCPUPool(func() *[]byte {
		buf := make([]byte, DefaultBufferSize)
		return &buf
	})

	largeBufferPoolPerCPU = newPerCPUPool(func() *[]byte {
		buf := make([]byte, 0, ParserBufferSize)
		return &buf
	})

	bufioReaderPoolPerCPU = newPerCPUPool(func() *bufio.Reader {
		return bufio.NewReaderSize(nil, DefaultBufferSize)
	})

	bufioWriterPoolPerCPU = newPerCPUPool(func() *bufio.Writer {
		return bufio.NewWriterSize(nil, DefaultBufferSize)
	})
)

// GetRequest draws a reset, ready-to-use Request from the pool. Callers
// must return it with PutRequest when done.
func GetRequest() *Request {
	var req *Request
	if poolStrategy == PoolStrategyPerCPU {
		req = requestPoolPerCPU.get()
	} else {
		req = requestPoolStd.Get().(*Request)
	}
	req.Reset()
	return req
}

// PutRequest resets and returns req to the pool. Safe to call with nil.
// The Request must not be used again afterward.
func PutRequest(req *Request) {
	if req != nil {
		req.Reset()
		if poolStrategy == PoolStrategyPerCPU {
			requestPoolPerCPU.put(req)
		} else {
			requestPoolStd.Put(req)
		}
	}
}

// GetResponseWriter draws a ResponseWriter from the pool, configured to
// write to w. Callers must return it with PutResponseWriter when done.
func GetResponseWriter(w io.Writer) *ResponseWriter {
	var rw *ResponseWriter
	if poolStrategy == PoolStrategyPerCPU {
		rw = responseWriterPoolPerCPU.get()
	} else {
		rw = responseWriterPoolStd.Get().(*ResponseWriter)
	}
	rw.Reset(w)
	return rw
}

// PutResponseWriter resets and returns rw to the pool. Safe to call with
// nil. The ResponseWriter must not be used again afterward.
func PutResponseWriter(rw *ResponseWriter) {
	if rw != nil {
		rw.Reset(nil)
		if poolStrategy == PoolStrategyPerCPU {
			responseWriterPoolPerCPU.put(rw)
		} else {
			responseWriterPoolStd.Put(rw)
		}
	}
}

// GetParser draws a Parser from the pool. Callers must return it with
// PutParser when done.
func GetParser() *Parser {
	if poolStrategy == PoolStrategyPerCPU {
		return parserPoolPerCPU.get()
	}
	return parserPoolStd.Get().(*Parser)
}

// PutParser clears p's buffers and returns it to the pool. Safe to call
// with nil. The Parser must not be used again afterward.
func PutParser(p *Parser) {
	if p != nil {
		if p.buf != nil {
			p.buf = p.buf[:0]
		}
		p.unreadBuf = nil // drop any pipelined bytes before the next borrower sees them
		if poolStrategy == PoolStrategyPerCPU {
			parserPoolPerCPU.put(p)
		} else {
			parserPoolStd.Put(p)
		}
	}
}

// GetBuffer draws a DefaultBufferSize byte slice from the pool. Its
// contents may hold data from a previous use. Callers must return it with
// PutBuffer when done.
func GetBuffer() []byte {
	var bufPtr *[]byte
	if poolStrategy == PoolStrategyPerCPU {
		bufPtr = bufferPoolPerCPU.get()
	} else {
		bufPtr = bufferPoolStd.Get().(*[]byte)
	}
	return *bufPtr
}

// PutBuffer returns buf to the pool. A nil buffer, or one smaller than
// DefaultBufferSize, is silently dropped instead of pooled. The buffer
// must not be used again afterward.
func PutBuffer(buf []byte) {
	if buf == nil || cap(buf) < DefaultBufferSize {
		return
	}
	buf = buf[:DefaultBufferSize]
	if poolStrategy == PoolStrategyPerCPU {
		bufferPoolPerCPU.put(&buf)
	} else {
		bufferPoolStd.Put(&buf)
	}
}

// GetLargeBuffer draws a zero-length, ParserBufferSize-capacity byte
// slice from the pool. Callers must return it with PutLargeBuffer when
// done.
func GetLargeBuffer() []byte {
	var bufPtr *[]byte
	if poolStrategy == PoolStrategyPerCPU {
		bufPtr = largeBufferPoolPerCPU.get()
	} else {
		bufPtr = largeBufferPoolStd.Get().(*[]byte)
	}
	buf := *bufPtr
	return buf[:0]
}

// PutLargeBuffer returns buf to the pool. A nil buffer, or one with
// capacity under ParserBufferSize, is silently dropped instead of pooled.
// The buffer must not be used again afterward.
func PutLargeBuffer(buf []byte) {
	if buf == nil || cap(buf) < ParserBufferSize {
		return
	}
	buf = buf[:0]
	if poolStrategy == PoolStrategyPerCPU {
		largeBufferPoolPerCPU.put(&buf)
	} else {
		largeBufferPoolStd.Put(&buf)
	}
}

// GetBufioReader draws a *bufio.Reader from the pool, reset to read from
// r. Callers must return it with PutBufioReader when done.
func GetBufioReader(r io.Reader) *bufio.Reader {
	var br *bufio.Reader
	if poolStrategy == PoolStrategyPerCPU {
		br = bufioReaderPoolPerCPU.get()
	} else {
		br = bufioReaderPoolStd.Get().(*bufio.Reader)
	}
	br.Reset(r)
	return br
}

// PutBufioReader clears br's underlying reader and returns it to the
// pool. Safe to call with nil. The reader must not be used again
// afterward.
func PutBufioReader(br *bufio.Reader) {
	if br != nil {
		br.Reset(nil)
		if poolStrategy == PoolStrategyPerCPU {
			bufioReaderPoolPerCPU.put(br)
		} else {
			bufioReaderPoolStd.Put(br)
		}
	}
}

// GetBufioWriter draws a *bufio.Writer from the pool, reset to write to
// w. Callers must return it with PutBufioWriter when done.
func GetBufioWriter(w io.Writer) *bufio.Writer {
	var bw *bufio.Writer
	if poolStrategy == PoolStrategyPerCPU {
		bw = bufioWriterPoolPerCPU.get()
	} else {
		bw = bufioWriterPoolStd.Get().(*bufio.Writer)
	}
	bw.Reset(w)
	return bw
}

// PutBufioWriter flushes bw, clears its underlying writer, and returns it
// to the pool. Safe to call with nil. The writer must not be used again
// afterward.
func PutBufioWriter(bw *bufio.Writer) {
	if bw != nil {
		bw.Flush()
		bw.Reset(nil)
		if poolStrategy == PoolStrategyPerCPU {
			bufioWriterPoolPerCPU.put(bw)
		} else {
			bufioWriterPoolStd.Put(bw)
		}
	}
}

// PoolStats reports pool usage for one pooled type. sync.Pool exposes no
// instrumentation hooks, so every field here beyond Name is a placeholder
// until WarmupPools (or a future counting wrapper) fills them in; treat
// GetPoolStats as a shape to report against, not live telemetry.
type PoolStats struct {
	Name      string
	Available int
	Gets      uint64
	Puts      uint64
	HitRate   float64
}

// GetPoolStats returns one PoolStats entry per pooled type. See PoolStats
// for why the counters are currently placeholders.
func GetPoolStats() []PoolStats {
	return []PoolStats{
		{Name: "Request"},
		{Name: "ResponseWriter"},
		{Name: "Parser"},
		{Name: "Buffer"},
		{Name: "LargeBuffer"},
		{Name: "BufioReader"},
		{Name: "BufioWriter"},
	}
}

// WarmupPools pre-populates every pool so the first count (or, under
// PoolStrategyPerCPU, count-per-CPU) requests don't pay pool-miss
// allocation cost. Call it once during server startup.
func WarmupPools(count int) {
	if poolStrategy == PoolStrategyPerCPU {
		requestPoolPerCPU.warmup(count)
		responseWriterPoolPerCPU.warmup(count)
		parserPoolPerCPU.warmup(count)
		bufferPoolPerCPU.warmup(count)
		largeBufferPoolPerCPU.warmup(count)
		bufioReaderPoolPerCPU.warmup(count)
		bufioWriterPoolPerCPU.warmup(count)
		return
	}

	for i := 0; i < count; i++ {
		PutRequest(GetRequest())
		PutResponseWriter(GetResponseWriter(nil))
		PutParser(GetParser())
		PutBuffer(GetBuffer())
		PutLargeBuffer(GetLargeBuffer())
		PutBufioReader(GetBufioReader(nil))
		PutBufioWriter(GetBufioWriter(nil))
	}
}
