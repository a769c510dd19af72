// Package transport owns the TCP accept loop, connection lifecycle, and
// graceful shutdown around the wire-level HTTP/1.1 engine in internal/wire.
//
// This is deliberately outside the request-processing core (parser, router,
// fang composition, handler invocation, response serialiser): the framework
// treats listener loops, keep-alive bookkeeping, and signal-driven shutdown
// as external collaborators that hand finished *wire.Request /
// *wire.ResponseWriter pairs to the core and get out of the way.
package transport

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/yourusername/ember/internal/wire"
)

// Handler processes one request/response pair using the wire engine's
// concrete types. No interface conversion, no extra allocation.
type Handler func(w *wire.ResponseWriter, r *wire.Request)

// Config controls listener behavior, timeouts, and resource limits.
type Config struct {
	Addr string

	Handler Handler

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	MaxHeaderBytes     int
	MaxRequestBodySize int

	MaxKeepAliveRequests int

	ReadBufferSize  int
	WriteBufferSize int

	MaxConcurrentConnections int

	DisableKeepalive bool

	EnableStats bool
}

// DefaultConfig returns the default transport configuration.
func DefaultConfig() Config {
	return Config{
		Addr:                     ":8080",
		ReadTimeout:              60 * time.Second,
		WriteTimeout:             60 * time.Second,
		IdleTimeout:              120 * time.Second,
		MaxHeaderBytes:           1 << 20,
		MaxRequestBodySize:       10 << 20,
		MaxKeepAliveRequests:     0,
		ReadBufferSize:           4096,
		WriteBufferSize:          4096,
		MaxConcurrentConnections: 0,
		DisableKeepalive:         false,
	}
}

// Stats tracks coarse server-level counters, exposed for observability hooks.
type Stats struct {
	TotalConnections  atomic.Uint64
	ActiveConnections atomic.Int64
	TotalRequests     atomic.Uint64
	ConnectionErrors  atomic.Uint64
	RequestErrors     atomic.Uint64
	StartTime         time.Time
	LastRequestTime   atomic.Value // time.Time
}

func (s *Stats) Duration() time.Duration { return time.Since(s.StartTime) }

// Server accepts connections, hands parsed requests to Handler, and
// coordinates graceful shutdown.
type Server struct {
	config Config
	stats  Stats

	listener net.Listener

	mu       sync.RWMutex
	shutdown atomic.Bool
	done     chan struct{}
	wg       sync.WaitGroup

	conns   map[net.Conn]struct{}
	connsMu sync.Mutex

	connSem chan struct{}

	sharedHandler wire.Handler
}

// NewServer constructs a Server from config, applying zero-value defaults.
func NewServer(config Config) *Server {
	if config.Handler == nil {
		panic("transport: Handler is required")
	}
	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.ReadTimeout == 0 {
		config.ReadTimeout = 60 * time.Second
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = 60 * time.Second
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = 120 * time.Second
	}
	if config.MaxHeaderBytes == 0 {
		config.MaxHeaderBytes = 1 << 20
	}
	if config.MaxRequestBodySize == 0 {
		config.MaxRequestBodySize = 10 << 20
	}
	if config.ReadBufferSize == 0 {
		config.ReadBufferSize = 4096
	}
	if config.WriteBufferSize == 0 {
		config.WriteBufferSize = 4096
	}

	s := &Server{
		config: config,
		done:   make(chan struct{}),
		conns:  make(map[net.Conn]struct{}),
	}
	s.stats.StartTime = time.Now()
	s.stats.LastRequestTime.Store(time.Now())

	if config.MaxConcurrentConnections > 0 {
		s.connSem = make(chan struct{}, config.MaxConcurrentConnections)
	}

	s.sharedHandler = func(req *wire.Request, rw *wire.ResponseWriter) error {
		s.stats.TotalRequests.Add(1)
		if s.config.EnableStats {
			s.stats.LastRequestTime.Store(time.Now())
		}

		s.config.Handler(rw, req)

		if req.Close {
			return fmt.Errorf("connection close requested")
		}
		if s.shutdown.Load() {
			return fmt.Errorf("server shutting down")
		}
		return nil
	}

	return s
}

func (s *Server) Stats() *Stats { return &s.stats }

// ListenAndServe opens a TCP listener on the configured address and serves.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("transport: listen on %s: %w", s.config.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on l until Shutdown/Close is called.
func (s *Server) Serve(l net.Listener) error {
	s.listener = l
	defer l.Close()

	for {
		if s.shutdown.Load() {
			return nil
		}

		if s.connSem != nil {
			select {
			case s.connSem <- struct{}{}:
			case <-s.done:
				return nil
			}
		}

		conn, err := l.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return nil
			}
			s.stats.ConnectionErrors.Add(1)
			if s.connSem != nil {
				<-s.connSem
			}
			continue
		}

		s.stats.TotalConnections.Add(1)

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(netConn net.Conn) {
	defer s.wg.Done()

	if s.connSem != nil {
		defer func() { <-s.connSem }()
	}

	s.trackConnection(netConn)
	defer s.untrackConnection(netConn)

	connConfig := wire.ConnectionConfig{
		KeepAliveTimeout: s.config.IdleTimeout,
		MaxRequests:      s.config.MaxKeepAliveRequests,
		ReadBufferSize:   s.config.ReadBufferSize,
		WriteBufferSize:  s.config.WriteBufferSize,
	}
	if s.config.DisableKeepalive {
		connConfig.MaxRequests = 1
	}

	if s.config.ReadTimeout > 0 {
		netConn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}
	if s.config.WriteTimeout > 0 {
		netConn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}

	conn := wire.NewConnection(netConn, connConfig, s.sharedHandler)

	err := conn.Serve()
	conn.Close()

	if err == wire.ErrHijacked {
		// Ownership of netConn has passed to the handler; it closes it.
		return
	}
	netConn.Close()

	if err != nil {
		s.stats.RequestErrors.Add(1)
	}
}

func (s *Server) trackConnection(conn net.Conn) {
	s.connsMu.Lock()
	s.conns[conn] = struct{}{}
	s.connsMu.Unlock()
	s.stats.ActiveConnections.Add(1)
}

func (s *Server) untrackConnection(conn net.Conn) {
	s.connsMu.Lock()
	delete(s.conns, conn)
	s.connsMu.Unlock()
	s.stats.ActiveConnections.Add(-1)
}

func (s *Server) closeAllConnections() {
	s.connsMu.Lock()
	conns := make([]net.Conn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connsMu.Unlock()

	for _, conn := range conns {
		conn.Close()
	}
}

// Shutdown stops accepting new connections and waits for in-flight ones to
// finish, or forces them closed once ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}

	if s.listener != nil {
		s.listener.Close()
	}
	close(s.done)

	shutdownComplete := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(shutdownComplete)
	}()

	select {
	case <-shutdownComplete:
		return nil
	case <-ctx.Done():
		s.closeAllConnections()
		return ctx.Err()
	}
}

// Close immediately closes the listener and all tracked connections.
func (s *Server) Close() error {
	if !s.shutdown.CompareAndSwap(false, true) {
		return nil
	}
	if s.listener != nil {
		s.listener.Close()
	}
	close(s.done)
	s.closeAllConnections()
	s.wg.Wait()
	return nil
}
