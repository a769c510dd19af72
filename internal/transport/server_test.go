package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/ember/internal/wire"
)

func startTestServer(t *testing.T, handler Handler) (addr string, srv *Server) {
	t.Helper()

	config := DefaultConfig()
	config.Addr = "127.0.0.1:0"
	config.Handler = handler

	srv = NewServer(config)

	ln, err := net.Listen("tcp", config.Addr)
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	go srv.Serve(ln)
	t.Cleanup(func() { srv.Close() })

	return ln.Addr().String(), srv
}

func TestServerSimpleRequest(t *testing.T) {
	addr, _ := startTestServer(t, func(w *wire.ResponseWriter, r *wire.Request) {
		w.WriteHeader(200)
		w.Write([]byte("OK"))
	})

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(statusLine, "200") {
		t.Errorf("status line = %q, want 200", statusLine)
	}
}

func TestServerStatsTrackRequests(t *testing.T) {
	addr, srv := startTestServer(t, func(w *wire.ResponseWriter, r *wire.Request) {
		w.WriteHeader(204)
	})

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	reader := bufio.NewReader(conn)
	if _, err := reader.ReadString('\n'); err != nil {
		t.Fatalf("read: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for srv.Stats().TotalRequests.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	if srv.Stats().TotalRequests.Load() == 0 {
		t.Error("expected TotalRequests to be tracked")
	}
	if srv.Stats().TotalConnections.Load() == 0 {
		t.Error("expected TotalConnections to be tracked")
	}
}

func TestServerHijackLeavesConnectionOpen(t *testing.T) {
	hijacked := make(chan net.Conn, 1)

	addr, _ := startTestServer(t, func(w *wire.ResponseWriter, r *wire.Request) {
		conn, _, err := w.Hijack()
		if err != nil {
			t.Errorf("Hijack failed: %v", err)
			return
		}
		hijacked <- conn
	})

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "GET /upgrade HTTP/1.1\r\nHost: localhost\r\nConnection: Upgrade\r\nUpgrade: websocket\r\n\r\n")

	select {
	case raw := <-hijacked:
		raw.Write([]byte("hello over raw conn"))
		buf := make([]byte, 32)
		conn.SetReadDeadline(time.Now().Add(time.Second))
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("expected to read the hijacked write, got error: %v", err)
		}
		if !strings.Contains(string(buf[:n]), "hello over raw conn") {
			t.Errorf("client did not receive the hijacked handler's bytes: %q", buf[:n])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler never hijacked the connection")
	}
}

func TestServerShutdownWaitsForInFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	addr, srv := startTestServer(t, func(w *wire.ResponseWriter, r *wire.Request) {
		close(started)
		<-release
		w.WriteHeader(200)
		w.Write([]byte("done"))
	})

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	fmt.Fprintf(conn, "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	<-started

	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- srv.Shutdown(context.Background())
	}()

	select {
	case <-shutdownDone:
		t.Fatal("Shutdown returned before the in-flight request finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)

	select {
	case err := <-shutdownDone:
		if err != nil {
			t.Errorf("Shutdown returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Shutdown did not return after releasing the in-flight request")
	}
}
