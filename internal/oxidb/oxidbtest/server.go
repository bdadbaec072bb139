// Package oxidbtest runs an in-process oxidb-server stand-in for tests.
package oxidbtest

import (
	"encoding/json"
	"net"
	"strconv"
	"sync"
	"testing"

	"github.com/talavis/OrderPortal/internal/oxidb"
)

// HandlerFunc answers one decoded request with a response document such as
// {"ok": true, "data": ...}.
type HandlerFunc func(req map[string]any) map[string]any

// Server accepts any number of connections and answers every request with
// its handler.
type Server struct {
	ln      net.Listener
	handler HandlerFunc

	mu       sync.Mutex
	requests []map[string]any
	conns    int
}

// NewServer starts a server on a loopback port and stops it when the test ends.
func NewServer(t testing.TB, handler HandlerFunc) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{ln: ln, handler: handler}
	go s.serve()
	t.Cleanup(func() { ln.Close() })
	return s
}

// OK builds a success response.
func OK(data any) map[string]any {
	return map[string]any{"ok": true, "data": data}
}

// Fail builds an error response.
func Fail(msg string) map[string]any {
	return map[string]any{"ok": false, "error": msg}
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.ln.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.ln.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Requests returns every request received so far, in arrival order.
func (s *Server) Requests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests...)
}

// Commands returns the "cmd" of every request received so far.
func (s *Server) Commands() []string {
	var cmds []string
	for _, r := range s.Requests() {
		cmd, _ := r["cmd"].(string)
		cmds = append(cmds, cmd)
	}
	return cmds
}

// Conns returns the number of accepted connections.
func (s *Server) Conns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns
}

func (s *Server) serve() {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns++
		s.mu.Unlock()
		go s.handle(conn)
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	for {
		frame, err := oxidb.ReadFrame(conn)
		if err != nil {
			return
		}
		var req map[string]any
		if err := json.Unmarshal(frame, &req); err != nil {
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.mu.Unlock()

		resp := s.handler(req)
		if resp == nil {
			// no answer: lets tests exercise deadlines
			continue
		}
		out, err := json.Marshal(resp)
		if err != nil {
			return
		}
		if err := oxidb.WriteFrame(conn, out); err != nil {
			return
		}
	}
}
