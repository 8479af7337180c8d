package httpx

import (
	"context"
	"net"
	"net/http"

	"github.com/gorilla/mux"
)

// Server wraps *http.Server plus a *mux.Router, dispatching requests by URL
// prefix and method the way a device host needs to: /description/... (GET),
// /control/<service> (POST SOAP actions), /event/<service> (SUBSCRIBE,
// UNSUBSCRIBE), and, on the control-point side, /clientevents (NOTIFY
// delivery), none of which ServeMux's exact-path/method matching alone can
// disambiguate.
type Server struct {
	router   *mux.Router
	server   *http.Server
	listener net.Listener
}

// NewServer builds a Server that will bind addr (host:port, port 0 for an
// ephemeral port) when Serve is called.
func NewServer(addr string) *Server {
	router := mux.NewRouter()
	return &Server{
		router: router,
		server: &http.Server{Addr: addr, Handler: router},
	}
}

// HandlePrefix registers h for every request whose path starts with
// prefix, optionally restricted to methods (no restriction if methods is
// empty).
func (s *Server) HandlePrefix(prefix string, h http.Handler, methods ...string) {
	route := s.router.PathPrefix(prefix).Handler(h)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// Handle registers h for the exact path, optionally restricted to methods.
func (s *Server) Handle(path string, h http.Handler, methods ...string) {
	route := s.router.Handle(path, h)
	if len(methods) > 0 {
		route.Methods(methods...)
	}
}

// Serve binds a new listener on the configured address and starts serving in
// the background; it returns once the listener is ready so callers can
// read Addr() immediately after.
func (s *Server) Serve() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = ln
	go func() {
		_ = s.server.Serve(ln)
	}()
	return nil
}

// Addr returns the address the server is actually bound to, resolving any
// ephemeral port chosen by the kernel.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.server.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server, waiting for in-flight requests up
// to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listener == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
