package httpserver

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// Server timeouts. There is no write timeout: upgraded connections outlive
// the request, and each frame carries its own deadline.
const (
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second
)

// Server wraps http.Server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
}

// New creates a server listening on addr.
func New(addr string, handler http.Handler) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: DefaultReadHeaderTimeout,
			IdleTimeout:       DefaultIdleTimeout,
		},
		handler: handler,
	}
}

// SetTLSConfig sets the TLS configuration used by ListenAndServeTLS.
func (s *Server) SetTLSConfig(cfg *tls.Config) {
	s.httpServer.TLSConfig = cfg
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// ListenAndServeTLS starts the HTTPS server.
func (s *Server) ListenAndServeTLS(certFile, keyFile string) error {
	return s.httpServer.ListenAndServeTLS(certFile, keyFile)
}

// Serve accepts connections on ln.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// ServeTLS accepts TLS connections on ln.
func (s *Server) ServeTLS(ln net.Listener, certFile, keyFile string) error {
	return s.httpServer.ServeTLS(ln, certFile, keyFile)
}

// Shutdown stops accepting requests and waits for in-flight HTTP requests.
// Hijacked WebSocket connections are not tracked here; close them through
// the WebSocket server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
