package metrics

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server serves the /metrics endpoint over HTTP.
type Server struct {
	httpServer *http.Server
}

// Start binds addr and begins serving /metrics in a background goroutine.
func Start(addr string) (*Server, error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	go func() { _ = srv.Serve(ln) }()
	return &Server{httpServer: srv}, nil
}

// Stop gracefully shuts the server down. Calling Stop on a nil Server (or
// one that was never started) is a no-op.
func (s *Server) Stop() error {
	if s == nil || s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
