package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fd1az/quote-engine/internal/logger"
)

// Server runs the quote API.
type Server struct {
	server *http.Server
	logger logger.LoggerInterface
}

// NewServer wraps h in an instrumented http.Server listening on port.
func NewServer(h *Handler, port int, readTimeout time.Duration, log logger.LoggerInterface) *Server {
	return &Server{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           otelhttp.NewHandler(h.Routes(), "quote-api"),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       readTimeout,
			// No WriteTimeout: it would cut the websocket stream. REST routes
			// carry their own deadline.
		},
		logger: log,
	}
}

// Start listens in the background. Listen errors are returned synchronously.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(ctx, "quote api stopped", "error", err)
		}
	}()

	s.logger.Info(ctx, "quote api listening", "addr", ln.Addr().String())
	return nil
}

// Stop drains in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
