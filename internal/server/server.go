package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Routes registers handlers on the engine
type Routes interface {
	RegisterRoutes(router gin.IRoutes)
}

// NewEngine builds the gin engine serving the webhook. Middleware runs before
// every route in the order given.
func NewEngine(routes Routes, middleware ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware...)

	routes.RegisterRoutes(r)
	return r
}

// Server runs the HTTP listener until its context is cancelled.
type Server struct {
	srv             *http.Server
	shutdownTimeout time.Duration
	logger          *slog.Logger
}

// NewServer creates a server listening on addr. A zero shutdownTimeout closes
// all connections as soon as the context is cancelled; a positive one lets
// in-flight requests finish for up to that long.
func NewServer(addr string, handler http.Handler, shutdownTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: shutdownTimeout,
		logger:          logger,
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done or the listener fails.
// A cancelled context is a normal stop and returns nil.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("server_listening", "addr", ln.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
		s.logger.Info("received_shutdown_signal", "graceful", s.shutdownTimeout > 0)
	}

	if err := s.stop(); err != nil {
		return err
	}
	<-errCh
	s.logger.Info("server_stopped")
	return nil
}

func (s *Server) stop() error {
	if s.shutdownTimeout <= 0 {
		return s.srv.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(ctx); err != nil {
		s.logger.Warn("graceful shutdown timed out, closing connections", "error", err)
		return s.srv.Close()
	}
	return nil
}
