// Package http is the inbound HTTP adapter: the gin engine, its
// middleware chain and the session, quote and operational routes.
package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quote-session/internal/platform/config"
)

// Server owns the listener and the gin engine routes are mounted on.
type Server struct {
	engine *gin.Engine
	srv    *http.Server
	logger *slog.Logger
	bound  atomic.Pointer[net.Addr]
}

// New prepares a server for cfg. Nothing is bound until Start.
func New(cfg *config.ServerConfig, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(limitBody(cfg.MaxRequestSize))

	return &Server{
		engine: engine,
		logger: logger.With(slog.String("component", "http.Server")),
		srv: &http.Server{
			Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:           engine,
			ReadHeaderTimeout: cfg.ReadTimeout,
			ReadTimeout:       cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       cfg.IdleTimeout,
		},
	}
}

// Engine returns the gin engine for route registration.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start binds synchronously, so a port clash fails startup, then serves
// in the background. A serve failure is sent on the returned channel,
// which closes once serving stops.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", s.srv.Addr, err)
	}

	addr := ln.Addr()
	s.bound.Store(&addr)
	s.logger.Info("listening", slog.String("addr", addr.String()))

	errs := make(chan error, 1)

	go func() {
		defer close(errs)

		err := s.srv.Serve(ln)
		if !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("serving http: %w", err)
		}
	}()

	return errs, nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("draining connections")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	return nil
}

// Addr is the bound address after Start and the configured one before.
func (s *Server) Addr() string {
	if a := s.bound.Load(); a != nil {
		return (*a).String()
	}

	return s.srv.Addr
}

// limitBody caps request bodies at n bytes. Reads past the cap fail, which
// the binders report as a 400.
func limitBody(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil && c.Request.Body != http.NoBody {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		}

		c.Next()
	}
}
