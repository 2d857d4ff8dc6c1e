package inbound

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

const (
	DefaultAddr            = ":8000"
	DefaultShutdownTimeout = 10 * time.Second
)

type ServerConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// Server runs a Handler until its context is cancelled, then drains open
// requests for at most ShutdownTimeout.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          glog.Logger
}

func NewServer(cfg ServerConfig, handler http.Handler, logger glog.Logger) *Server {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = DefaultAddr
	}
	readHeader := cfg.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = 5 * time.Second
	}
	shutdown := cfg.ShutdownTimeout
	if shutdown <= 0 {
		shutdown = DefaultShutdownTimeout
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeader,
		},
		shutdownTimeout: shutdown,
		logger:          glog.Ensure(logger),
	}
}

func (s *Server) Addr() string {
	return s.httpServer.Addr
}

func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listener)
}

func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inbound server listening", "addr", listener.Addr().String())
		errCh <- s.httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	s.logger.Info("inbound server shutting down")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
