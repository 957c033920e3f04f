// Package daemon runs the HTTP API together with its background workers.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/felixgeelhaar/codemastery/internal/api"
	"github.com/felixgeelhaar/codemastery/internal/config"
	"github.com/felixgeelhaar/codemastery/internal/queue"
	"github.com/felixgeelhaar/codemastery/internal/repository"
	"github.com/felixgeelhaar/codemastery/internal/storage"
)

// Server represents the CodeMastery daemon
type Server struct {
	cfg    *config.Config
	app    *api.App
	server *http.Server

	// Event relay, nil when RABBITMQ_URL is unset
	conn  *queue.Connection
	relay *queue.Relay

	// Lifetime of the background workers
	workers context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// ServerConfig holds configuration for creating a new server
type ServerConfig struct {
	Config *config.Config
	DB     *storage.DB
}

// NewServer wires the application and, when configured, the event relay
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	s := &Server{
		cfg: cfg.Config,
		app: api.NewApp(cfg.Config, cfg.DB),
	}
	s.workers, s.cancel = context.WithCancel(ctx)

	if cfg.Config.RelayEnabled() {
		conn, err := queue.NewConnection(cfg.Config.RabbitMQURL, cfg.Config.EventsExchange)
		if err != nil {
			s.cancel()
			return nil, fmt.Errorf("connect event bus: %w", err)
		}
		s.conn = conn
		publisher := queue.NewResilientPublisher(queue.NewProducer(conn), queue.DefaultResilientConfig())
		s.relay = queue.NewRelay(repository.NewSQLUnitOfWork(cfg.DB), publisher, cfg.Config.OutboxPoll)
	}

	s.server = &http.Server{
		Addr:              cfg.Config.Addr(),
		Handler:           api.NewRouter(s.app),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return s, nil
}

// Handler returns the HTTP handler with its middleware chain
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start listens on the configured address and serves until Shutdown
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ln)
}

// Serve runs the background workers and serves HTTP on ln
func (s *Server) Serve(ln net.Listener) error {
	ctx := s.workers

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.app.Limiter.Run(ctx)
	}()

	if s.relay != nil {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.relay.Run(ctx)
		}()
	}

	slog.Info("starting codemastery daemon",
		"addr", ln.Addr().String(),
		"version", api.Version,
		"database", s.cfg.DatabaseDriver,
		"relay", s.relay != nil,
	)
	return s.server.Serve(ln)
}

// Shutdown stops accepting requests, drains in-flight ones and stops workers
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down daemon...")

	err := s.server.Shutdown(ctx)

	s.cancel()
	s.wg.Wait()

	if s.conn != nil {
		if closeErr := s.conn.Close(); closeErr != nil {
			slog.Warn("failed to close event bus connection", "error", closeErr)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("shutdown timed out: %w", err)
	}
	return err
}
