// SPDX-License-Identifier: MPL-2.0

package sshserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/keygen"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/logging"

	"github.com/vosemu/vosemu/internal/dispatch"
	"github.com/vosemu/vosemu/internal/session"
)

type (
	// SessionFactory creates the emulator session for one connection. term is
	// nil when the client did not request a pty.
	SessionFactory func(term session.TerminalSizer) *session.Session

	// Clock supplies token timestamps.
	Clock interface {
		Now() time.Time
	}

	// Config holds immutable configuration for the SSH server.
	Config struct {
		// Host is the address to bind to (default: 127.0.0.1).
		Host string
		// Port is the port to listen on (0 = auto-select).
		Port int
		// HostKeyPath is the ed25519 host key, created when missing. Empty
		// means an ephemeral key generated at start.
		HostKeyPath string
		// TokenTTL is how long access tokens are valid (default: 12h).
		TokenTTL time.Duration
		// TokenSweepInterval is how often expired tokens are pruned (default: 5m).
		TokenSweepInterval time.Duration
		// IdleTimeout closes connections without traffic (0 = never).
		IdleTimeout time.Duration
		// ShutdownTimeout bounds graceful shutdown (default: 10s).
		ShutdownTimeout time.Duration
		// StartupTimeout bounds Start (default: 5s).
		StartupTimeout time.Duration
	}

	// Option configures a Server.
	Option func(*Server)

	// Server serves emulator sessions over SSH. A Server is single-use: once
	// stopped or failed, create a new instance.
	Server struct {
		cfg        Config
		dispatcher *dispatch.Dispatcher
		newSession SessionFactory
		life       *lifecycle

		srvMu    sync.Mutex
		srv      *ssh.Server
		listener net.Listener
		addr     string

		tokenMu sync.RWMutex
		tokens  map[string]*Token

		clock  Clock
		logger *log.Logger
	}

	realClock struct{}
)

func (realClock) Now() time.Time { return time.Now() }

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "127.0.0.1",
		TokenTTL:           12 * time.Hour,
		TokenSweepInterval: 5 * time.Minute,
		ShutdownTimeout:    10 * time.Second,
		StartupTimeout:     5 * time.Second,
	}
}

// WithLogger sets the server logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithClock sets the token clock.
func WithClock(c Clock) Option {
	return func(s *Server) { s.clock = c }
}

// New creates a server that runs lines through d against sessions made by
// newSession. Call Start to begin accepting connections.
func New(cfg Config, d *dispatch.Dispatcher, newSession SessionFactory, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.Host == "" {
		cfg.Host = def.Host
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = def.TokenTTL
	}
	if cfg.TokenSweepInterval <= 0 {
		cfg.TokenSweepInterval = def.TokenSweepInterval
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}
	if cfg.StartupTimeout <= 0 {
		cfg.StartupTimeout = def.StartupTimeout
	}

	s := &Server{
		cfg:        cfg,
		dispatcher: d,
		newSession: newSession,
		life:       newLifecycle(),
		tokens:     make(map[string]*Token),
		clock:      realClock{},
		logger:     log.NewWithOptions(os.Stderr, log.Options{Prefix: "ssh-server"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) hostKeyOption() ssh.Option {
	if s.cfg.HostKeyPath != "" {
		return wish.WithHostKeyPath(s.cfg.HostKeyPath)
	}
	kp, err := keygen.New("", keygen.WithKeyType(keygen.Ed25519))
	if err != nil {
		return func(*ssh.Server) error { return fmt.Errorf("generate host key: %w", err) }
	}
	return wish.WithHostKeyPEM(kp.RawPrivateKey())
}

// Start starts the SSH server and blocks until it accepts connections, fails
// to start, ctx is cancelled or the startup timeout passes. After Start
// returns nil, use Err to monitor runtime errors.
func (s *Server) Start(ctx context.Context) error {
	if err := s.life.toStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.life.toFailed(fmt.Errorf("failed to listen on %s: %w", addr, err))
		return s.life.lastError()
	}

	opts := []ssh.Option{
		wish.WithAddress(listener.Addr().String()),
		s.hostKeyOption(),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithPasswordAuth(s.passwordHandler),
		wish.WithMiddleware(
			s.sessionMiddleware(),
			logging.StructuredMiddlewareWithLogger(s.logger, log.DebugLevel),
		),
	}
	if s.cfg.IdleTimeout > 0 {
		opts = append(opts, wish.WithIdleTimeout(s.cfg.IdleTimeout))
	}
	srv, err := wish.NewServer(opts...)
	if err != nil {
		_ = listener.Close()
		s.life.toFailed(fmt.Errorf("failed to create SSH server: %w", err))
		return s.life.lastError()
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	s.life.wg.Add(2)
	go s.serve()
	go s.cleanupExpiredTokens()

	select {
	case <-s.life.startedCh:
		s.logger.Info("SSH server started", "address", s.addr)
		return nil
	case err := <-s.life.errCh:
		s.life.toFailed(err)
		return err
	case <-startupCtx.Done():
		s.life.toFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.life.lastError()
	}
}

func (s *Server) serve() {
	defer s.life.wg.Done()

	s.life.toRunning()

	s.srvMu.Lock()
	srv, listener := s.srv, s.listener
	s.srvMu.Unlock()

	err := srv.Serve(listener)
	if err == nil || errors.Is(err, ssh.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	s.life.sendError(fmt.Errorf("serve error: %w", err))
}

// Stop shuts the server down gracefully, waiting up to the shutdown timeout
// for open sessions. It is safe to call more than once.
func (s *Server) Stop() error {
	if !s.life.toStopping() {
		s.life.wg.Wait()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var shutdownErr error
	s.srvMu.Lock()
	if s.srv != nil {
		if err := s.srv.Shutdown(ctx); err != nil && !errors.Is(err, net.ErrClosed) {
			s.logger.Error("shutdown error", "error", err)
			shutdownErr = err
		}
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.srvMu.Unlock()

	s.life.wg.Wait()
	s.life.state.Store(int32(StateStopped))
	close(s.life.errCh)
	s.logger.Info("SSH server stopped")
	return shutdownErr
}

// Wait blocks until the server's goroutines exit and returns the failure
// that stopped it, if any.
func (s *Server) Wait() error {
	s.life.wg.Wait()
	if s.State() == StateFailed {
		return s.life.lastError()
	}
	return nil
}

// Err returns a channel of fatal runtime errors. It is closed by Stop.
func (s *Server) Err() <-chan error { return s.life.errCh }

// State returns the current lifecycle state.
func (s *Server) State() State { return s.life.current() }

// IsRunning reports whether the server is accepting connections.
func (s *Server) IsRunning() bool { return s.State() == StateRunning }

// Address returns the bound host:port, or "" before a successful start.
func (s *Server) Address() string {
	select {
	case <-s.life.startedCh:
		s.srvMu.Lock()
		defer s.srvMu.Unlock()
		return s.addr
	default:
		return ""
	}
}

// Port returns the bound port, or 0 before a successful start.
func (s *Server) Port() int {
	_, port, err := net.SplitHostPort(s.Address())
	if err != nil {
		return 0
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0
	}
	return n
}
