package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/formstate/internal/events"
	"github.com/muurk/formstate/internal/form"
	"github.com/muurk/formstate/internal/logging"
	"github.com/muurk/formstate/internal/version"
)

// DefaultAddr is the listen address used when Config.Addr is empty.
const DefaultAddr = "127.0.0.1:8765"

// Config holds the bridge configuration
type Config struct {
	Addr     string // host:port to listen on; port 0 picks a free port
	CertPath string // TLS certificate file (optional, enables TLS with KeyPath)
	KeyPath  string // TLS private key file
}

// Server bridges websocket clients to a form controller. Clients publish
// field events; every controller change is pushed back to all of them.
type Server struct {
	config    Config
	ctrl      *form.Controller
	pub       events.Publisher
	tlsConfig *tls.Config
	httpSrv   *http.Server
	listener  net.Listener
	unwatch   func()
	wg        sync.WaitGroup

	mu      sync.Mutex
	clients map[string]*client
	closing bool
	lastRev uint64 // highest snapshot revision queued to clients
}

// New creates a bridge for ctrl. Events received from clients are handed to
// pub, which is normally the bus ctrl is subscribed to.
func New(config Config, ctrl *form.Controller, pub events.Publisher) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("controller is required")
	}
	if pub == nil {
		return nil, errors.New("event publisher is required")
	}
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}

	s := &Server{
		config:  config,
		ctrl:    ctrl,
		pub:     pub,
		clients: make(map[string]*client),
	}

	if config.CertPath != "" || config.KeyPath != "" {
		tlsConfig, err := NewTLSConfig(config.CertPath, config.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create TLS config: %w", err)
		}
		s.tlsConfig = tlsConfig
	}

	s.unwatch = ctrl.Watch(s.broadcast)
	return s, nil
}

// Handler returns the bridge's HTTP routes.
//
//	/events   websocket: JSON events in, JSON state messages out
//	/state    GET: current snapshot as JSON
//	/version  GET: build information
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", s.handleEvents)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/version", handleVersion)
	return mux
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.ctrl.Snapshot())
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, version.Info())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Debug("Failed to encode response", zap.Error(err))
	}
}

// Listen binds the configured address. Start calls it when needed; calling
// it first lets the caller learn the port before serving.
func (s *Server) Listen() error {
	if s.listener != nil {
		return nil
	}

	var (
		listener net.Listener
		err      error
	)
	if s.tlsConfig != nil {
		listener, err = tls.Listen("tcp", s.config.Addr, s.tlsConfig)
	} else {
		listener, err = net.Listen("tcp", s.config.Addr)
	}
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}

// Port returns the bound TCP port, or 0 before Listen.
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Start serves until ctx is cancelled or the listener fails, then shuts the
// bridge down.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}

	scheme := "ws"
	if s.tlsConfig != nil {
		scheme = "wss"
		logging.Info("TLS Configuration", zap.Any("tls_info", GetTLSInfo(s.tlsConfig)))
	}
	logging.Info("Event bridge listening",
		zap.String("addr", s.Addr()),
		zap.String("url", fmt.Sprintf("%s://%s/events", scheme, s.Addr())),
		zap.String("form", s.ctrl.Name()),
	)

	s.httpSrv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.httpSrv.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		logging.Info("Shutdown requested, stopping bridge...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		_ = s.Shutdown(context.Background())
		return fmt.Errorf("bridge stopped: %w", err)
	}
}

// Shutdown stops watching the controller, closes the listener and every
// client, and waits for client goroutines to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down bridge...")

	s.unwatch()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Error stopping HTTP server", zap.Error(err))
		}
	} else if s.listener != nil {
		_ = s.listener.Close()
	}

	// Hijacked websocket connections are not closed by http.Server.Shutdown.
	s.mu.Lock()
	s.closing = true
	clients := make([]*client, 0, len(s.clients))
	for id, c := range s.clients {
		clients = append(clients, c)
		delete(s.clients, id)
	}
	s.mu.Unlock()

	for _, c := range clients {
		logging.Info("Closing active connection", zap.String("remote_addr", c.addr))
		c.close()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logging.Info("All connections closed gracefully")
	case <-ctx.Done():
		logging.Warn("Shutdown timeout, forcing close")
	case <-time.After(10 * time.Second):
		logging.Warn("Shutdown timeout after 10 seconds, forcing close")
	}

	logging.Sync()
	return nil
}

// ActiveClients returns the number of connected websocket clients
func (s *Server) ActiveClients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}
