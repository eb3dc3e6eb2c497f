package portal

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// CredentialSink is the write surface the portal needs on the credential
// manager. Submitted credentials are committed into the sink's in-memory
// client record; persisting them stays with the boot protocol.
type CredentialSink interface {
	SetClientConfig(ssid, password string) error
	APSSID() string
	IsClientReady() bool
}

// ServerConfig holds portal server configuration
type ServerConfig struct {
	Addr         string
	ReadTimeout  int // seconds
	WriteTimeout int // seconds
	IdleTimeout  int // seconds
}

// DefaultServerConfig returns default portal server configuration
func DefaultServerConfig(addr string) *ServerConfig {
	return &ServerConfig{
		Addr:         addr,
		ReadTimeout:  30,
		WriteTimeout: 30,
		IdleTimeout:  120,
	}
}

// Server is the local provisioning portal. It serves a setup form bound to
// the device's AP identity and blocks in Acquire until an operator submits
// client credentials or the context expires.
type Server struct {
	sink       CredentialSink
	logger     *logrus.Logger
	router     *mux.Router
	httpServer *http.Server
	wsHub      *statusHub

	mu        sync.Mutex
	submitted bool
	done      chan struct{}
}

// NewServer creates a portal server over the given sink.
func NewServer(sink CredentialSink, cfg *ServerConfig, logger *logrus.Logger) *Server {
	s := &Server{
		sink:   sink,
		logger: logger,
		router: mux.NewRouter(),
		wsHub:  newStatusHub(logger),
		done:   make(chan struct{}),
	}

	s.router.Use(s.loggingMiddleware)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.IdleTimeout) * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/", s.handleSetupPage).Methods(http.MethodGet)
	s.router.HandleFunc("/api/v1/credentials", s.handleSubmitCredentials).Methods(http.MethodPost)
	s.router.HandleFunc("/api/v1/status", s.handleStatus).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/status", s.wsHub.handleConnect).Methods(http.MethodGet)
}

// Acquire runs the portal until an operator confirms a submission or ctx
// expires, then shuts the server down. It reports whether new client
// credentials were committed into the sink.
func (s *Server) Acquire(ctx context.Context) (bool, error) {
	s.logger.WithFields(logrus.Fields{
		"addr":    s.httpServer.Addr,
		"ap_ssid": s.sink.APSSID(),
	}).Info("Starting provisioning portal")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	var acquireErr error
	select {
	case <-s.done:
		// Operator confirmed a submission.
	case <-ctx.Done():
		acquireErr = fmt.Errorf("provisioning portal closed: %w", ctx.Err())
	case err := <-errCh:
		acquireErr = fmt.Errorf("provisioning portal failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.WithError(err).Warn("Portal shutdown was not clean")
	}
	s.wsHub.stop()

	if acquireErr != nil {
		return false, acquireErr
	}
	s.logger.Info("Provisioning portal received new client credentials")
	return true, nil
}

// markSubmitted records the first confirmed submission and releases Acquire.
func (s *Server) markSubmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return
	}

	s.submitted = true
	close(s.done)
}

// loggingMiddleware logs every portal request with structured fields.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      lrw.statusCode,
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_addr": r.RemoteAddr,
		}).Info("Portal request")
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture the status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

// Hijack keeps the websocket upgrade working through the logging wrapper.
func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := lrw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return hijacker.Hijack()
}
