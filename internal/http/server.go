// Package http exposes the voice pipeline over HTTP.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/roelfdiedericks/voicegate/internal/logging"
	"github.com/roelfdiedericks/voicegate/internal/metrics"
	"github.com/roelfdiedericks/voicegate/internal/pipeline"
)

// Runner runs one request through the pipeline.
type Runner interface {
	Run(ctx context.Context, requestID string, pcm []byte) pipeline.Result
}

// Providers names the backends in use, reported by /healthz.
type Providers struct {
	STT string `json:"stt"`
	LLM string `json:"llm"`
	TTS string `json:"tts"`
}

// Server represents the HTTP server
type Server struct {
	server    *http.Server
	runner    Runner
	providers Providers
	metrics   *metrics.Metrics
	maxBody   int64
	wg        sync.WaitGroup

	mu   sync.Mutex
	addr string // bound address once started
}

// NewServer creates a new HTTP server instance. m may be nil.
func NewServer(cfg Config, runner Runner, providers Providers, m *metrics.Metrics) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if runner == nil {
		return nil, fmt.Errorf("http: pipeline runner is nil")
	}

	s := &Server{
		runner:    runner,
		providers: providers,
		metrics:   m,
		maxBody:   cfg.MaxBodyBytes,
	}
	s.server = &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.setupRoutes(),
		ReadTimeout:       cfg.readTimeout(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.writeTimeout(),
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()

	// Apply middleware chain: logging -> request ID -> strip headers
	wrap := func(route string, h http.HandlerFunc) http.HandlerFunc {
		return s.logRequest(route, s.requestID(s.stripHeaders(h)))
	}

	mux.HandleFunc("/voice_input", wrap("/voice_input", s.handleVoiceInput))
	mux.HandleFunc("/healthz", wrap("/healthz", s.handleHealth))
	mux.Handle("/metrics", s.metrics.Handler())

	return mux
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("http: listen on %s: %w", s.server.Addr, err)
	}
	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		L_info("http: server starting", "addr", ln.Addr().String())

		err := s.server.Serve(ln)
		if err != nil && err != http.ErrServerClosed {
			L_error("http: server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address after Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Stop gracefully shuts down the HTTP server, letting running requests
// finish within timeout.
func (s *Server) Stop(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		L_error("http: shutdown error", "error", err)
		return err
	}

	s.wg.Wait()
	L_info("http: server stopped")
	return nil
}

type ctxKey int

const requestIDKey ctxKey = 0

// RequestID returns the correlation ID attached by the server, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestID reuses a well-formed incoming X-Request-ID or mints a new one,
// echoes it and stores it in the request context.
func (s *Server) requestID(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		handler(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	}
}

// logRequest wraps an HTTP handler to log requests
func (s *Server) logRequest(route string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(lw, r)

		s.metrics.ObserveHTTP(r.Method, route, lw.statusCode, time.Since(start))
		L_debug("http: request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", lw.statusCode,
			"bytes", lw.written,
			"request", lw.Header().Get("X-Request-ID"),
			"duration", time.Since(start))
	}
}

// loggingResponseWriter wraps ResponseWriter to capture status code
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.statusCode = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lw.ResponseWriter.Write(b)
	lw.written += n
	return n, err
}

// stripHeaders removes fingerprinting headers
func (s *Server) stripHeaders(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Del("Server")
		w.Header().Del("X-Powered-By")

		handler(w, r)
	}
}
