// Package http implements the proxy with the standard http server. Each
// request is tagged with a unique identifier and logged, and the number of
// simultaneous connections is bounded.
package http

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"go.dedis.ch/tdec"
	"golang.org/x/net/netutil"
)

type key int

const (
	requestIDKey key = 0

	// RequestIDHeader is the header carrying the identifier of a request.
	RequestIDHeader = "X-Request-Id"

	// DefaultMaxConns is the default number of simultaneous connections.
	DefaultMaxConns = 256

	shutdownTimeout = 10 * time.Second
)

// Option is the type of option to set some fields of the proxy.
type Option func(*HTTP)

// WithMaxConns sets the maximum number of simultaneous connections.
func WithMaxConns(num int) Option {
	return func(h *HTTP) {
		if num > 0 {
			h.maxConns = num
		}
	}
}

// HTTP defines a proxy http
//
// - implements proxy.Proxy
type HTTP struct {
	sync.Mutex

	mux        *http.ServeMux
	server     *http.Server
	logger     zerolog.Logger
	listenAddr string
	maxConns   int
	ln         net.Listener
	quit       chan struct{}
	stopOnce   sync.Once
}

// NewHTTP creates a new proxy http. An empty address uses a random free port
// on the loopback interface.
func NewHTTP(listenAddr string, opts ...Option) *HTTP {
	logger := tdec.Logger.With().Str("role", "http proxy").Logger()

	if listenAddr == "" {
		listenAddr = "127.0.0.1:0"
	}

	nextRequestID := func() string {
		return xid.New().String()
	}

	mux := http.NewServeMux()

	h := &HTTP{
		mux:        mux,
		logger:     logger,
		listenAddr: listenAddr,
		maxConns:   DefaultMaxConns,
		quit:       make(chan struct{}),
	}

	for _, opt := range opts {
		opt(h)
	}

	h.server = &http.Server{
		Handler:           tracing(nextRequestID)(logging(logger)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return h
}

// Listen implements proxy.Proxy. It blocks until the server is stopped. The
// proxy cannot listen again once it is stopped.
func (h *HTTP) Listen() {
	ln, err := net.Listen("tcp", h.listenAddr)
	if err != nil {
		h.logger.Error().Err(err).Msgf("failed to create conn '%s'", h.listenAddr)
		return
	}

	h.Lock()
	h.ln = ln
	h.Unlock()

	done := make(chan struct{})

	go func() {
		<-h.quit
		h.logger.Info().Msg("server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		h.server.SetKeepAlivesEnabled(false)

		err := h.server.Shutdown(ctx)
		if err != nil {
			h.logger.Err(err).Msg("could not gracefully shutdown the server")
		}

		close(done)
	}()

	h.logger.Info().
		Int("maxConns", h.maxConns).
		Msgf("server is ready to handle requests at http://%s", ln.Addr())

	err = h.server.Serve(netutil.LimitListener(ln, h.maxConns))
	if err != nil && err != http.ErrServerClosed {
		h.logger.Err(err).Msgf("failed to serve on %s", ln.Addr())
	}

	<-done

	h.Lock()
	h.ln = nil
	h.Unlock()

	h.logger.Info().Msg("server stopped")
}

// Stop implements proxy.Proxy. It can be called multiple times.
func (h *HTTP) Stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// RegisterHandler implements proxy.Proxy.
func (h *HTTP) RegisterHandler(path string, handler func(http.ResponseWriter,
	*http.Request)) {

	h.mux.HandleFunc(path, handler)
}

// GetAddr implements proxy.Proxy.
func (h *HTTP) GetAddr() net.Addr {
	h.Lock()
	defer h.Unlock()

	if h.ln == nil {
		return nil
	}

	return h.ln.Addr()
}

// RequestID returns the identifier of the request, or "unknown" if the request
// did not go through the proxy.
func RequestID(r *http.Request) string {
	requestID, ok := r.Context().Value(requestIDKey).(string)
	if !ok {
		return "unknown"
	}

	return requestID
}

// statusRecorder keeps the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logging is a utility function that logs the http server events
func logging(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			defer func() {
				logger.Info().Str("requestID", RequestID(r)).
					Str("method", r.Method).
					Str("url", r.URL.Path).
					Int("status", rec.status).
					Dur("duration", time.Since(start)).
					Str("remoteAddr", r.RemoteAddr).
					Str("agent", r.UserAgent()).Msg("")
			}()

			next.ServeHTTP(rec, r)
		})
	}
}

// tracing is a utility function that adds header tracing
func tracing(nextRequestID func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if requestID == "" {
				requestID = nextRequestID()
			}

			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			w.Header().Set(RequestIDHeader, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
