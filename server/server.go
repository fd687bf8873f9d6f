// Package server exposes the transformation pipelines as a JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geoknoesis/shacl-go/format"
	"github.com/geoknoesis/shacl-go/rdf"
	"github.com/geoknoesis/shacl-go/transform"
)

const (
	// DefaultCacheSize is the number of parsed shapes graphs kept.
	DefaultCacheSize = 128
	// DefaultMaxBodyBytes bounds request bodies.
	DefaultMaxBodyBytes = 16 << 20
	// RequestIDHeader carries the request ID in both directions.
	RequestIDHeader = "X-Request-ID"
)

type ctxKey struct{}

// RequestID returns the ID assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. A nil logger uses slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithCacheSize sets how many parsed shapes graphs are cached.
func WithCacheSize(n int) Option {
	return func(s *Server) { s.cacheSize = n }
}

// WithRegistry registers the HTTP metrics with reg and serves reg on
// /metrics. Engine metrics should be registered with the same registry.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) { s.registry = reg }
}

// WithMaxBodyBytes bounds request bodies.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// Server serves the pipelines of a transform.Engine.
type Server struct {
	engine    *transform.Engine
	cache     *lru.Cache[uint64, *rdf.Graph]
	cacheSize int
	maxBody   int64
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	cacheHits *prometheus.CounterVec
	logger    *slog.Logger
}

// New creates a Server over engine.
func New(engine *transform.Engine, opts ...Option) (*Server, error) {
	s := &Server{engine: engine, cacheSize: DefaultCacheSize, maxBody: DefaultMaxBodyBytes}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}
	cache, err := lru.New[uint64, *rdf.Graph](s.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create shapes cache: %w", err)
	}
	s.cache = cache
	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shaclx",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests by route and status",
	}, []string{"route", "status"})
	s.cacheHits = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "shaclx",
		Subsystem: "http",
		Name:      "shapes_cache_lookups_total",
		Help:      "Parsed shapes cache lookups by result",
	}, []string{"result"})
	for _, c := range []prometheus.Collector{s.requests, s.cacheHits} {
		if err := s.registry.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/convert", s.instrument("convert", s.handleConvert))
	mux.HandleFunc("POST /v1/apply", s.instrument("apply", s.handleApply))
	mux.HandleFunc("POST /v1/validate", s.instrument("validate", s.handleValidate))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	return mux
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", slog.String("addr", addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// instrument assigns a request ID, bounds the body, and counts and logs
// the request.
func (s *Server) instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(context.WithValue(r.Context(), ctxKey{}, id))
		r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next(sw, r)

		s.requests.WithLabelValues(route, fmt.Sprint(sw.status)).Inc()
		s.logger.Info("request",
			slog.String("request_id", id),
			slog.String("route", route),
			slog.Int("status", sw.status),
			slog.Duration("duration", time.Since(start)))
	}
}

// shapes parses a shapes document, reusing earlier parses of identical
// documents. Cached graphs are shared and must not be mutated.
func (s *Server) shapes(ctx context.Context, doc, hint string) (*rdf.Graph, error) {
	c := format.Resolve(hint)
	if hint == "" {
		c = format.Turtle
	}
	h := xxhash.New()
	_, _ = h.WriteString(string(c))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(doc)
	key := h.Sum64()
	if g, ok := s.cache.Get(key); ok {
		s.cacheHits.WithLabelValues("hit").Inc()
		return g, nil
	}
	s.cacheHits.WithLabelValues("miss").Inc()
	in, err := s.engine.Decode(ctx, []byte(doc), c)
	if err != nil {
		return nil, err
	}
	if in.Kind != transform.InputGraph {
		return nil, fmt.Errorf("%w: shapes must be RDF, got %s", format.ErrUnsupportedFormat, c)
	}
	s.cache.Add(key, in.Graph)
	return in.Graph, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to write JSON response", "error", err)
	}
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := transform.Code(err)
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		code = transform.ErrCodeLimitExceeded
	}
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", slog.String("request_id", RequestID(r.Context())), slog.String("error", err.Error()))
	}
	s.writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: string(code), RequestID: RequestID(r.Context())})
}

func statusFor(code transform.ErrorCode) int {
	switch code {
	case transform.ErrCodeUnsupportedFormat,
		transform.ErrCodeMissingRequiredInput,
		transform.ErrCodeParseError,
		transform.ErrCodeInvalidSchema,
		transform.ErrCodeDepthExceeded:
		return http.StatusBadRequest
	case transform.ErrCodeUnsupportedValueKind:
		return http.StatusUnprocessableEntity
	case transform.ErrCodeLimitExceeded:
		return http.StatusRequestEntityTooLarge
	case transform.ErrCodeTransformerUnavailable:
		return http.StatusNotImplemented
	case transform.ErrCodeTransformerFailure:
		return http.StatusBadGateway
	case transform.ErrCodeContextCanceled:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
