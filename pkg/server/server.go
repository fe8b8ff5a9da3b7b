// Package server exposes layout resolution over HTTP.
//
// Routes:
//
//	POST /v1/resolve   resolve a layout sent in the request body
//	GET  /healthz      liveness probe
//	GET  /metrics      Prometheus metrics, when a metrics handler is set
//
// Includes are read only from the configured include directories; a request
// cannot name files outside them.
package server

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	jerrors "github.com/matzehuels/jrevolver/pkg/errors"
	"github.com/matzehuels/jrevolver/pkg/layout"
	"github.com/matzehuels/jrevolver/pkg/observability"
	"github.com/matzehuels/jrevolver/pkg/output"
	"github.com/matzehuels/jrevolver/pkg/resolve"
)

// DefaultMaxBodyBytes limits the size of a resolve request.
const DefaultMaxBodyBytes = 1 << 20

// Config configures a Server.
type Config struct {
	// IncludeDirs are searched for includes, in order. With none, every
	// include is reported as missing. Include paths may not leave these
	// directories.
	IncludeDirs []string

	MaxPermutations int
	MaxPasses       int

	// MaxBodyBytes limits request bodies. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	Logger *log.Logger
}

// Server handles resolve requests.
type Server struct {
	cfg    Config
	loader resolve.Loader
}

// New creates a Server, applying defaults to cfg.
func New(cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	s := &Server{cfg: cfg}
	if len(cfg.IncludeDirs) > 0 {
		s.loader = resolve.NewFileLoader(cfg.IncludeDirs...)
	}
	return s
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.instrument)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "ok")
	})
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}
	r.Post("/v1/resolve", s.Resolve)
	return r
}

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	Layout json.RawMessage `json:"layout"`
	// SortKeys canonicalizes object keys. Defaults to true.
	SortKeys *bool `json:"sort_keys,omitempty"`
}

// ResolveResponse is the body of a successful resolve.
type ResolveResponse struct {
	Permutations []json.RawMessage `json:"permutations"`
	// Filenames holds the expanded "--filename" template of each
	// permutation, or "" where there is none.
	Filenames []string          `json:"filenames"`
	Warnings  []resolve.Warning `json:"warnings"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Code    jerrors.Code `json:"code"`
	Message string       `json:"message"`
	Path    string       `json:"path,omitempty"`
}

// Resolve handles POST /v1/resolve.
func (s *Server) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := s.cfg.Logger.With("request_id", middleware.GetReqID(ctx))

	var req ResolveRequest
	body := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		logger.Warn("invalid request body", "err", err)
		writeError(w, http.StatusBadRequest, jerrors.Wrap(jerrors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if len(req.Layout) == 0 {
		writeError(w, http.StatusBadRequest, jerrors.New(jerrors.ErrCodeInvalidInput, "layout is required"))
		return
	}
	root, err := layout.Parse(req.Layout)
	if err != nil {
		writeError(w, http.StatusBadRequest, jerrors.Wrap(jerrors.ErrCodeInvalidLayout, err, "invalid layout"))
		return
	}

	resolver := resolve.New(resolve.Options{
		Loader:           s.loader,
		Logger:           logger,
		MaxPasses:        s.cfg.MaxPasses,
		MaxPermutations:  s.cfg.MaxPermutations,
		PreserveKeyOrder: req.SortKeys != nil && !*req.SortKeys,
		ConfineIncludes:  true,
	})

	hooks := observability.Resolve()
	hooks.OnResolveStart(ctx, "request")
	start := time.Now()
	res, err := resolver.Resolve(ctx, root)
	n := 0
	if res != nil {
		n = len(res.Permutations)
	}
	hooks.OnResolveComplete(ctx, "request", n, time.Since(start), err)

	if err != nil {
		status := http.StatusUnprocessableEntity
		switch {
		case ctx.Err() != nil:
			status = http.StatusServiceUnavailable
		case jerrors.GetCode(err) == "" || jerrors.Is(err, jerrors.ErrCodeInternal):
			status = http.StatusInternalServerError
		}
		logger.Warn("resolve failed", "status", status, "err", err)
		writeError(w, status, err)
		return
	}

	resp := ResolveResponse{
		Permutations: make([]json.RawMessage, n),
		Filenames:    make([]string, n),
		Warnings:     res.Warnings,
	}
	if resp.Warnings == nil {
		resp.Warnings = []resolve.Warning{}
	}
	for i, p := range res.Permutations {
		resp.Permutations[i] = layout.Marshal(p.Value)
		if p.Filename != "" {
			resp.Filenames[i] = output.ExpandTemplate(p.Filename, p.Value)
		}
	}
	logger.Debug("resolved request", "permutations", n, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := jerrors.GetCode(err)
	if code == "" {
		code = jerrors.ErrCodeInternal
	}
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: jerrors.UserMessage(err),
		Path:    jerrors.GetPath(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// instrument reports every request to the HTTP hooks, labelled with the
// matched route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnRequest(r.Context(), r.Method, route, status, time.Since(start))
	})
}
