package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/aslgraph/internal/logging"
	"github.com/aretw0/aslgraph/internal/presentation/graph"
	"github.com/aretw0/aslgraph/internal/validator"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/metrics"
	"github.com/aretw0/aslgraph/pkg/ports"
)

const (
	// DefaultMaxBodyBytes caps the size of an uploaded fragment document.
	DefaultMaxBodyBytes = 1 << 20
	// lockTTL bounds how long a crashed replica can block a name.
	lockTTL = 30 * time.Second
)

// Compiler turns a fragment document into a state machine.
type Compiler interface {
	CompileDocument(data []byte) (*asl.StateMachine, error)
}

// Server serves the compile API over an ArtifactStore.
type Server struct {
	compiler Compiler
	store    ports.ArtifactStore
	locker   ports.Locker
	logger   *slog.Logger
	metrics  *metrics.Metrics
	maxBody  int64
	now      func() time.Time
}

// Option defines a functional option for configuring the Server.
type Option func(*Server)

// WithLocker serializes compiles of the same name, e.g. across replicas
// sharing a Redis store.
func WithLocker(l ports.Locker) Option {
	return func(s *Server) { s.locker = l }
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithMetrics counts requests by route and status.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMaxBodyBytes overrides DefaultMaxBodyBytes.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBody = n }
}

// NewHandler creates the HTTP handler of the compile service.
//
//	GET    /health
//	POST   /compile/{name}        compile the body and store the result
//	GET    /machines              list stored names
//	GET    /machines/{name}       the machine as JSON, or YAML with ?format=yaml
//	GET    /machines/{name}/graph Mermaid flowchart
//	DELETE /machines/{name}
func NewHandler(compiler Compiler, store ports.ArtifactStore, opts ...Option) http.Handler {
	s := &Server{
		compiler: compiler,
		store:    store,
		logger:   logging.NewNop(),
		maxBody:  DefaultMaxBodyBytes,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.observe)

	r.Get("/health", s.GetHealth)
	r.Post("/compile/{name}", s.Compile)
	r.Get("/machines", s.ListMachines)
	r.Get("/machines/{name}", s.GetMachine)
	r.Get("/machines/{name}/graph", s.GetGraph)
	r.Delete("/machines/{name}", s.DeleteMachine)
	return r
}

// observe logs and counts every request once routing has resolved its
// pattern.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveRequest(route, ww.Status())
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorBody struct {
	Error    string        `json:"error"`
	Findings []findingBody `json:"findings,omitempty"`
}

type findingBody struct {
	State  string `json:"state,omitempty"`
	Reason string `json:"reason"`
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	body := errorBody{Error: err.Error()}
	for _, f := range validator.Findings(err) {
		body.Findings = append(body.Findings, findingBody{State: f.State, Reason: f.Reason})
	}
	s.writeJSON(w, code, body)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Compile handles POST /compile/{name}. With ?dryRun=true the machine is
// returned without being stored.
func (s *Server) Compile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, http.StatusRequestEntityTooLarge, fmt.Errorf("document exceeds %d bytes", tooLarge.Limit))
			return
		}
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("read body: %w", err))
		return
	}
	dryRun := r.URL.Query().Get("dryRun") == "true"

	if s.locker != nil && !dryRun {
		unlock, err := s.locker.Lock(r.Context(), name, lockTTL)
		if err != nil {
			s.logger.Error("Compile: lock failed", "name", name, "error", err)
			s.writeError(w, http.StatusServiceUnavailable, fmt.Errorf("name %q is busy: %w", name, err))
			return
		}
		defer func() {
			if err := unlock(r.Context()); err != nil {
				s.logger.Warn("Compile: unlock failed", "name", name, "error", err)
			}
		}()
	}

	sm, err := s.compiler.CompileDocument(data)
	if err != nil {
		code := http.StatusBadRequest
		if validator.Findings(err) != nil {
			code = http.StatusUnprocessableEntity
		}
		s.logger.Warn("Compile: rejected", "name", name, "error", err)
		s.writeError(w, code, err)
		return
	}

	artifact := &ports.Artifact{
		Name:       name,
		Machine:    sm,
		Source:     string(data),
		CompiledAt: s.now().UTC(),
	}
	if dryRun {
		s.writeJSON(w, http.StatusOK, artifact)
		return
	}
	if err := s.store.Save(r.Context(), name, artifact); err != nil {
		if errors.Is(err, ports.ErrInvalidName) {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		s.logger.Error("Compile: save failed", "name", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to store machine"))
		return
	}
	s.logger.Info("compiled", "name", name, "states", len(sm.States))
	s.writeJSON(w, http.StatusCreated, artifact)
}

// ListMachines handles GET /machines.
func (s *Server) ListMachines(w http.ResponseWriter, r *http.Request) {
	names, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("ListMachines failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to list machines"))
		return
	}
	s.writeJSON(w, http.StatusOK, map[string][]string{"machines": names})
}

// load fetches the artifact named in the URL, writing the error response
// itself when it cannot.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*ports.Artifact, bool) {
	name := chi.URLParam(r, "name")
	artifact, err := s.store.Load(r.Context(), name)
	if errors.Is(err, ports.ErrArtifactNotFound) {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("machine %q not found", name))
		return nil, false
	}
	if err != nil {
		s.logger.Error("load failed", "name", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to load machine"))
		return nil, false
	}
	return artifact, true
}

// GetMachine handles GET /machines/{name}.
func (s *Server) GetMachine(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.load(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("format") != "yaml" {
		s.writeJSON(w, http.StatusOK, artifact.Machine)
		return
	}
	out, err := yaml.Marshal(artifact.Machine)
	if err != nil {
		s.logger.Error("GetMachine: yaml encode failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to encode machine"))
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(out)
}

// GetGraph handles GET /machines/{name}/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	artifact, ok := s.load(w, r)
	if !ok {
		return
	}
	var overlay *graph.GraphOverlay
	if focus := r.URL.Query().Get("focus"); focus != "" {
		overlay = &graph.GraphOverlay{Focus: focus}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(artifact.Machine, overlay))
}

// DeleteMachine handles DELETE /machines/{name}.
func (s *Server) DeleteMachine(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.store.Delete(r.Context(), name); err != nil {
		s.logger.Error("DeleteMachine failed", "name", name, "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("failed to delete machine"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
