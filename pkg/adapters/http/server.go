package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/internal/presentation/graph"
	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
	"github.com/aretw0/proofweave/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine defines what the HTTP adapter needs from proofweave.
type Engine interface {
	Sessions() *session.Manager
	Catalog() *catalog.Catalog
	Library() ports.ProblemLibrary
}

// Server serves the proofweave REST API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	direction domain.Direction
	gatherer  prometheus.Gatherer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithStreams shares a StreamManager whose Hooks are registered on the engine.
// Without it the events endpoint only sees the initial graph.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithDirection sets the direction of exported Mermaid graphs.
func WithDirection(dir domain.Direction) Option {
	return func(s *Server) {
		s.direction = dir
	}
}

// SessionView is the JSON form of a session.
type SessionView struct {
	ID         string               `json:"id"`
	Generation uint64               `json:"generation"`
	Mode       domain.ExecutionMode `json:"mode"`
	Problem    domain.Problem       `json:"problem"`
	Nodes      []domain.ProofNode   `json:"nodes"`
	Edges      []domain.TacticEdge  `json:"edges"`
	OpenGoals  []string             `json:"open_goals"`
	Complete   bool                 `json:"complete"`
	Outcome    *domain.Outcome      `json:"outcome,omitempty"`
}

// ApplyTacticRequest is the body of POST /sessions/{id}/tactics.
type ApplyTacticRequest struct {
	NodeID string `json:"node_id"`
	Tactic string `json:"tactic"`
	Lemma  bool   `json:"lemma"`
}

// RunRequest is the optional body of POST /sessions/{id}/run.
type RunRequest struct {
	Script string `json:"script"`
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	s := &Server{
		Engine:    engine,
		direction: domain.DirectionTB,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	validate, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)
	r.Use(s.logRequests)
	r.Use(validate)

	r.Get("/health", s.GetHealth)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/catalog", s.GetCatalog)
		r.Get("/problems", s.ListProblems)
		r.Get("/sessions", s.ListSessions)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Post("/", s.OpenSession)
			r.Delete("/", s.DeleteSession)
			r.Post("/tactics", s.ApplyTactic)
			r.Delete("/edges/{edgeId}", s.RemoveEdge)
			r.Post("/reset", s.Reset)
			r.Put("/problem", s.SetProblem)
			r.Post("/problem/load/{problemId}", s.LoadProblem)
			r.Get("/script", s.GetScript)
			r.Post("/run", s.Run)
			r.Get("/outcome", s.GetOutcome)
			r.Get("/graph.mmd", s.GetMermaid)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", ww.Status(), "request_id", middleware.GetReqID(r.Context()))
	})
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	var execErr *domain.ExecutionError
	switch {
	case errors.Is(err, domain.ErrWorkspaceNotFound),
		errors.Is(err, domain.ErrNodeNotFound),
		errors.Is(err, domain.ErrEdgeNotFound),
		errors.Is(err, domain.ErrProblemNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotOpenLeaf),
		errors.Is(err, domain.ErrSentinelEdge),
		errors.Is(err, domain.ErrNoEvaluator),
		errors.Is(err, domain.ErrWorkspaceClosed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidProblem):
		return http.StatusBadRequest
	case errors.As(err, &execErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "err", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err)
}

// NewSessionView builds the JSON form of a workspace.
func NewSessionView(w *proofweave.Workspace) SessionView {
	g := w.Graph()
	v := SessionView{
		ID:         w.ID(),
		Generation: w.Generation(),
		Mode:       w.Mode(),
		Problem:    w.Problem(),
		Nodes:      g.Nodes,
		Edges:      g.Edges,
		OpenGoals:  []string{},
		Complete:   g.Complete(),
	}
	for _, e := range g.OpenEdges() {
		v.OpenGoals = append(v.OpenGoals, e.Source)
	}
	if out, ok := w.Outcome(); ok {
		v.Outcome = &out
	}
	return v
}

func wantWait(r *http.Request) bool {
	wait, _ := strconv.ParseBool(r.URL.Query().Get("wait"))
	return wait
}

// edit runs fn on the session under its lock and answers with the session.
func (s *Server) edit(w http.ResponseWriter, r *http.Request, fn func(*http.Request, *proofweave.Workspace) error) {
	id := chi.URLParam(r, "id")
	wait := wantWait(r)

	var view SessionView
	err := s.Engine.Sessions().Update(r.Context(), id, func(_ context.Context, ws *proofweave.Workspace) error {
		if err := fn(r, ws); err != nil {
			return err
		}
		if wait {
			ws.Wait()
		}
		view = NewSessionView(ws)
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": strings.TrimSpace(proofweave.Version),
	})
}

// GetCatalog handles GET /api/v1/catalog.
func (s *Server) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Catalog())
}

// ListProblems handles GET /api/v1/problems.
func (s *Server) ListProblems(w http.ResponseWriter, r *http.Request) {
	problems, err := s.Engine.Library().List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, problems)
}

// ListSessions handles GET /api/v1/sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Engine.Sessions().List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// GetSession handles GET /api/v1/sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Engine.Sessions().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSessionView(ws))
}

// OpenSession handles POST /api/v1/sessions/{id}.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Engine.Sessions().Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, NewSessionView(ws))
}

// DeleteSession handles DELETE /api/v1/sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Engine.Sessions().Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApplyTactic handles POST /api/v1/sessions/{id}/tactics.
func (s *Server) ApplyTactic(w http.ResponseWriter, r *http.Request) {
	var body ApplyTacticRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.edit(w, r, func(r *http.Request, ws *proofweave.Workspace) error {
		_, err := ws.ApplyTactic(r.Context(), body.NodeID, strings.TrimSpace(body.Tactic), body.Lemma)
		return err
	})
}

// RemoveEdge handles DELETE /api/v1/sessions/{id}/edges/{edgeId}.
func (s *Server) RemoveEdge(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(r *http.Request, ws *proofweave.Workspace) error {
		_, err := ws.RemoveEdge(r.Context(), chi.URLParam(r, "edgeId"))
		return err
	})
}

// Reset handles POST /api/v1/sessions/{id}/reset.
func (s *Server) Reset(w http.ResponseWriter, r *http.Request) {
	s.edit(w, r, func(r *http.Request, ws *proofweave.Workspace) error {
		return ws.Reset(r.Context())
	})
}

// SetProblem handles PUT /api/v1/sessions/{id}/problem.
func (s *Server) SetProblem(w http.ResponseWriter, r *http.Request) {
	var p domain.Problem
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	s.edit(w, r, func(r *http.Request, ws *proofweave.Workspace) error {
		return ws.LoadProblem(r.Context(), p)
	})
}

// LoadProblem handles POST /api/v1/sessions/{id}/problem/load/{problemId}.
func (s *Server) LoadProblem(w http.ResponseWriter, r *http.Request) {
	p, err := s.Engine.Library().Get(r.Context(), chi.URLParam(r, "problemId"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.edit(w, r, func(r *http.Request, ws *proofweave.Workspace) error {
		return ws.LoadProblem(r.Context(), p)
	})
}

// GetScript handles GET /api/v1/sessions/{id}/script.
func (s *Server) GetScript(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Engine.Sessions().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, ws.Script())
}

// Run handles POST /api/v1/sessions/{id}/run. Without ?wait=true it answers
// 202 as soon as the run has started.
func (s *Server) Run(w http.ResponseWriter, r *http.Request) {
	var body RunRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}

	id := chi.URLParam(r, "id")
	wait := wantWait(r)
	var (
		gen  uint64
		view SessionView
	)
	err := s.Engine.Sessions().Update(r.Context(), id, func(ctx context.Context, ws *proofweave.Workspace) error {
		var err error
		if body.Script != "" {
			gen, err = ws.RunScript(ctx, body.Script)
		} else {
			gen, err = ws.Run(ctx)
		}
		if err != nil {
			return err
		}
		if wait {
			ws.Wait()
			view = NewSessionView(ws)
		}
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if !wait {
		writeJSON(w, http.StatusAccepted, map[string]any{"generation": gen})
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// GetOutcome handles GET /api/v1/sessions/{id}/outcome.
func (s *Server) GetOutcome(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Engine.Sessions().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out, ok := ws.Outcome()
	if !ok {
		writeError(w, http.StatusNotFound, errors.New("no run has completed yet"))
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetMermaid handles GET /api/v1/sessions/{id}/graph.mmd.
func (s *Server) GetMermaid(w http.ResponseWriter, r *http.Request) {
	ws, err := s.Engine.Sessions().Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, graph.GenerateMermaid(ws.Graph(), s.direction, &graph.GraphOverlay{Notes: true}))
}

// SubscribeEvents handles GET /api/v1/sessions/{id}/events (SSE).
// The first "graph" event carries the whole graph as a diff from nothing.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	id := chi.URLParam(r, "id")
	ws, err := s.Engine.Sessions().Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	ch, cancel := s.Streams.Subscribe(id)
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	g := ws.Graph()
	if initial, err := json.Marshal(domain.Diff(nil, &g)); err == nil {
		fmt.Fprintf(w, "event: graph\ndata: %s\n\n", initial)
	}
	flusher.Flush()
	s.logger.Info("SSE: client subscribed", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: client disconnected", "session_id", id)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: graph\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
