package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/proofweave"
	"github.com/aretw0/proofweave/internal/logging"
	"github.com/aretw0/proofweave/pkg/catalog"
	"github.com/aretw0/proofweave/pkg/domain"
	"github.com/aretw0/proofweave/pkg/ports"
	"github.com/aretw0/proofweave/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// DefaultSession is used when a tool call names no session.
const DefaultSession = "default"

// CatalogURI is the resource holding the tactic catalog.
const CatalogURI = "proofweave://catalog"

// ProblemsURI is the resource listing the preset problems.
const ProblemsURI = "proofweave://problems"

// Engine defines what the MCP server needs from proofweave.
type Engine interface {
	Sessions() *session.Manager
	Catalog() *catalog.Catalog
	Library() ports.ProblemLibrary
}

// GraphResponse is returned by every tool that reads or edits a proof graph.
type GraphResponse struct {
	SessionID  string              `json:"session_id" jsonschema_description:"The session the graph belongs to"`
	Generation uint64              `json:"generation" jsonschema_description:"Edit counter of the session"`
	Nodes      []domain.ProofNode  `json:"nodes" jsonschema_description:"Proof states"`
	Edges      []domain.TacticEdge `json:"edges" jsonschema_description:"Tactic applications; 'sorry' edges are open goals"`
	OpenGoals  []string            `json:"open_goals" jsonschema_description:"IDs of the nodes a tactic can be applied to"`
	Complete   bool                `json:"complete" jsonschema_description:"True when no open goal remains"`
	Outcome    *domain.Outcome     `json:"outcome,omitempty" jsonschema_description:"Latest evaluator run"`
}

// SessionArgs names the session a tool works on.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// ApplyTacticArgs are the arguments of apply_tactic.
type ApplyTacticArgs struct {
	SessionID string `json:"session_id"`
	NodeID    string `json:"node_id"`
	Tactic    string `json:"tactic"`
	Lemma     bool   `json:"lemma"`
}

// RemoveEdgeArgs are the arguments of remove_edge.
type RemoveEdgeArgs struct {
	SessionID string `json:"session_id"`
	EdgeID    string `json:"edge_id"`
}

// LoadProblemArgs are the arguments of load_problem.
type LoadProblemArgs struct {
	SessionID string `json:"session_id"`
	ProblemID string `json:"problem_id"`
}

// Server wraps the proofweave Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		engine:    engine,
		mcpServer: server.NewMCPServer("proofweave-mcp", strings.TrimSpace(proofweave.Version), server.WithToolCapabilities(false)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer exposes the underlying server, e.g. for in-process clients.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on port until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Description("Session to work on (default: \"default\")"))
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the proof graph of a session, creating the session if needed."),
		sessionParam(),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetGraph))

	s.mcpServer.AddTool(mcp.NewTool("apply_tactic",
		mcp.WithDescription("Apply a tactic (e.g. Linarith(), Cases(h1)) or a lemma to an open goal and wait for the evaluator."),
		sessionParam(),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("A node listed in open_goals")),
		mcp.WithString("tactic", mcp.Required(), mcp.Description("Tactic expression, see list_tactics")),
		mcp.WithBoolean("lemma", mcp.Description("Apply as a lemma (p.use_lemma)")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleApplyTactic))

	s.mcpServer.AddTool(mcp.NewTool("remove_edge",
		mcp.WithDescription("Remove a tactic application together with everything that depends on it."),
		sessionParam(),
		mcp.WithString("edge_id", mcp.Required(), mcp.Description("Any edge of the application to remove")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleRemoveEdge))

	s.mcpServer.AddTool(mcp.NewTool("reset_proof",
		mcp.WithDescription("Drop every tactic application and start the proof over."),
		sessionParam(),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleReset))

	s.mcpServer.AddTool(mcp.NewTool("load_problem",
		mcp.WithDescription("Replace the problem of a session with a preset problem."),
		sessionParam(),
		mcp.WithString("problem_id", mcp.Required(), mcp.Description("Problem id, see the "+ProblemsURI+" resource")),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleLoadProblem))

	s.mcpServer.AddTool(mcp.NewTool("get_script",
		mcp.WithDescription("Get the proof script generated from the graph."),
		sessionParam(),
	), s.handleGetScript)

	s.mcpServer.AddTool(mcp.NewTool("run_proof",
		mcp.WithDescription("Run the evaluator on the current graph and wait for its verdict."),
		sessionParam(),
		mcp.WithOutputSchema[GraphResponse](),
	), mcp.NewStructuredToolHandler(s.handleRun))

	s.mcpServer.AddTool(mcp.NewTool("list_tactics",
		mcp.WithDescription("List the tactics and lemmas the evaluator understands."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encode catalog: %v", err)), nil
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func sessionID(id string) string {
	if id == "" {
		return DefaultSession
	}
	return id
}

// update edits a session and waits for the run the edit started.
func (s *Server) update(ctx context.Context, id string, fn func(context.Context, *proofweave.Workspace) error) (GraphResponse, error) {
	id = sessionID(id)
	var resp GraphResponse
	err := s.engine.Sessions().Update(ctx, id, func(ctx context.Context, w *proofweave.Workspace) error {
		if err := fn(ctx, w); err != nil {
			return err
		}
		w.Wait()
		resp = graphResponse(w)
		return nil
	})
	if err != nil {
		s.logger.Warn("MCP tool failed", "session_id", id, "err", err)
		return GraphResponse{}, err
	}
	return resp, nil
}

func graphResponse(w *proofweave.Workspace) GraphResponse {
	g := w.Graph()
	resp := GraphResponse{
		SessionID:  w.ID(),
		Generation: w.Generation(),
		Nodes:      g.Nodes,
		Edges:      g.Edges,
		OpenGoals:  []string{},
		Complete:   g.Complete(),
	}
	for _, e := range g.OpenEdges() {
		resp.OpenGoals = append(resp.OpenGoals, e.Source)
	}
	if out, ok := w.Outcome(); ok {
		resp.Outcome = &out
	}
	return resp
}

func (s *Server) handleGetGraph(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (GraphResponse, error) {
	w, err := s.engine.Sessions().Open(ctx, sessionID(args.SessionID))
	if err != nil {
		return GraphResponse{}, err
	}
	return graphResponse(w), nil
}

func (s *Server) handleApplyTactic(ctx context.Context, request mcp.CallToolRequest, args ApplyTacticArgs) (GraphResponse, error) {
	if args.NodeID == "" || strings.TrimSpace(args.Tactic) == "" {
		return GraphResponse{}, errors.New("node_id and tactic are required")
	}
	return s.update(ctx, args.SessionID, func(ctx context.Context, w *proofweave.Workspace) error {
		_, err := w.ApplyTactic(ctx, args.NodeID, strings.TrimSpace(args.Tactic), args.Lemma)
		return err
	})
}

func (s *Server) handleRemoveEdge(ctx context.Context, request mcp.CallToolRequest, args RemoveEdgeArgs) (GraphResponse, error) {
	if args.EdgeID == "" {
		return GraphResponse{}, errors.New("edge_id is required")
	}
	return s.update(ctx, args.SessionID, func(ctx context.Context, w *proofweave.Workspace) error {
		_, err := w.RemoveEdge(ctx, args.EdgeID)
		return err
	})
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (GraphResponse, error) {
	return s.update(ctx, args.SessionID, func(ctx context.Context, w *proofweave.Workspace) error {
		return w.Reset(ctx)
	})
}

func (s *Server) handleLoadProblem(ctx context.Context, request mcp.CallToolRequest, args LoadProblemArgs) (GraphResponse, error) {
	p, err := s.engine.Library().Get(ctx, args.ProblemID)
	if err != nil {
		return GraphResponse{}, err
	}
	return s.update(ctx, args.SessionID, func(ctx context.Context, w *proofweave.Workspace) error {
		return w.LoadProblem(ctx, p)
	})
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (GraphResponse, error) {
	return s.update(ctx, args.SessionID, func(ctx context.Context, w *proofweave.Workspace) error {
		_, err := w.Run(ctx)
		return err
	})
}

func (s *Server) handleGetScript(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := sessionID(request.GetString("session_id", ""))
	w, err := s.engine.Sessions().Open(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("open session %s: %v", id, err)), nil
	}
	return mcp.NewToolResultText(w.Script()), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(CatalogURI, "Tactic Catalog",
		mcp.WithResourceDescription("Tactics and lemmas with the number of goals each one opens"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := json.Marshal(s.engine.Catalog())
		if err != nil {
			return nil, fmt.Errorf("failed to encode catalog: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      CatalogURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})

	s.mcpServer.AddResource(mcp.NewResource(ProblemsURI, "Preset Problems",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		problems, err := s.engine.Library().List(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list problems: %w", err)
		}
		jsonBytes, err := json.Marshal(problems)
		if err != nil {
			return nil, fmt.Errorf("failed to encode problems: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      ProblemsURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
