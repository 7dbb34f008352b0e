package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/aslgraph"
	"github.com/aretw0/aslgraph/internal/logging"
	"github.com/aretw0/aslgraph/internal/presentation/graph"
	"github.com/aretw0/aslgraph/internal/validator"
	"github.com/aretw0/aslgraph/pkg/asl"
	"github.com/aretw0/aslgraph/pkg/ports"
)

const machinesURI = "aslgraph://machines"

// Compiler turns a fragment document into a state machine. A machine that
// fails validation is returned together with a *validator.ValidationError.
type Compiler interface {
	CompileDocument(data []byte) (*asl.StateMachine, error)
}

// FindingResponse is one validation problem.
type FindingResponse struct {
	State  string `json:"state,omitempty" jsonschema_description:"Offending state, empty for machine-level problems"`
	Reason string `json:"reason" jsonschema_description:"What is wrong"`
}

// CompileResponse is the result of compile_document and validate_document.
type CompileResponse struct {
	Machine  *asl.StateMachine `json:"machine,omitempty" jsonschema_description:"The compiled Amazon States Language machine"`
	Valid    bool              `json:"valid" jsonschema_description:"Whether the machine passed validation"`
	Findings []FindingResponse `json:"findings,omitempty" jsonschema_description:"Validation problems, when any"`
}

// MachinesResponse lists stored machines.
type MachinesResponse struct {
	Machines []string `json:"machines" jsonschema_description:"Names of stored machines, sorted"`
}

// Server exposes the compiler as MCP tools.
type Server struct {
	compiler  Compiler
	store     ports.ArtifactStore
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option defines a functional option for configuring the Server.
type Option func(*Server)

// WithStore adds the list_machines and get_machine tools and the
// aslgraph://machines resource, backed by store.
func WithStore(store ports.ArtifactStore) Option {
	return func(s *Server) { s.store = store }
}

// WithLogger sets the logger for tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer creates a new MCP Server instance.
func NewServer(compiler Compiler, opts ...Option) *Server {
	s := &Server{
		compiler:  compiler,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("aslgraph-mcp", aslgraph.Version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	if s.store != nil {
		s.registerStoreTools()
		s.registerResources()
	}
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the tools over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	r := chi.NewRouter()
	r.Use(corsMiddleware)
	r.Handle("/sse", sseServer.SSEHandler())
	r.Handle("/message", sseServer.MessageHandler())

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "addr", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: compile_document
	compileTool := mcp.NewTool("compile_document",
		mcp.WithDescription("Compile a YAML or JSON fragment document into an Amazon States Language machine."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The fragment document")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(compileTool, mcp.NewStructuredToolHandler(s.handleCompile))

	// TOOL: validate_document
	validateTool := mcp.NewTool("validate_document",
		mcp.WithDescription("Compile a fragment document and report validation problems without returning the machine."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The fragment document")),
		mcp.WithOutputSchema[CompileResponse](),
	)
	s.mcpServer.AddTool(validateTool, mcp.NewStructuredToolHandler(s.handleValidate))

	// TOOL: render_graph
	s.mcpServer.AddTool(mcp.NewTool("render_graph",
		mcp.WithDescription("Render the compiled machine of a fragment document as a Mermaid flowchart."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The fragment document")),
		mcp.WithString("focus", mcp.Description("State to highlight (optional)")),
	), s.handleRenderGraph)
}

func (s *Server) registerStoreTools() {
	// TOOL: list_machines
	listTool := mcp.NewTool("list_machines",
		mcp.WithDescription("List the names of stored machines."),
		mcp.WithOutputSchema[MachinesResponse](),
	)
	s.mcpServer.AddTool(listTool, mcp.NewStructuredToolHandler(s.handleListMachines))

	// TOOL: get_machine
	s.mcpServer.AddTool(mcp.NewTool("get_machine",
		mcp.WithDescription("Get a stored machine as Amazon States Language JSON."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Machine name")),
	), s.handleGetMachine)
}

func (s *Server) compile(document string) (CompileResponse, error) {
	sm, err := s.compiler.CompileDocument([]byte(document))
	findings := validator.Findings(err)
	if err != nil && findings == nil {
		return CompileResponse{}, err
	}
	resp := CompileResponse{Machine: sm, Valid: err == nil}
	for _, f := range findings {
		resp.Findings = append(resp.Findings, FindingResponse{State: f.State, Reason: f.Reason})
	}
	return resp, nil
}

func (s *Server) handleCompile(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	document, _ := args["document"].(string)
	resp, err := s.compile(document)
	if err != nil {
		s.logger.Warn("MCP compile_document: rejected", "error", err)
		return CompileResponse{}, fmt.Errorf("compile failed: %w", err)
	}
	return resp, nil
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (CompileResponse, error) {
	document, _ := args["document"].(string)
	resp, err := s.compile(document)
	if err != nil {
		return CompileResponse{Findings: []FindingResponse{{Reason: err.Error()}}}, nil
	}
	resp.Machine = nil
	return resp, nil
}

func (s *Server) handleRenderGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	resp, err := s.compile(request.GetString("document", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("compile failed: %v", err)), nil
	}
	overlay := &graph.GraphOverlay{Focus: request.GetString("focus", "")}
	for _, f := range resp.Findings {
		if f.State != "" {
			overlay.Invalid = append(overlay.Invalid, f.State)
		}
	}
	return mcp.NewToolResultText(graph.GenerateMermaid(resp.Machine, overlay)), nil
}

func (s *Server) handleListMachines(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (MachinesResponse, error) {
	names, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("MCP list_machines: store failed", "error", err)
		return MachinesResponse{}, fmt.Errorf("list failed: %w", err)
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return MachinesResponse{Machines: names}, nil
}

func (s *Server) handleGetMachine(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("name", "")
	artifact, err := s.store.Load(ctx, name)
	if errors.Is(err, ports.ErrArtifactNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("machine %q not found", name)), nil
	}
	if err != nil {
		s.logger.Error("MCP get_machine: store failed", "name", name, "error", err)
		return mcp.NewToolResultError("failed to load machine"), nil
	}
	data, err := json.MarshalIndent(artifact.Machine, "", "  ")
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: aslgraph://machines
	s.mcpServer.AddResource(mcp.NewResource(machinesURI, "Stored machines",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		resp, err := s.handleListMachines(ctx, mcp.CallToolRequest{}, nil)
		if err != nil {
			return nil, err
		}
		data, _ := json.Marshal(resp)
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      machinesURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
