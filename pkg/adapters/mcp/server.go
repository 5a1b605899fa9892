package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aretw0/atlas/internal/logging"
	"github.com/aretw0/atlas/internal/presentation/graph"
	"github.com/aretw0/atlas/pkg/validator"
	"github.com/aretw0/atlas/pkg/domain"
	"github.com/aretw0/atlas/pkg/ports"
	"github.com/aretw0/atlas/pkg/report"
	"github.com/aretw0/atlas/pkg/visitor"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// DocumentURI is the resource holding the served document.
const DocumentURI = "atlas://document"

// VisitResponse is the walk state returned by the visit tool.
type VisitResponse struct {
	State     visitor.State   `json:"state" jsonschema_description:"Visitor state to pass back on the next call"`
	Node      domain.Node     `json:"node" jsonschema_description:"The node the visitor is on"`
	Available []domain.Choice `json:"available" jsonschema_description:"Choices whose requirements are held"`
	Terminal  bool            `json:"terminal" jsonschema_description:"Indicates if this node ends the story"`
}

// LockResponse reports the edit lock holder after a lock tool call.
type LockResponse struct {
	Locked bool            `json:"locked" jsonschema_description:"Whether the narrative edit lock is held"`
	Holder *ports.LockInfo `json:"holder,omitempty" jsonschema_description:"Current holder"`
}

// ValidateArgs are the arguments of validate_document.
type ValidateArgs struct {
	Document string `json:"document"`
}

// VisitArgs are the arguments of visit.
type VisitArgs struct {
	State    string `json:"state"`
	ChoiceID string `json:"choice_id"`
}

// LockArgs are the arguments of the lock tools.
type LockArgs struct {
	Agent     string `json:"agent"`
	Operation string `json:"operation"`
	Force     bool   `json:"force"`
}

// Server exposes a narrative document as an MCP Server.
type Server struct {
	source        ports.DocumentSource
	locker        ports.EditLocker
	validatorOpts []validator.Option
	logger        *slog.Logger
	mcpServer     *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLocker enables the lock_* tools.
func WithLocker(l ports.EditLocker) Option {
	return func(s *Server) { s.locker = l }
}

// WithValidatorOptions adds audit checks to validate_document.
func WithValidatorOptions(opts ...validator.Option) Option {
	return func(s *Server) { s.validatorOpts = append(s.validatorOpts, opts...) }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a new MCP Server instance.
func NewServer(source ports.DocumentSource, version string, opts ...Option) *Server {
	s := &Server{
		source:    source,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("atlas-mcp", version),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
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
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("validate_document",
		mcp.WithDescription("Validate a narrative document. If document is omitted, validates the served document."),
		mcp.WithString("document", mcp.Description("Document JSON (optional)")),
		mcp.WithOutputSchema[validator.View](),
	), mcp.NewStructuredToolHandler(s.handleValidate))

	s.mcpServer.AddTool(mcp.NewTool("visit",
		mcp.WithDescription("Walk the story. Without state, starts at the root; otherwise applies choice_id to state."),
		mcp.WithString("state", mcp.Description("Visitor state JSON returned by a previous call (optional)")),
		mcp.WithString("choice_id", mcp.Description("Choice to take from the current node")),
		mcp.WithOutputSchema[VisitResponse](),
	), mcp.NewStructuredToolHandler(s.handleVisit))

	s.mcpServer.AddTool(mcp.NewTool("get_node",
		mcp.WithDescription("Get one node of the served document."),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("Node ID")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("node_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		doc, err := s.source.Document(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document unavailable: %v", err)), nil
		}
		n, ok := doc.Node(id)
		if !ok {
			return mcp.NewToolResultError((&domain.UnknownIDError{ID: id}).Error()), nil
		}
		return jsonResult(n)
	})

	s.mcpServer.AddTool(mcp.NewTool("get_report",
		mcp.WithDescription("Summarize the served document: counts and category distribution."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := s.source.Document(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document unavailable: %v", err)), nil
		}
		return jsonResult(report.Summarize(doc))
	})

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the Mermaid flowchart of the served document."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := s.source.Document(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("document unavailable: %v", err)), nil
		}
		rep := validator.Validate(doc)
		return mcp.NewToolResultText(graph.GenerateMermaid(doc, &graph.GraphOverlay{Unreachable: rep.Unreachable()})), nil
	})

	if s.locker == nil {
		return
	}

	s.mcpServer.AddTool(mcp.NewTool("lock_status",
		mcp.WithDescription("Show who holds the narrative edit lock."),
		mcp.WithOutputSchema[LockResponse](),
	), mcp.NewStructuredToolHandler(s.handleLockStatus))

	s.mcpServer.AddTool(mcp.NewTool("lock_acquire",
		mcp.WithDescription("Take the narrative edit lock before modifying narrative sources."),
		mcp.WithString("agent", mcp.Required(), mcp.Description("Agent name")),
		mcp.WithString("operation", mcp.Description("What the agent is about to do")),
		mcp.WithOutputSchema[LockResponse](),
	), mcp.NewStructuredToolHandler(s.handleLockAcquire))

	s.mcpServer.AddTool(mcp.NewTool("lock_release",
		mcp.WithDescription("Release the narrative edit lock."),
		mcp.WithString("agent", mcp.Description("Agent name; another agent's lock is refused unless force is set")),
		mcp.WithBoolean("force", mcp.Description("Release regardless of holder")),
		mcp.WithOutputSchema[LockResponse](),
	), mcp.NewStructuredToolHandler(s.handleLockRelease))
}

func (s *Server) handleValidate(ctx context.Context, request mcp.CallToolRequest, args ValidateArgs) (validator.View, error) {
	var doc *domain.Document
	if args.Document != "" {
		doc = &domain.Document{}
		if err := json.Unmarshal([]byte(args.Document), doc); err != nil {
			return validator.View{}, fmt.Errorf("invalid document: %w", err)
		}
	} else {
		served, err := s.source.Document(ctx)
		if err != nil {
			return validator.View{}, fmt.Errorf("document unavailable: %w", err)
		}
		doc = served
	}
	rep := validator.Validate(doc, s.validatorOpts...)
	s.logger.Debug("MCP validate", "fatal", len(rep.Fatal()), "warnings", len(rep.Warnings()))
	return rep.View(), nil
}

func (s *Server) handleVisit(ctx context.Context, request mcp.CallToolRequest, args VisitArgs) (VisitResponse, error) {
	doc, err := s.source.Document(ctx)
	if err != nil {
		return VisitResponse{}, fmt.Errorf("document unavailable: %w", err)
	}

	var state visitor.State
	if args.State == "" {
		state, err = visitor.Start(doc)
	} else {
		var prev visitor.State
		if err := json.Unmarshal([]byte(args.State), &prev); err != nil {
			return VisitResponse{}, fmt.Errorf("invalid state: %w", err)
		}
		state, err = visitor.Select(doc, prev, args.ChoiceID)
	}
	if err != nil {
		return VisitResponse{}, fmt.Errorf("visit failed: %w", err)
	}

	node, _ := doc.Node(state.Current)
	return VisitResponse{
		State:     state,
		Node:      node,
		Available: visitor.Available(doc, node, state),
		Terminal:  visitor.IsTerminal(node),
	}, nil
}

func (s *Server) handleLockStatus(ctx context.Context, request mcp.CallToolRequest, args LockArgs) (LockResponse, error) {
	return s.lockState(ctx)
}

func (s *Server) handleLockAcquire(ctx context.Context, request mcp.CallToolRequest, args LockArgs) (LockResponse, error) {
	if args.Agent == "" {
		return LockResponse{}, fmt.Errorf("agent is required")
	}
	info := ports.LockInfo{
		Agent:     args.Agent,
		Operation: args.Operation,
		Timestamp: time.Now().UTC(),
		PID:       os.Getpid(),
	}
	if err := s.locker.Acquire(ctx, info); err != nil {
		return LockResponse{}, err
	}
	s.logger.Info("MCP lock acquired", "agent", args.Agent, "operation", args.Operation)
	return s.lockState(ctx)
}

func (s *Server) handleLockRelease(ctx context.Context, request mcp.CallToolRequest, args LockArgs) (LockResponse, error) {
	if err := s.locker.Release(ctx, args.Agent, args.Force); err != nil {
		return LockResponse{}, err
	}
	s.logger.Info("MCP lock released", "agent", args.Agent, "force", args.Force)
	return s.lockState(ctx)
}

func (s *Server) lockState(ctx context.Context) (LockResponse, error) {
	holder, err := s.locker.Status(ctx)
	if err != nil {
		return LockResponse{}, err
	}
	return LockResponse{Locked: holder != nil, Holder: holder}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(DocumentURI, "Current Narrative Document",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		doc, err := s.source.Document(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load document: %w", err)
		}
		jsonBytes, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal document: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      DocumentURI,
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
