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

	"github.com/aretw0/whiteboard/internal/logging"
	"github.com/aretw0/whiteboard/pkg/controller"
	"github.com/aretw0/whiteboard/pkg/domain"
	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"golang.org/x/sync/errgroup"
)

// BoardURI is the resource holding the current board snapshot.
const BoardURI = "whiteboard://board"

// Server exposes a whiteboard's tool catalog as an MCP Server.
// Calls from MCP clients run through the same controller a model session uses.
type Server struct {
	ctrl      *controller.Controller
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool calls and transport events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(ctrl *controller.Controller, version string, opts ...Option) *Server {
	s := &Server{
		ctrl:      ctrl,
		mcpServer: server.NewMCPServer("whiteboard-mcp", strings.TrimSpace(version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP SSE transport on addr until ctx is canceled.
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

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

func (s *Server) registerTools() {
	for _, def := range s.ctrl.Definitions() {
		schema, err := json.Marshal(def.Parameters)
		if err != nil {
			s.logger.Error("MCP: skipping tool with unencodable schema", "tool", def.Name, "error", err)
			continue
		}
		tool := mcp.NewToolWithRawSchema(def.Name, def.Description, schema)
		s.mcpServer.AddTool(tool, s.handler(def.Name))
	}
}

func (s *Server) handler(name string) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		input, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		call, err := s.ctrl.Invoke(ctx, "mcp-"+uuid.NewString(), name, input)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if call.State == domain.CallOutputError {
			s.logger.Warn("MCP tool call failed", "tool", name, "error", call.ErrorText)
			return mcp.NewToolResultError(call.ErrorText), nil
		}
		return mcp.NewToolResultText(string(call.Output)), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(BoardURI, "Current Whiteboard",
		mcp.WithResourceDescription("Clusters, cards and caption of the whiteboard"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.ctrl.Board().Snapshot().JSON()
		if err != nil {
			return nil, fmt.Errorf("failed to encode board: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      BoardURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
