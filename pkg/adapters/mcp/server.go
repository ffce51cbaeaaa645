// Package mcp exposes an Editor to MCP clients: script generation, graph
// introspection and scripted conversation replays.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/cardflow"
	"github.com/aretw0/cardflow/internal/logging"
	"github.com/aretw0/cardflow/pkg/analysis"
	"github.com/aretw0/cardflow/pkg/domain"
	"github.com/aretw0/cardflow/pkg/simulate"
	"github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	flowURI    = "cardflow://flow"
	profileURI = "cardflow://profile"
)

// CardDetail describes one card and where its ports lead.
type CardDetail struct {
	Card     domain.Card         `json:"card" jsonschema_description:"The card as stored on the canvas"`
	Outgoing []domain.Connection `json:"outgoing" jsonschema_description:"Connections leaving the card"`
	Terminal bool                `json:"terminal" jsonschema_description:"True when no connection leaves the card"`
}

// ReplayResponse is the outcome of a scripted conversation.
type ReplayResponse struct {
	Steps   []simulate.Step `json:"steps" jsonschema_description:"Every reply with the card it led to"`
	Current domain.Card     `json:"current" jsonschema_description:"The card reached after the last reply"`
	Ended   bool            `json:"ended" jsonschema_description:"True when the conversation reached a terminal card"`
	Options []string        `json:"options" jsonschema_description:"Replies accepted on the current card"`
}

type describeArgs struct {
	CardID string `json:"card_id"`
}

type replayArgs struct {
	StartAt string `json:"start_at"`
	Replies string `json:"replies"`
}

// Server wraps an Editor as an MCP server.
type Server struct {
	editor    *cardflow.Editor
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(editor *cardflow.Editor, opts ...Option) *Server {
	s := &Server{
		editor:    editor,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cardflow-mcp", strings.TrimSpace(cardflow.Version)),
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

// ServeSSE serves the SSE transport on addr until ctx is cancelled.
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
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
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

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("generate_script",
		mcp.WithDescription("Generate the conversation script for the current flow, including the assistant profile."),
	), s.handleGenerateScript)

	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the canvas graph (positioned nodes and edges)."),
	), s.handleGetGraph)

	s.mcpServer.AddTool(mcp.NewTool("analyze_flow",
		mcp.WithDescription("Report unreachable cards, cycles and broken connections."),
		mcp.WithOutputSchema[analysis.Report](),
	), mcp.NewStructuredToolHandler(s.handleAnalyze))

	s.mcpServer.AddTool(mcp.NewTool("describe_card",
		mcp.WithDescription("Describe a card and the connections leaving it."),
		mcp.WithString("card_id", mcp.Required(), mcp.Description("The card ID")),
		mcp.WithOutputSchema[CardDetail](),
	), mcp.NewStructuredToolHandler(s.handleDescribeCard))

	s.mcpServer.AddTool(mcp.NewTool("replay_conversation",
		mcp.WithDescription("Play a list of user replies through the flow and report where it ends."),
		mcp.WithString("replies", mcp.Description("JSON array of user replies")),
		mcp.WithString("start_at", mcp.Description("Card to start from (defaults to the first initial card)")),
		mcp.WithOutputSchema[ReplayResponse](),
	), mcp.NewStructuredToolHandler(s.handleReplay))
}

func (s *Server) handleGenerateScript(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.editor.GenerateScript(ctx)
	if err != nil {
		s.logger.Warn("script not archived", "error", err)
	}
	return mcp.NewToolResultText(report.Text), nil
}

func (s *Server) handleGetGraph(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(s.editor.Graph())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode graph: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleAnalyze(ctx context.Context, _ mcp.CallToolRequest, _ map[string]any) (analysis.Report, error) {
	return s.editor.Analyze(ctx), nil
}

func (s *Server) handleDescribeCard(ctx context.Context, _ mcp.CallToolRequest, args describeArgs) (CardDetail, error) {
	flow := s.editor.Snapshot(ctx)
	card, ok := flow.CardByID(args.CardID)
	if !ok {
		return CardDetail{}, fmt.Errorf("card %q: %w", args.CardID, domain.ErrCardNotFound)
	}
	out := flow.Outgoing(card.ID)
	if out == nil {
		out = []domain.Connection{}
	}
	return CardDetail{Card: card, Outgoing: out, Terminal: len(out) == 0}, nil
}

func (s *Server) handleReplay(ctx context.Context, _ mcp.CallToolRequest, args replayArgs) (ReplayResponse, error) {
	var replies []string
	if args.Replies != "" {
		if err := json.Unmarshal([]byte(args.Replies), &replies); err != nil {
			return ReplayResponse{}, fmt.Errorf("replies must be a JSON array of strings: %w", err)
		}
	}

	session, err := s.editor.Simulate(ctx)
	if err != nil {
		return ReplayResponse{}, err
	}
	if args.StartAt != "" {
		if err := session.StartAt(args.StartAt); err != nil {
			return ReplayResponse{}, err
		}
	}

	for _, reply := range replies {
		if session.Ended() {
			break
		}
		if _, err := session.Reply(reply); err != nil {
			s.logger.Warn("MCP replay: reply rejected", "error", err, "size", len(reply))
			return ReplayResponse{}, fmt.Errorf("reply rejected: %w", err)
		}
	}

	return ReplayResponse{
		Steps:   session.History(),
		Current: session.Current(),
		Ended:   session.Ended(),
		Options: session.Options(),
	}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(flowURI, "Current flow",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.jsonResource(flowURI, s.editor.Snapshot(ctx))
	})

	s.mcpServer.AddResource(mcp.NewResource(profileURI, "Assistant profile",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return s.jsonResource(profileURI, s.editor.Profile(ctx))
	})
}

func (s *Server) jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
