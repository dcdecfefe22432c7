package mcp

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/logging"
	"github.com/me-e6/pengine/internal/reasoning"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the reasoning engine and the
// knowledge store to agents.
type Server struct {
	engine    *reasoning.Engine
	retriever *knowledge.Retriever
	recorder  reasoning.Recorder
	logger    *zap.Logger
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server. retriever and recorder may be nil;
// search_knowledge then reports that no store is configured and answers
// are never saved.
func NewServer(engine *reasoning.Engine, retriever *knowledge.Retriever, recorder reasoning.Recorder, logger *zap.Logger) *Server {
	s := &Server{
		engine:    engine,
		retriever: retriever,
		recorder:  recorder,
		logger:    logging.OrNop(logger),
	}

	s.mcp = server.NewMCPServer(
		"pengine",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(reasonQueryTool, s.handleReasonQuery)
	s.mcp.AddTool(analyzeQueryTool, s.handleAnalyzeQuery)
	s.mcp.AddTool(searchKnowledgeTool, s.handleSearchKnowledge)
	s.mcp.AddTool(suggestQueriesTool, s.handleSuggestQueries)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
