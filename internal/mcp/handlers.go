package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/me-e6/pengine/internal/knowledge"
	"github.com/me-e6/pengine/internal/query"
	"github.com/me-e6/pengine/internal/reasoning"
	"github.com/me-e6/pengine/internal/render"
)

// handleReasonQuery runs the full reasoning pipeline for one question.
func (s *Server) handleReasonQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	res, err := s.engine.Reason(ctx, reasoning.Request{
		Query:          q,
		ForceMode:      query.OutputMode(request.GetString("force_mode", "")),
		DomainOverride: request.GetString("domain", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("reasoning failed: %v", err)), nil
	}

	savedID := ""
	if request.GetBool("save", false) && s.recorder != nil {
		if savedID, err = s.recorder.Save(ctx, res); err != nil {
			s.logger.Warn("saving query history", zap.Error(err))
		}
	}

	if request.GetString("format", "markdown") == "json" {
		out, err := json.MarshalIndent(map[string]any{
			"id":     savedID,
			"result": res,
			"render": render.FromResult(res),
		}, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("encoding result: %v", err)), nil
		}
		return mcp.NewToolResultText(string(out)), nil
	}

	return mcp.NewToolResultText(formatResult(res, savedID)), nil
}

// handleAnalyzeQuery returns the intent descriptor for a question.
func (s *Server) handleAnalyzeQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}

	out, err := json.MarshalIndent(s.engine.Analyze(q), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encoding analysis: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

// handleSearchKnowledge performs semantic search over the ingested datasets.
func (s *Server) handleSearchKnowledge(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	q, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	if s.retriever == nil {
		return mcp.NewToolResultError("no knowledge store configured"), nil
	}

	limit := request.GetInt("limit", 10)
	if limit <= 0 {
		limit = 10
	}

	results, err := s.retriever.Retrieve(ctx, knowledge.Request{
		Query:      q,
		DomainHint: request.GetString("domain", ""),
		Limit:      limit,
	})
	if errors.Is(err, knowledge.ErrEmptyStore) {
		return mcp.NewToolResultText("No datasets found. The knowledge store is empty. Run `pengine ingest` to add datasets."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	return mcp.NewToolResultText(knowledge.FormatResults(results)), nil
}

// handleSuggestQueries lists example questions.
func (s *Server) handleSuggestQueries(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	suggestions := query.Suggestions(request.GetString("domain", ""))
	var sb strings.Builder
	for _, q := range suggestions {
		sb.WriteString("- " + q + "\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// formatResult renders an answer as markdown followed by the reasoning
// trail, for agent consumption.
func formatResult(res *reasoning.Result, savedID string) string {
	var sb strings.Builder
	sb.WriteString(render.FromResult(res).Markdown())

	sb.WriteString(fmt.Sprintf("\nOutput mode: %s\n", res.OutputMode))
	sb.WriteString(fmt.Sprintf("Template: %s\n", res.RecommendedTemplate))
	sb.WriteString(fmt.Sprintf("Confidence: %.0f%%\n", res.Confidence*100))
	if savedID != "" {
		sb.WriteString(fmt.Sprintf("Saved as: %s\n", savedID))
	}

	sb.WriteString("\nReasoning:\n")
	for _, n := range res.Notes {
		sb.WriteString("- " + n + "\n")
	}
	return sb.String()
}
