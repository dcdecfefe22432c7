package mcp

import "github.com/mark3labs/mcp-go/mcp"

// reasonQueryTool defines the reason_query MCP tool.
var reasonQueryTool = mcp.NewTool("reason_query",
	mcp.WithDescription("Answer a question about the ingested datasets. Returns the detected insights, the chosen output mode and, for stories, a five-frame narrative."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question, e.g. 'How has literacy changed since 2015?'"),
	),
	mcp.WithString("force_mode",
		mcp.Description("Override the output mode decision"),
		mcp.Enum("story", "data"),
	),
	mcp.WithString("domain",
		mcp.Description("Domain to search and narrate in, replacing the detected one"),
	),
	mcp.WithString("format",
		mcp.Description("Response format (default markdown)"),
		mcp.Enum("markdown", "json"),
	),
	mcp.WithBoolean("save",
		mcp.Description("Store the answer in the review history"),
	),
)

// analyzeQueryTool defines the analyze_query MCP tool.
var analyzeQueryTool = mcp.NewTool("analyze_query",
	mcp.WithDescription("Classify a question without answering it: intent, topics, locations, time references and preferred output."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language question"),
	),
)

// searchKnowledgeTool defines the search_knowledge MCP tool.
var searchKnowledgeTool = mcp.NewTool("search_knowledge",
	mcp.WithDescription("Search the ingested datasets semantically. Returns matching datasets with source, domain, period and relevance."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of results to return (default 10)"),
	),
	mcp.WithString("domain",
		mcp.Description("Restrict results to one domain"),
	),
)

// suggestQueriesTool defines the suggest_queries MCP tool.
var suggestQueriesTool = mcp.NewTool("suggest_queries",
	mcp.WithDescription("List example questions, optionally for one domain."),
	mcp.WithString("domain",
		mcp.Description("Domain such as education, health, economy or agriculture"),
	),
)
