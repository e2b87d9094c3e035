// Package domain defines the MCP tool surface for knowledge retrieval.
package domain

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Retriever executes one retrieval query against a knowledge dataset and
// returns the formatted result text.
type Retriever interface {
	Query(ctx context.Context, datasetID, query string) (string, error)
}

// QueryInput represents the MCP tool input shared by all knowledge tools.
type QueryInput struct {
	Query string `json:"query" jsonschema:"free-text query against the knowledge corpus"`
}

// QueryResult represents the MCP tool output: formatted retrieval results.
type QueryResult struct {
	Text string `json:"text" jsonschema:"human-readable retrieval results"`
}

// UXKnowledgeTool defines the MCP tool schema for UX knowledge queries.
func UXKnowledgeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "query_ux_knowledge",
		Description: "Retrieve internal UX guidance, templates, or examples relevant to the query.",
	}
}

// LeanKnowledgeTool defines the MCP tool schema for Lean methodology queries.
func LeanKnowledgeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "query_lean_knowledge",
		Description: "Retrieve Lean and continuous improvement methodology references.",
	}
}

// AutomationStepTool defines the MCP tool schema for automation process queries.
func AutomationStepTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "query_automation_step",
		Description: "Retrieve automation process documentation and step-by-step guides.",
	}
}

// KnowledgeQueryHandler forwards the query to the retriever for one fixed
// dataset. Retrieval errors propagate unchanged to the MCP runtime.
func KnowledgeQueryHandler(retriever Retriever, datasetID string) mcp.ToolHandlerFor[QueryInput, QueryResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input QueryInput) (*mcp.CallToolResult, QueryResult, error) {
		text, err := retriever.Query(ctx, datasetID, input.Query)
		if err != nil {
			return nil, QueryResult{}, err
		}
		result := &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: text}},
		}
		return result, QueryResult{Text: text}, nil
	}
}
