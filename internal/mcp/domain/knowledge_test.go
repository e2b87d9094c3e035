package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// fakeRetriever records queries and returns the configured result.
type fakeRetriever struct {
	result        string
	err           error
	lastDatasetID string
	lastQuery     string
	calls         int
}

// Query records the request and returns the configured response.
func (f *fakeRetriever) Query(ctx context.Context, datasetID, query string) (string, error) {
	f.calls++
	f.lastDatasetID = datasetID
	f.lastQuery = query
	return f.result, f.err
}

// TestToolNames ensures the three tool schemas carry the fixed names.
func TestToolNames(t *testing.T) {
	tests := []struct {
		name string
		tool *mcp.Tool
		want string
	}{
		{name: "ux", tool: UXKnowledgeTool(), want: "query_ux_knowledge"},
		{name: "lean", tool: LeanKnowledgeTool(), want: "query_lean_knowledge"},
		{name: "automation", tool: AutomationStepTool(), want: "query_automation_step"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.want {
				t.Fatalf("tool name = %q, want %q", tt.tool.Name, tt.want)
			}
			if tt.tool.Description == "" {
				t.Fatal("expected tool description")
			}
		})
	}
}

// TestKnowledgeQueryHandlerForwards ensures the handler forwards the query
// to its bound dataset and returns the result text.
func TestKnowledgeQueryHandlerForwards(t *testing.T) {
	retriever := &fakeRetriever{result: "1. Use 5S"}
	handler := KnowledgeQueryHandler(retriever, "dataset-a")

	result, output, err := handler(context.Background(), nil, QueryInput{Query: "workplace organization"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	if retriever.calls != 1 {
		t.Fatalf("expected one retrieval call, got %d", retriever.calls)
	}
	if retriever.lastDatasetID != "dataset-a" {
		t.Fatalf("dataset = %q, want dataset-a", retriever.lastDatasetID)
	}
	if retriever.lastQuery != "workplace organization" {
		t.Fatalf("query = %q", retriever.lastQuery)
	}
	if output.Text != "1. Use 5S" {
		t.Fatalf("output text = %q", output.Text)
	}
	if len(result.Content) != 1 {
		t.Fatalf("expected one content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	if text.Text != "1. Use 5S" {
		t.Fatalf("content text = %q", text.Text)
	}
}

// TestKnowledgeQueryHandlerPropagatesError ensures retrieval errors reach
// the MCP runtime unchanged.
func TestKnowledgeQueryHandlerPropagatesError(t *testing.T) {
	retrieveErr := errors.New("upstream unavailable")
	retriever := &fakeRetriever{err: retrieveErr}
	handler := KnowledgeQueryHandler(retriever, "dataset-a")

	_, _, err := handler(context.Background(), nil, QueryInput{Query: "anything"})
	if !errors.Is(err, retrieveErr) {
		t.Fatalf("expected retrieval error, got %v", err)
	}
}
