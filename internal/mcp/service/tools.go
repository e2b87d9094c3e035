package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/fsyj123/knowledge-retrive/internal/knowledge"
	"github.com/fsyj123/knowledge-retrive/internal/mcp/domain"
)

// registerKnowledgeTools binds each knowledge tool to its fixed dataset.
func registerKnowledgeTools(mcpServer *mcp.Server, retriever domain.Retriever) {
	mcp.AddTool(mcpServer, domain.UXKnowledgeTool(), domain.KnowledgeQueryHandler(retriever, knowledge.UXDatasetID))
	mcp.AddTool(mcpServer, domain.LeanKnowledgeTool(), domain.KnowledgeQueryHandler(retriever, knowledge.LeanDatasetID))
	mcp.AddTool(mcpServer, domain.AutomationStepTool(), domain.KnowledgeQueryHandler(retriever, knowledge.AutomationDatasetID))
}
