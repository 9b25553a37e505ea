// Package tools provides the MCP tool implementations for teamgraph-engine.
package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/ontology"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/services"
)

// AskRunner is the slice of the pipeline runner the ask_graph tool needs.
type AskRunner interface {
	Run(ctx context.Context, question, threadID string) (*models.PipelineResult, error)
}

// Deps contains the dependencies shared by the MCP tools.
type Deps struct {
	Runner   AskRunner
	Service  services.OntologyService
	Registry *ontology.Registry
	Concepts repositories.ConceptRepository
	Querier  graph.Querier
	Version  string
	Logger   *zap.Logger
}

// RegisterAll registers every tool on the server.
func RegisterAll(s *server.MCPServer, deps *Deps) {
	RegisterAskTool(s, deps)
	RegisterProposalTools(s, deps)
	RegisterOntologyStatsTool(s, deps)
	RegisterHealthTool(s, deps)
}

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// getOptionalString extracts an optional string argument from the request.
func getOptionalString(req mcp.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	val, ok := args[key].(string)
	if !ok {
		return ""
	}
	return val
}

// getOptionalFloat extracts an optional numeric argument from the request.
// JSON numbers arrive as float64.
func getOptionalFloat(req mcp.CallToolRequest, key string) (float64, bool) {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return 0, false
	}
	val, ok := args[key].(float64)
	return val, ok
}

// callerID names the MCP caller for review audit fields.
func callerID(ctx context.Context) string {
	if user := auth.UserContextFrom(ctx); user != nil && user.UserID != "" {
		return user.UserID
	}
	return "mcp"
}
