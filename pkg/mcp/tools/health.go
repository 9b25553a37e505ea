package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

type healthResult struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}

// RegisterHealthTool adds a health check tool. The tool pings the graph and
// returns the server status and version.
func RegisterHealthTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and graph connectivity"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		result := healthResult{
			Status:  "ok",
			Version: deps.Version,
			Checks:  map[string]string{},
		}
		if deps.Querier != nil {
			if _, err := deps.Querier.ExecuteRead(pingCtx, "RETURN 1 AS ok", nil); err != nil {
				result.Status = "degraded"
				result.Checks["neo4j"] = "unreachable"
			} else {
				result.Checks["neo4j"] = "ok"
			}
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}
