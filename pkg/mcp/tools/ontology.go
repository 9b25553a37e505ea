package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

type ontologyStatsResult struct {
	Mode         string    `json:"mode"`
	LastRefresh  time.Time `json:"last_refresh"`
	ConceptCount int       `json:"concept_count"`
	Skills       []string  `json:"canonical_skills,omitempty"`
}

// RegisterOntologyStatsTool adds ontology_stats, which reports the loaded
// vocabulary so a reviewer can see what the resolver currently knows.
func RegisterOntologyStatsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"ontology_stats",
		mcp.WithDescription(
			"Report the state of the loaded ontology: source mode (file or graph), "+
				"last refresh time, concept count and the canonical concept names.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result := ontologyStatsResult{
			Mode:        deps.Registry.Mode(),
			LastRefresh: deps.Registry.LastRefresh(),
		}

		if deps.Concepts != nil {
			count, err := deps.Concepts.CountConcepts(ctx)
			if err != nil {
				deps.Logger.Warn("concept count unavailable", zap.Error(err))
			} else {
				result.ConceptCount = count
			}
			names, err := deps.Concepts.ListCanonicalNames(ctx, models.ConceptTypeSkill)
			if err != nil {
				deps.Logger.Warn("canonical names unavailable", zap.Error(err))
			} else {
				result.Skills = names
			}
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ontology stats: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}
