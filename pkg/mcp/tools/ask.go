package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// RegisterAskTool adds the ask_graph tool, which runs a natural-language
// question through the full query pipeline.
func RegisterAskTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"ask_graph",
		mcp.WithDescription(
			"Answer a natural-language question about people, departments, projects and skills "+
				"using the organisation graph. Supports Korean and English. "+
				"Pass the same thread_id across calls to keep conversational context.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer, e.g. '쿠버네티스 할 줄 아는 사람 누구야?'"),
		),
		mcp.WithString(
			"thread_id",
			mcp.Description("Optional - conversation thread identifier for follow-up questions"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		question = trimString(question)
		if question == "" {
			return NewErrorResult("invalid_parameters", "parameter 'question' cannot be empty"), nil
		}

		threadID := getOptionalString(req, "thread_id")

		result, err := deps.Runner.Run(ctx, question, threadID)
		if err != nil {
			if errResult := domainErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("ask_graph pipeline run failed", zap.Error(err))
			return nil, fmt.Errorf("pipeline run failed: %w", err)
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal pipeline result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}
