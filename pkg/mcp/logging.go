package mcp

import (
	"context"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
)

// maxLoggedArg caps how much of a single string argument ends up in logs.
// Questions can carry long pasted context.
const maxLoggedArg = 500

// CallLogger records MCP tool calls with caller identity and duration.
type CallLogger struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewCallLogger creates a CallLogger writing through the given logger.
func NewCallLogger(logger *zap.Logger) *CallLogger {
	return &CallLogger{
		logger: logger.Named("mcp"),
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (c *CallLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(c.beforeCallTool)
	hooks.AddAfterCallTool(c.afterCallTool)
	hooks.AddOnError(c.onError)
	return hooks
}

func (c *CallLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	c.startTimes.Store(id, time.Now())
}

func (c *CallLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	start, _ := c.loadAndDeleteStart(id)

	fields := c.callFields(ctx, req, start)
	if result != nil && result.IsError {
		fields = append(fields, zap.Bool("tool_error", true))
		c.logger.Warn("mcp tool call returned error result", fields...)
		return
	}
	c.logger.Info("mcp tool call", fields...)
}

func (c *CallLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	start, _ := c.loadAndDeleteStart(id)
	fields := append(c.callFields(ctx, req, start), zap.Error(err))
	c.logger.Warn("mcp tool call failed", fields...)
}

func (c *CallLogger) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := c.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

func (c *CallLogger) callFields(ctx context.Context, req *mcplib.CallToolRequest, start time.Time) []zap.Field {
	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Duration("duration", time.Since(start)),
	}
	if user := auth.UserContextFrom(ctx); user != nil && user.UserID != "" {
		fields = append(fields, zap.String("user_id", user.UserID))
	}
	if args := truncatedArgs(req.Params.Arguments); len(args) > 0 {
		fields = append(fields, zap.Any("args", args))
	}
	return fields
}

// truncatedArgs shortens long string arguments so a pasted document in a
// question does not flood the log.
func truncatedArgs(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	out := make(map[string]any, len(params))
	for k, v := range params {
		if IsSensitiveKey(k) {
			out[k] = "[redacted]"
			continue
		}
		if s, ok := v.(string); ok && len(s) > maxLoggedArg {
			out[k] = s[:maxLoggedArg] + "...[truncated]"
			continue
		}
		out[k] = v
	}
	return out
}

// sensitiveKeys are argument names that never get logged verbatim.
var sensitiveKeys = []string{"token", "password", "secret", "api_key"}

// IsSensitiveKey reports whether an argument name looks like a credential.
func IsSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
