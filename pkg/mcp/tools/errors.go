package tools

import (
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Returned as a successful tool result so the calling model sees the error
// details instead of having the MCP client swallow them.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable errors the caller can fix (invalid parameters,
// resource not found, stale version). System failures should still return
// Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// domainErrorResult maps a domain error to a structured tool result.
// Returns nil when the error is not caller-actionable; those propagate as
// Go errors instead.
func domainErrorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrProposalNotFound), errors.Is(err, apperrors.ErrNotFound):
		return NewErrorResult("not_found", err.Error())
	case errors.Is(err, apperrors.ErrVersionMismatch):
		return NewErrorResult("version_mismatch", "the proposal changed since you read it; fetch it again and retry")
	case errors.Is(err, apperrors.ErrInvalidProposalState):
		return NewErrorResult("invalid_state", err.Error())
	case errors.Is(err, apperrors.ErrDuplicateProposal):
		return NewErrorResult("duplicate", err.Error())
	case errors.Is(err, apperrors.ErrMissingCanonical):
		return NewErrorResult("missing_canonical", err.Error())
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrEmptyQuestion):
		return NewErrorResult("validation_failed", err.Error())
	}
	return nil
}
