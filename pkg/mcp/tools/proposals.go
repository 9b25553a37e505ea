package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

// RegisterProposalTools registers the ontology proposal review tools.
func RegisterProposalTools(s *server.MCPServer, deps *Deps) {
	registerListProposalsTool(s, deps)
	registerGetProposalTool(s, deps)
	registerApproveProposalTool(s, deps)
	registerRejectProposalTool(s, deps)
}

// registerListProposalsTool adds list_proposals for browsing the review queue.
func registerListProposalsTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_proposals",
		mcp.WithDescription(
			"List ontology change proposals awaiting review. "+
				"Filter by status ('pending', 'approved', 'rejected', 'auto_approved'), "+
				"type ('NEW_CONCEPT', 'NEW_SYNONYM', 'NEW_RELATION'), source ('chat', 'background', 'admin'), "+
				"category, or a term substring.",
		),
		mcp.WithString("status", mcp.Description("Optional - proposal status filter")),
		mcp.WithString("type", mcp.Description("Optional - proposal type filter")),
		mcp.WithString("source", mcp.Description("Optional - proposal source filter")),
		mcp.WithString("category", mcp.Description("Optional - ontology category, e.g. 'skills'")),
		mcp.WithString("term", mcp.Description("Optional - case-insensitive term substring")),
		mcp.WithNumber("limit", mcp.Description("Optional - maximum results, defaults to 50")),
		mcp.WithNumber("offset", mcp.Description("Optional - pagination offset")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		filter := repositories.ProposalFilter{
			Status:   models.ProposalStatus(getOptionalString(req, "status")),
			Type:     models.ProposalType(getOptionalString(req, "type")),
			Source:   models.ProposalSource(getOptionalString(req, "source")),
			Category: getOptionalString(req, "category"),
			Term:     getOptionalString(req, "term"),
			Limit:    50,
		}
		if limit, ok := getOptionalFloat(req, "limit"); ok && limit > 0 {
			filter.Limit = int(limit)
		}
		if offset, ok := getOptionalFloat(req, "offset"); ok && offset > 0 {
			filter.Offset = int(offset)
		}

		proposals, total, err := deps.Service.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list proposals: %w", err)
		}

		result := struct {
			Proposals []*models.OntologyProposal `json:"proposals"`
			Total     int                        `json:"total"`
		}{
			Proposals: proposals,
			Total:     total,
		}
		if result.Proposals == nil {
			result.Proposals = []*models.OntologyProposal{}
		}

		jsonBytes, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal proposal list: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// registerGetProposalTool adds get_proposal for fetching a single proposal.
func registerGetProposalTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"get_proposal",
		mcp.WithDescription("Get a single ontology proposal by its UUID, including its current version for optimistic review."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Proposal UUID")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := proposalIDParam(req)
		if errResult != nil {
			return errResult, nil
		}

		proposal, err := deps.Service.GetByID(ctx, id)
		if err != nil {
			if errResult := domainErrorResult(err); errResult != nil {
				return errResult, nil
			}
			return nil, fmt.Errorf("failed to get proposal: %w", err)
		}

		jsonBytes, err := json.Marshal(proposal)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal proposal: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// registerApproveProposalTool adds approve_proposal, which approves a pending
// proposal and applies it to the graph.
func registerApproveProposalTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"approve_proposal",
		mcp.WithDescription(
			"Approve a pending ontology proposal and apply it to the knowledge graph. "+
				"Requires the expected_version from a prior get_proposal call; a stale version is rejected.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Proposal UUID")),
		mcp.WithNumber("expected_version", mcp.Required(), mcp.Description("Version read before reviewing")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := proposalIDParam(req)
		if errResult != nil {
			return errResult, nil
		}
		version, ok := getOptionalFloat(req, "expected_version")
		if !ok {
			return NewErrorResult("invalid_parameters", "parameter 'expected_version' is required"), nil
		}

		proposal, err := deps.Service.Approve(ctx, id, int(version), callerID(ctx))
		if err != nil {
			if errResult := domainErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("approve_proposal failed", zap.String("id", id.String()), zap.Error(err))
			return nil, fmt.Errorf("failed to approve proposal: %w", err)
		}

		jsonBytes, err := json.Marshal(proposal)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal proposal: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// registerRejectProposalTool adds reject_proposal.
func registerRejectProposalTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"reject_proposal",
		mcp.WithDescription(
			"Reject a pending ontology proposal with a reason. "+
				"Requires the expected_version from a prior get_proposal call.",
		),
		mcp.WithString("id", mcp.Required(), mcp.Description("Proposal UUID")),
		mcp.WithNumber("expected_version", mcp.Required(), mcp.Description("Version read before reviewing")),
		mcp.WithString("reason", mcp.Description("Optional - why the proposal was rejected")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := proposalIDParam(req)
		if errResult != nil {
			return errResult, nil
		}
		version, ok := getOptionalFloat(req, "expected_version")
		if !ok {
			return NewErrorResult("invalid_parameters", "parameter 'expected_version' is required"), nil
		}
		reason := trimString(getOptionalString(req, "reason"))

		proposal, err := deps.Service.Reject(ctx, id, int(version), callerID(ctx), reason)
		if err != nil {
			if errResult := domainErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("reject_proposal failed", zap.String("id", id.String()), zap.Error(err))
			return nil, fmt.Errorf("failed to reject proposal: %w", err)
		}

		jsonBytes, err := json.Marshal(proposal)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal proposal: %w", err)
		}
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// proposalIDParam extracts and validates the required id parameter.
func proposalIDParam(req mcp.CallToolRequest) (uuid.UUID, *mcp.CallToolResult) {
	raw, err := req.RequireString("id")
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", err.Error())
	}
	id, err := uuid.Parse(trimString(raw))
	if err != nil {
		return uuid.Nil, NewErrorResult("invalid_parameters", "parameter 'id' must be a UUID")
	}
	return id, nil
}
