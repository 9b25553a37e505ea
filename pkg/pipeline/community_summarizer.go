package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/prompts"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
)

const (
	summaryTopSkills     = 10
	summaryGraphEdgesMax = 50
)

// CommunitySummarizerNode answers organisation-wide questions from three
// aggregation reads instead of a generated query. Summaries are cached by
// keyword overlap; a reuse bypasses the heavy tier entirely.
type CommunitySummarizerNode struct {
	BaseNode
	repo   repositories.GraphRepository
	cache  repositories.SummaryCacheRepository
	client llm.LLMClient
}

// NewCommunitySummarizerNode creates the community summarizer.
func NewCommunitySummarizerNode(repo repositories.GraphRepository, cache repositories.SummaryCacheRepository, client llm.LLMClient, logger *zap.Logger) *CommunitySummarizerNode {
	return &CommunitySummarizerNode{
		BaseNode: NewBaseNode(NodeCommunitySummarizer, logger),
		repo:     repo,
		cache:    cache,
		client:   client,
	}
}

var _ Node = (*CommunitySummarizerNode)(nil)

func (n *CommunitySummarizerNode) Process(ctx context.Context, state *models.PipelineState) *models.StatePatch {
	keywords := repositories.ExtractKeywords(state.Question)

	if cached, err := n.cache.Get(ctx, keywords); err != nil {
		n.Logger().Warn("summary cache lookup failed", zap.Error(err))
	} else if cached != nil {
		n.Logger().Debug("reusing cached community summary",
			zap.String("cachedQuestion", cached.Question))
		return n.respond(cached.Summary, NodeCommunitySummarizer+"_cached")
	}

	contextBlock, err := n.buildContext(ctx)
	if err != nil {
		return n.errPatch(err)
	}

	summary, err := n.client.GenerateResponse(ctx,
		prompts.BuildCommunitySummaryPrompt(contextBlock, state.Question),
		prompts.BuildCommunitySummarySystemMessage(), responseTemperature)
	if err != nil {
		return n.errPatch(fmt.Errorf("generate community summary: %w", err))
	}

	graphJSON := n.buildGraphJSON(ctx)
	if storeErr := n.cache.Store(ctx, &models.CommunitySummary{
		Question:  state.Question,
		Keywords:  keywords,
		Summary:   summary,
		GraphJSON: graphJSON,
	}); storeErr != nil {
		n.Logger().Warn("failed to cache community summary", zap.Error(storeErr))
	}

	return n.respond(summary, NodeCommunitySummarizer)
}

// buildContext renders the three aggregation reads into the prompt block.
func (n *CommunitySummarizerNode) buildContext(ctx context.Context) (string, error) {
	var b strings.Builder

	departments, err := n.repo.MembersByDepartment(ctx)
	if err != nil {
		return "", fmt.Errorf("members by department: %w", err)
	}
	b.WriteString("## Members per Department\n")
	for _, row := range departments {
		b.WriteString(fmt.Sprintf("- %v: %v\n", row["department"], row["members"]))
	}

	projects, err := n.repo.ProjectsByStatus(ctx)
	if err != nil {
		return "", fmt.Errorf("projects by status: %w", err)
	}
	b.WriteString("\n## Projects per Status\n")
	for _, row := range projects {
		b.WriteString(fmt.Sprintf("- %v: %v\n", row["status"], row["projects"]))
	}

	skills, err := n.repo.TopSkills(ctx, summaryTopSkills)
	if err != nil {
		return "", fmt.Errorf("top skills: %w", err)
	}
	b.WriteString("\n## Most Common Skills\n")
	for _, row := range skills {
		b.WriteString(fmt.Sprintf("- %v: %v holders\n", row["skill"], row["holders"]))
	}

	return b.String(), nil
}

// buildGraphJSON synthesises the department-skill graph shown next to the
// summary. Failures degrade to an empty payload.
func (n *CommunitySummarizerNode) buildGraphJSON(ctx context.Context) string {
	edges, err := n.repo.DeptSkillEdges(ctx, summaryGraphEdgesMax)
	if err != nil {
		n.Logger().Warn("failed to build community graph", zap.Error(err))
		return ""
	}

	type graphNode struct {
		ID    string `json:"id"`
		Label string `json:"label"`
		Kind  string `json:"kind"`
	}
	type graphEdge struct {
		From  string `json:"from"`
		To    string `json:"to"`
		Type  string `json:"type"`
		Count int    `json:"count"`
	}

	seen := map[string]bool{}
	var nodes []graphNode
	var out []graphEdge
	for _, e := range edges {
		if !seen["d:"+e.Department] {
			seen["d:"+e.Department] = true
			nodes = append(nodes, graphNode{ID: "d:" + e.Department, Label: e.Department, Kind: "Department"})
		}
		if !seen["s:"+e.Skill] {
			seen["s:"+e.Skill] = true
			nodes = append(nodes, graphNode{ID: "s:" + e.Skill, Label: e.Skill, Kind: "Skill"})
		}
		out = append(out, graphEdge{From: "d:" + e.Department, To: "s:" + e.Skill, Type: "DEPT_HAS_SKILL", Count: e.Count})
	}

	payload, err := json.Marshal(map[string]any{"nodes": nodes, "edges": out})
	if err != nil {
		return ""
	}
	return string(payload)
}

func (n *CommunitySummarizerNode) respond(text, pathLabel string) *models.StatePatch {
	return &models.StatePatch{
		Response:            &text,
		AppendMessages:      []models.ChatMessage{{Role: models.RoleAssistant, Content: text}},
		AppendExecutionPath: []string{pathLabel},
	}
}
