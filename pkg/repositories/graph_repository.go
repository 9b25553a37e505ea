// Package repositories provides data access over the graph store: entity
// resolution, ontology proposals, concepts, and the query/summary caches.
package repositories

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/cypher"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// GraphRepository provides entity resolution and the aggregate reads used by
// organisation-wide analysis.
type GraphRepository interface {
	// ResolveEntity matches one surface form against the graph. A nil
	// GraphID on the result marks a miss.
	ResolveEntity(ctx context.Context, value, entityType string) (*models.ResolvedEntity, error)

	// MembersByDepartment returns department names with member counts.
	MembersByDepartment(ctx context.Context) ([]map[string]any, error)

	// ProjectsByStatus returns project counts grouped by status.
	ProjectsByStatus(ctx context.Context) ([]map[string]any, error)

	// TopSkills returns the most common skills with holder counts.
	TopSkills(ctx context.Context, limit int) ([]map[string]any, error)

	// DeptSkillEdges returns (department, skill, count) tuples for the
	// community graph payload.
	DeptSkillEdges(ctx context.Context, limit int) ([]models.DeptSkillEdge, error)
}

type graphRepository struct {
	querier graph.Querier
	logger  *zap.Logger
}

// NewGraphRepository creates a new GraphRepository.
func NewGraphRepository(querier graph.Querier, logger *zap.Logger) GraphRepository {
	return &graphRepository{
		querier: querier,
		logger:  logger.Named("graph-repo"),
	}
}

var _ GraphRepository = (*graphRepository)(nil)

// koreanSuffixes are organisational suffixes users attach to names
// ("삼성 프로젝트" for a project named "삼성"). Ordered longest first.
var koreanSuffixes = []string{"프로젝트", "부서", "조직", "팀"}

func (r *graphRepository) ResolveEntity(ctx context.Context, value, entityType string) (*models.ResolvedEntity, error) {
	miss := &models.ResolvedEntity{OriginalValue: value}

	value = strings.TrimSpace(value)
	if value == "" {
		return miss, nil
	}

	label := ""
	if cypher.ValidIdentifier(entityType) {
		label = ":" + entityType
	}

	// Strategy 1: case-insensitive exact name match.
	if hit, err := r.matchByName(ctx, label, value); err != nil {
		return nil, err
	} else if hit != nil {
		hit.OriginalValue = value
		return hit, nil
	}

	// Strategy 2: interior whitespace stripped on both sides.
	query := fmt.Sprintf(`
		MATCH (n%s)
		WHERE toLower(replace(n.name, ' ', '')) = toLower(replace($value, ' ', ''))
		RETURN n LIMIT 1`, label)
	if hit, err := r.firstResolved(ctx, query, map[string]any{"value": value}); err != nil {
		return nil, err
	} else if hit != nil {
		hit.OriginalValue = value
		return hit, nil
	}

	// Strategy 3: strip a Korean organisational suffix and retry exact.
	if stem := stripKoreanSuffix(value); stem != "" {
		if hit, err := r.matchByName(ctx, label, stem); err != nil {
			return nil, err
		} else if hit != nil {
			hit.OriginalValue = value
			return hit, nil
		}
	}

	return miss, nil
}

func (r *graphRepository) matchByName(ctx context.Context, label, value string) (*models.ResolvedEntity, error) {
	query := fmt.Sprintf(`
		MATCH (n%s)
		WHERE toLower(n.name) = toLower($value)
		RETURN n LIMIT 1`, label)
	return r.firstResolved(ctx, query, map[string]any{"value": value})
}

func (r *graphRepository) firstResolved(ctx context.Context, query string, params map[string]any) (*models.ResolvedEntity, error) {
	rows, err := r.querier.ExecuteRead(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("resolve entity: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	node, ok := rows[0]["n"].(map[string]any)
	if !ok {
		return nil, nil
	}

	elementID, _ := node["elementId"].(string)
	props, _ := node["properties"].(map[string]any)
	name, _ := props["name"].(string)

	var labels []string
	switch l := node["labels"].(type) {
	case []string:
		labels = l
	case []any:
		for _, item := range l {
			if s, ok := item.(string); ok {
				labels = append(labels, s)
			}
		}
	}

	return &models.ResolvedEntity{
		GraphID:       &elementID,
		Labels:        labels,
		CanonicalName: name,
		Properties:    props,
		MatchScore:    1.0,
	}, nil
}

// stripKoreanSuffix removes a trailing organisational suffix when the
// remaining stem is still meaningful (two runes or more). Returns "" when no
// suffix applies.
func stripKoreanSuffix(value string) string {
	for _, suffix := range koreanSuffixes {
		if !strings.HasSuffix(value, suffix) {
			continue
		}
		stem := strings.TrimSpace(strings.TrimSuffix(value, suffix))
		if len([]rune(stem)) >= 2 {
			return stem
		}
	}
	return ""
}

func (r *graphRepository) MembersByDepartment(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:Person)-[:WORKS_IN]->(d:Department)
		RETURN d.name AS department, count(p) AS members
		ORDER BY members DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("members by department: %w", err)
	}
	return rows, nil
}

func (r *graphRepository) ProjectsByStatus(ctx context.Context) ([]map[string]any, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (pr:Project)
		RETURN coalesce(pr.status, 'unknown') AS status, count(pr) AS projects
		ORDER BY projects DESC`, nil)
	if err != nil {
		return nil, fmt.Errorf("projects by status: %w", err)
	}
	return rows, nil
}

func (r *graphRepository) TopSkills(ctx context.Context, limit int) ([]map[string]any, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:Person)-[:HAS_SKILL]->(s:Skill)
		RETURN s.name AS skill, count(p) AS holders
		ORDER BY holders DESC, skill
		LIMIT $limit`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("top skills: %w", err)
	}
	return rows, nil
}

func (r *graphRepository) DeptSkillEdges(ctx context.Context, limit int) ([]models.DeptSkillEdge, error) {
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (p:Person)-[:WORKS_IN]->(d:Department), (p)-[:HAS_SKILL]->(s:Skill)
		RETURN d.name AS department, s.name AS skill, count(p) AS cnt
		ORDER BY cnt DESC, department, skill
		LIMIT $limit`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("department skill edges: %w", err)
	}

	edges := make([]models.DeptSkillEdge, 0, len(rows))
	for _, row := range rows {
		dept, _ := row["department"].(string)
		skill, _ := row["skill"].(string)
		edges = append(edges, models.DeptSkillEdge{
			Department: dept,
			Skill:      skill,
			Count:      asInt(row["cnt"]),
		})
	}
	return edges, nil
}

// asInt normalises driver integers, which arrive as int64.
func asInt(value any) int {
	switch v := value.(type) {
	case int64:
		return int(v)
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
