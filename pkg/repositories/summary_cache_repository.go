package repositories

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

const (
	summaryCacheTTL           = 24 * time.Hour
	summaryKeywordOverlapMin  = 0.6
	summaryCacheScanBatchSize = 50
)

// SummaryCacheRepository caches global-analysis answers. Lookups match on
// keyword overlap rather than exact question text, so rephrasings of the
// same organisational question share one summary.
type SummaryCacheRepository interface {
	// Store upserts a summary keyed by the exact question text.
	Store(ctx context.Context, summary *models.CommunitySummary) error

	// Get returns a fresh summary whose keyword set overlaps the given one
	// by at least the Jaccard threshold, or nil on a miss.
	Get(ctx context.Context, keywords []string) (*models.CommunitySummary, error)
}

type summaryCacheRepository struct {
	querier graph.Querier
	logger  *zap.Logger
}

// NewSummaryCacheRepository creates a new SummaryCacheRepository.
func NewSummaryCacheRepository(querier graph.Querier, logger *zap.Logger) SummaryCacheRepository {
	return &summaryCacheRepository{
		querier: querier,
		logger:  logger.Named("summary-cache-repo"),
	}
}

var _ SummaryCacheRepository = (*summaryCacheRepository)(nil)

func (r *summaryCacheRepository) Store(ctx context.Context, summary *models.CommunitySummary) error {
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now().UTC()
	}

	_, err := r.querier.ExecuteWrite(ctx, `
		MERGE (s:CommunitySummary {question: $question})
		SET s.keywords = $keywords,
		    s.summary = $summary,
		    s.graphJson = $graphJson,
		    s.createdAt = $createdAt`, map[string]any{
		"question":  summary.Question,
		"keywords":  summary.Keywords,
		"summary":   summary.Summary,
		"graphJson": summary.GraphJSON,
		"createdAt": summary.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to store community summary: %w", err)
	}
	return nil
}

func (r *summaryCacheRepository) Get(ctx context.Context, keywords []string) (*models.CommunitySummary, error) {
	if len(keywords) == 0 {
		return nil, nil
	}

	cutoff := time.Now().UTC().Add(-summaryCacheTTL).Format(time.RFC3339)
	rows, err := r.querier.ExecuteRead(ctx, `
		MATCH (s:CommunitySummary)
		WHERE s.createdAt >= $cutoff
		RETURN s
		ORDER BY s.createdAt DESC
		LIMIT $limit`, map[string]any{
		"cutoff": cutoff,
		"limit":  summaryCacheScanBatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan summary cache: %w", err)
	}

	// Jaccard overlap is computed here rather than in Cypher so the keyword
	// normalisation stays in one place.
	var best *models.CommunitySummary
	bestScore := 0.0
	for _, row := range rows {
		summary, err := summaryFromRow(row["s"])
		if err != nil {
			r.logger.Warn("skipping malformed summary row", zap.Error(err))
			continue
		}
		score := jaccard(keywords, summary.Keywords)
		if score >= summaryKeywordOverlapMin && score > bestScore {
			best = summary
			bestScore = score
		}
	}
	return best, nil
}

// jaccard computes |A∩B| / |A∪B| over case-folded keyword sets.
func jaccard(a, b []string) float64 {
	setA := keywordSet(a)
	setB := keywordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for k := range setA {
		if _, ok := setB[k]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func keywordSet(keywords []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keywords))
	for _, k := range keywords {
		if k != "" {
			set[foldKeyword(k)] = struct{}{}
		}
	}
	return set
}

func summaryFromRow(value any) (*models.CommunitySummary, error) {
	node, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unexpected summary row shape %T", value)
	}
	props, ok := node["properties"].(map[string]any)
	if !ok {
		props = node
	}

	question := asString(props["question"])
	if question == "" {
		return nil, fmt.Errorf("summary entry missing question")
	}

	return &models.CommunitySummary{
		Question:  question,
		Keywords:  toStringSlice(props["keywords"]),
		Summary:   asString(props["summary"]),
		GraphJSON: asString(props["graphJson"]),
		CreatedAt: parseTime(props["createdAt"]),
	}, nil
}
