package ontology

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
)

// GraphLoader serves the vocabulary from Concept nodes in the graph:
// SAME_AS edges carry synonymy (alias → canonical), IS_A edges carry the
// hierarchy. Lookups are cached in-process until ClearCache.
type GraphLoader struct {
	querier graph.Querier
	logger  *zap.Logger

	mu            sync.RWMutex
	canonicalCache map[string]string
	synonymCache   map[string][]string
	childrenCache  map[string][]string
}

var _ Loader = (*GraphLoader)(nil)

// NewGraphLoader creates a graph-backed vocabulary loader.
func NewGraphLoader(querier graph.Querier, logger *zap.Logger) *GraphLoader {
	l := &GraphLoader{
		querier: querier,
		logger:  logger.Named("ontology-graph"),
	}
	l.ClearCache()
	return l
}

// GetCanonical returns the canonical name for term; unknown terms map to
// themselves.
func (l *GraphLoader) GetCanonical(ctx context.Context, term string) string {
	if canonical := l.lookup(ctx, term); canonical != "" {
		return canonical
	}
	return term
}

// lookup resolves term to its canonical name, or "" when the graph does not
// know the term. Both outcomes are cached.
func (l *GraphLoader) lookup(ctx context.Context, term string) string {
	key := strings.ToLower(strings.TrimSpace(term))
	if key == "" {
		return ""
	}

	l.mu.RLock()
	cached, ok := l.canonicalCache[key]
	l.mu.RUnlock()
	if ok {
		return cached
	}

	rows, err := l.querier.ExecuteRead(ctx, `
		MATCH (c:Concept)
		WHERE toLower(c.name) = $term
		OPTIONAL MATCH (c)-[:SAME_AS]->(canon:Concept {isCanonical: true})
		RETURN CASE WHEN c.isCanonical THEN c.name ELSE canon.name END AS canonical
		LIMIT 1`,
		map[string]any{"term": key})
	if err != nil {
		l.logger.Warn("canonical lookup failed", zap.String("term", term), zap.Error(err))
		return ""
	}

	canonical := ""
	if len(rows) > 0 {
		canonical, _ = rows[0]["canonical"].(string)
	}

	l.mu.Lock()
	l.canonicalCache[key] = canonical
	l.mu.Unlock()
	return canonical
}

// GetSynonyms returns the other names of the term's concept, canonical
// included, the queried form excluded.
func (l *GraphLoader) GetSynonyms(ctx context.Context, term string) []string {
	canonical := l.lookup(ctx, term)
	if canonical == "" {
		return nil
	}

	key := strings.ToLower(canonical)
	l.mu.RLock()
	cached, ok := l.synonymCache[key]
	l.mu.RUnlock()
	if !ok {
		rows, err := l.querier.ExecuteRead(ctx, `
			MATCH (canon:Concept {isCanonical: true})
			WHERE toLower(canon.name) = $canonical
			OPTIONAL MATCH (alias:Concept)-[:SAME_AS]->(canon)
			RETURN canon.name AS canonical, collect(alias.name) AS aliases`,
			map[string]any{"canonical": key})
		if err != nil {
			l.logger.Warn("synonym lookup failed", zap.String("term", term), zap.Error(err))
			return nil
		}

		if len(rows) > 0 {
			cached = append(cached, canonical)
			for _, alias := range toStrings(rows[0]["aliases"]) {
				if alias != "" {
					cached = append(cached, alias)
				}
			}
		}

		l.mu.Lock()
		l.synonymCache[key] = cached
		l.mu.Unlock()
	}

	queried := strings.ToLower(strings.TrimSpace(term))
	var out []string
	for _, name := range cached {
		if strings.ToLower(name) == queried {
			continue
		}
		out = append(out, name)
	}
	return out
}

// GetChildren returns narrower concepts up to three levels deep.
func (l *GraphLoader) GetChildren(ctx context.Context, concept string) []string {
	canonical := l.lookup(ctx, concept)
	if canonical == "" {
		return nil
	}

	key := strings.ToLower(canonical)
	l.mu.RLock()
	cached, ok := l.childrenCache[key]
	l.mu.RUnlock()
	if ok {
		return cached
	}

	rows, err := l.querier.ExecuteRead(ctx, `
		MATCH (parent:Concept)
		WHERE toLower(parent.name) = $concept
		MATCH (child:Concept)-[:IS_A*1..3]->(parent)
		RETURN DISTINCT child.name AS name
		ORDER BY name`,
		map[string]any{"concept": key})
	if err != nil {
		l.logger.Warn("children lookup failed", zap.String("concept", concept), zap.Error(err))
		return nil
	}

	children := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["name"].(string); ok && name != "" {
			children = append(children, name)
		}
	}

	l.mu.Lock()
	l.childrenCache[key] = children
	l.mu.Unlock()
	return children
}

// ExpandConcept returns the bounded expansion of term.
func (l *GraphLoader) ExpandConcept(ctx context.Context, term string, cfg ExpandConfig) []string {
	return expandConcept(ctx, l, term, cfg)
}

// ClearCache drops every cached lookup.
func (l *GraphLoader) ClearCache() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.canonicalCache = map[string]string{}
	l.synonymCache = map[string][]string{}
	l.childrenCache = map[string][]string{}
}

func toStrings(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
