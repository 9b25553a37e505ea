package ontology

import (
	"context"
)

// HybridLoader consults the graph first and falls back to the YAML file when
// the graph answer is empty. The graph carries learned vocabulary; the file
// carries the curated seed.
type HybridLoader struct {
	graph *GraphLoader
	file  *FileLoader
}

var _ Loader = (*HybridLoader)(nil)

// NewHybridLoader combines a graph loader with a file fallback.
func NewHybridLoader(graphLoader *GraphLoader, fileLoader *FileLoader) *HybridLoader {
	return &HybridLoader{graph: graphLoader, file: fileLoader}
}

// GetCanonical returns the canonical name for term; unknown terms map to
// themselves.
func (l *HybridLoader) GetCanonical(ctx context.Context, term string) string {
	if canonical := l.graph.lookup(ctx, term); canonical != "" {
		return canonical
	}
	if canonical, ok := l.file.lookup(term); ok {
		return canonical
	}
	return term
}

// GetSynonyms returns the other names of the term's concept.
func (l *HybridLoader) GetSynonyms(ctx context.Context, term string) []string {
	if synonyms := l.graph.GetSynonyms(ctx, term); len(synonyms) > 0 {
		return synonyms
	}
	return l.file.GetSynonyms(ctx, term)
}

// GetChildren returns narrower concepts of the given concept.
func (l *HybridLoader) GetChildren(ctx context.Context, concept string) []string {
	if children := l.graph.GetChildren(ctx, concept); len(children) > 0 {
		return children
	}
	return l.file.GetChildren(ctx, concept)
}

// ExpandConcept returns the bounded expansion of term.
func (l *HybridLoader) ExpandConcept(ctx context.Context, term string, cfg ExpandConfig) []string {
	return expandConcept(ctx, l, term, cfg)
}

// ClearCache drops the graph loader's cache; the file side has none.
func (l *HybridLoader) ClearCache() {
	l.graph.ClearCache()
	l.file.ClearCache()
}
