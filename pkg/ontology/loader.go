// Package ontology provides the concept vocabulary behind query expansion:
// loaders over a YAML file, the graph, or both, plus the registry that swaps
// them atomically on refresh.
package ontology

import (
	"context"
	"strings"
)

// Loader answers vocabulary questions. Lookups are case-insensitive over the
// term; failures are internal (logged by implementations) and surface as
// empty results so the pipeline degrades instead of failing.
type Loader interface {
	// GetCanonical returns the canonical name for a term; unknown terms map
	// to themselves. A canonical term returns itself.
	GetCanonical(ctx context.Context, term string) string

	// GetSynonyms returns every other name of the term's concept, canonical
	// included, the queried surface form excluded.
	GetSynonyms(ctx context.Context, term string) []string

	// GetChildren returns narrower concepts of the given concept.
	GetChildren(ctx context.Context, concept string) []string

	// ExpandConcept returns the term plus canonical, synonyms, and children
	// under the expansion config. Deterministic and duplicate-free.
	ExpandConcept(ctx context.Context, term string, cfg ExpandConfig) []string

	// ClearCache drops any in-process lookup cache.
	ClearCache()
}

// ExpandConfig bounds concept expansion. Synonyms take priority over
// children when the total cap truncates.
type ExpandConfig struct {
	IncludeSynonyms bool
	IncludeChildren bool
	MaxSynonyms     int
	MaxChildren     int
	MaxTotal        int
}

// DefaultExpandConfig returns the expansion bounds used by the pipeline.
func DefaultExpandConfig() ExpandConfig {
	return ExpandConfig{
		IncludeSynonyms: true,
		IncludeChildren: true,
		MaxSynonyms:     5,
		MaxChildren:     10,
		MaxTotal:        15,
	}
}

// expandConcept implements ExpandConcept on top of the three lookups so every
// loader shares identical expansion semantics.
func expandConcept(ctx context.Context, l Loader, term string, cfg ExpandConfig) []string {
	out := make([]string, 0, cfg.MaxTotal)
	seen := map[string]bool{}

	add := func(value string) bool {
		if cfg.MaxTotal > 0 && len(out) >= cfg.MaxTotal {
			return false
		}
		key := strings.ToLower(strings.TrimSpace(value))
		if key == "" || seen[key] {
			return true
		}
		seen[key] = true
		out = append(out, value)
		return true
	}

	add(term)

	if canonical := l.GetCanonical(ctx, term); canonical != "" {
		add(canonical)
	}

	if cfg.IncludeSynonyms {
		synonyms := l.GetSynonyms(ctx, term)
		if cfg.MaxSynonyms > 0 && len(synonyms) > cfg.MaxSynonyms {
			synonyms = synonyms[:cfg.MaxSynonyms]
		}
		for _, s := range synonyms {
			if !add(s) {
				return out
			}
		}
	}

	if cfg.IncludeChildren {
		children := l.GetChildren(ctx, term)
		if cfg.MaxChildren > 0 && len(children) > cfg.MaxChildren {
			children = children[:cfg.MaxChildren]
		}
		for _, c := range children {
			if !add(c) {
				return out
			}
		}
	}

	return out
}
