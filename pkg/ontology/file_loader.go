package ontology

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// conceptNode is one entry of the YAML vocabulary tree.
type conceptNode struct {
	Synonyms []string               `yaml:"synonyms"`
	Children map[string]conceptNode `yaml:"children"`
}

// FileLoader serves the vocabulary from a YAML document of the form
// category → canonical → {synonyms, children}. The whole file is parsed at
// construction; lookups never touch the disk.
type FileLoader struct {
	path string

	canonicalOf map[string]string   // lower(any name) → canonical
	namesOf     map[string][]string // lower(canonical) → canonical + synonyms
	childrenOf  map[string][]string // lower(canonical) → all descendants
	categoryOf  map[string]string   // lower(canonical) → category

	logger *zap.Logger
}

var _ Loader = (*FileLoader)(nil)

// NewFileLoader parses the YAML vocabulary at path.
func NewFileLoader(path string, logger *zap.Logger) (*FileLoader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ontology file: %w", err)
	}

	var doc map[string]map[string]conceptNode
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse ontology file %s: %w", path, err)
	}

	l := &FileLoader{
		path:        path,
		canonicalOf: map[string]string{},
		namesOf:     map[string][]string{},
		childrenOf:  map[string][]string{},
		categoryOf:  map[string]string{},
		logger:      logger.Named("ontology-file"),
	}

	for category, concepts := range doc {
		for canonical, node := range concepts {
			l.index(category, canonical, node)
		}
	}

	l.logger.Info("ontology file loaded",
		zap.String("path", path),
		zap.Int("concepts", len(l.namesOf)))

	return l, nil
}

func (l *FileLoader) index(category, canonical string, node conceptNode) {
	key := strings.ToLower(canonical)
	l.canonicalOf[key] = canonical
	l.categoryOf[key] = category

	names := append([]string{canonical}, node.Synonyms...)
	l.namesOf[key] = names
	for _, syn := range node.Synonyms {
		l.canonicalOf[strings.ToLower(syn)] = canonical
	}

	l.childrenOf[key] = collectDescendants(node.Children)

	for childName, childNode := range node.Children {
		l.index(category, childName, childNode)
	}
}

// collectDescendants flattens the child tree to every level, sorted for
// deterministic expansion.
func collectDescendants(children map[string]conceptNode) []string {
	if len(children) == 0 {
		return nil
	}
	var out []string
	names := make([]string, 0, len(children))
	for name := range children {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, name)
		out = append(out, collectDescendants(children[name].Children)...)
	}
	return out
}

// lookup resolves term to its canonical name and reports whether the term is
// in the vocabulary at all.
func (l *FileLoader) lookup(term string) (string, bool) {
	canonical, ok := l.canonicalOf[strings.ToLower(strings.TrimSpace(term))]
	return canonical, ok
}

// GetCanonical returns the canonical name for term; unknown terms map to
// themselves.
func (l *FileLoader) GetCanonical(ctx context.Context, term string) string {
	if canonical, ok := l.lookup(term); ok {
		return canonical
	}
	return term
}

// GetSynonyms returns the other names of the term's concept, canonical
// included, the queried form excluded.
func (l *FileLoader) GetSynonyms(ctx context.Context, term string) []string {
	canonical, ok := l.lookup(term)
	if !ok {
		return nil
	}

	queried := strings.ToLower(strings.TrimSpace(term))
	var out []string
	for _, name := range l.namesOf[strings.ToLower(canonical)] {
		if strings.ToLower(name) == queried {
			continue
		}
		out = append(out, name)
	}
	return out
}

// GetChildren returns every descendant of the concept, all levels deep.
func (l *FileLoader) GetChildren(ctx context.Context, concept string) []string {
	canonical, ok := l.lookup(concept)
	if !ok {
		return nil
	}
	return l.childrenOf[strings.ToLower(canonical)]
}

// ExpandConcept returns the bounded expansion of term.
func (l *FileLoader) ExpandConcept(ctx context.Context, term string, cfg ExpandConfig) []string {
	return expandConcept(ctx, l, term, cfg)
}

// ClearCache is a no-op; the registry replaces file loaders wholesale on
// refresh so the YAML is re-parsed.
func (l *FileLoader) ClearCache() {}

// Category returns the vocabulary bucket a concept belongs to, or "".
func (l *FileLoader) Category(term string) string {
	canonical := l.canonicalOf[strings.ToLower(strings.TrimSpace(term))]
	if canonical == "" {
		return ""
	}
	return l.categoryOf[strings.ToLower(canonical)]
}

// ConceptCount returns how many concepts the file defines.
func (l *FileLoader) ConceptCount() int {
	return len(l.namesOf)
}
