package ontology

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
)

// conceptQuerier fakes a graph holding Kubernetes with alias K8s and child
// Helm.
func conceptQuerier(reads *atomic.Int32) *graph.MockQuerier {
	return &graph.MockQuerier{
		ExecuteReadFunc: func(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
			reads.Add(1)
			switch {
			case strings.Contains(cypher, "SAME_AS]->(canon"):
				term, _ := params["term"].(string)
				switch term {
				case "k8s", "kubernetes":
					return []map[string]any{{"canonical": "Kubernetes"}}, nil
				case "helm":
					return []map[string]any{{"canonical": "Helm"}}, nil
				}
				return nil, nil
			case strings.Contains(cypher, "collect(alias.name)"):
				if params["canonical"] == "kubernetes" {
					return []map[string]any{{"canonical": "Kubernetes", "aliases": []any{"K8s"}}}, nil
				}
				return []map[string]any{{"canonical": "Helm", "aliases": []any{}}}, nil
			case strings.Contains(cypher, "IS_A*1..3"):
				if params["concept"] == "kubernetes" {
					return []map[string]any{{"name": "Helm"}}, nil
				}
				return nil, nil
			}
			return nil, nil
		},
	}
}

func TestGraphLoader_GetCanonical(t *testing.T) {
	var reads atomic.Int32
	loader := NewGraphLoader(conceptQuerier(&reads), zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, "Kubernetes", loader.GetCanonical(ctx, "K8s"))
	// Unknown terms map to themselves.
	assert.Equal(t, "Flutter", loader.GetCanonical(ctx, "Flutter"))
}

func TestGraphLoader_CachesLookups(t *testing.T) {
	var reads atomic.Int32
	loader := NewGraphLoader(conceptQuerier(&reads), zap.NewNop())
	ctx := context.Background()

	loader.GetCanonical(ctx, "K8s")
	loader.GetCanonical(ctx, "K8s")
	assert.Equal(t, int32(1), reads.Load())

	loader.ClearCache()
	loader.GetCanonical(ctx, "K8s")
	assert.Equal(t, int32(2), reads.Load())
}

func TestGraphLoader_GetSynonyms(t *testing.T) {
	var reads atomic.Int32
	loader := NewGraphLoader(conceptQuerier(&reads), zap.NewNop())

	synonyms := loader.GetSynonyms(context.Background(), "K8s")
	assert.ElementsMatch(t, []string{"Kubernetes"}, synonyms)

	synonyms = loader.GetSynonyms(context.Background(), "Kubernetes")
	assert.ElementsMatch(t, []string{"K8s"}, synonyms)
}

func TestGraphLoader_GetChildren(t *testing.T) {
	var reads atomic.Int32
	loader := NewGraphLoader(conceptQuerier(&reads), zap.NewNop())

	assert.Equal(t, []string{"Helm"}, loader.GetChildren(context.Background(), "Kubernetes"))
	assert.Empty(t, loader.GetChildren(context.Background(), "Helm"))
}

func TestGraphLoader_ExpandConcept(t *testing.T) {
	var reads atomic.Int32
	loader := NewGraphLoader(conceptQuerier(&reads), zap.NewNop())

	expanded := loader.ExpandConcept(context.Background(), "K8s", DefaultExpandConfig())
	assert.Equal(t, []string{"K8s", "Kubernetes", "Helm"}, expanded)
}

func TestHybridLoader_FallsBackToFile(t *testing.T) {
	// Graph knows nothing; file carries the vocabulary.
	emptyGraph := NewGraphLoader(&graph.MockQuerier{}, zap.NewNop())
	fileLoader := newTestFileLoader(t)
	hybrid := NewHybridLoader(emptyGraph, fileLoader)
	ctx := context.Background()

	assert.Equal(t, "Kubernetes", hybrid.GetCanonical(ctx, "K8s"))
	assert.ElementsMatch(t, []string{"Kubernetes", "쿠버네티스"}, hybrid.GetSynonyms(ctx, "K8s"))
	assert.Equal(t, []string{"Helm", "Istio"}, hybrid.GetChildren(ctx, "Kubernetes"))
}

func TestHybridLoader_PrefersGraph(t *testing.T) {
	var reads atomic.Int32
	hybrid := NewHybridLoader(NewGraphLoader(conceptQuerier(&reads), zap.NewNop()), newTestFileLoader(t))

	// File says children are Helm+Istio; the graph only knows Helm and wins.
	assert.Equal(t, []string{"Helm"}, hybrid.GetChildren(context.Background(), "Kubernetes"))
}

func TestHybridLoader_ExpandConcept(t *testing.T) {
	emptyGraph := NewGraphLoader(&graph.MockQuerier{}, zap.NewNop())
	hybrid := NewHybridLoader(emptyGraph, newTestFileLoader(t))

	expanded := hybrid.ExpandConcept(context.Background(), "K8s", DefaultExpandConfig())
	require.NotEmpty(t, expanded)
	assert.Equal(t, "K8s", expanded[0])
	assert.Contains(t, expanded, "Kubernetes")
	assert.Contains(t, expanded, "Helm")
}
