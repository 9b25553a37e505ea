package graph

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j/dbtype"
)

// SerializeValue converts driver types into JSON-friendly values: nodes and
// relationships become maps, temporals become ISO-8601 strings, containers
// recurse, and plain scalars pass through.
func SerializeValue(value any) any {
	switch v := value.(type) {
	case dbtype.Node:
		return serializeNode(v)
	case dbtype.Relationship:
		return serializeRelationship(v)
	case dbtype.Path:
		return serializePath(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case dbtype.Date:
		return v.Time().Format("2006-01-02")
	case dbtype.LocalTime:
		return v.Time().Format("15:04:05")
	case dbtype.Time:
		return v.Time().Format("15:04:05Z07:00")
	case dbtype.LocalDateTime:
		return v.Time().Format("2006-01-02T15:04:05")
	case dbtype.Duration:
		return v.String()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = SerializeValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = SerializeValue(item)
		}
		return out
	default:
		return v
	}
}

func serializeNode(node dbtype.Node) map[string]any {
	return map[string]any{
		"id":         node.Id,
		"elementId":  node.ElementId,
		"labels":     node.Labels,
		"properties": SerializeValue(node.Props),
	}
}

func serializeRelationship(rel dbtype.Relationship) map[string]any {
	return map[string]any{
		"id":          rel.Id,
		"type":        rel.Type,
		"startNodeId": rel.StartId,
		"endNodeId":   rel.EndId,
		"properties":  SerializeValue(rel.Props),
	}
}

func serializePath(path dbtype.Path) map[string]any {
	nodes := make([]any, len(path.Nodes))
	for i, n := range path.Nodes {
		nodes[i] = serializeNode(n)
	}
	rels := make([]any, len(path.Relationships))
	for i, r := range path.Relationships {
		rels[i] = serializeRelationship(r)
	}
	return map[string]any{
		"nodes":         nodes,
		"relationships": rels,
	}
}
