package graph

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/models"
)

// SchemaService introspects the graph's shape and caches the snapshot for a
// TTL so every pipeline run does not hammer the system procedures.
type SchemaService struct {
	querier Querier
	ttl     time.Duration
	logger  *zap.Logger

	mu        sync.Mutex
	cached    *models.GraphSchema
	fetchedAt time.Time
}

// NewSchemaService creates a schema introspection service with the given
// cache TTL.
func NewSchemaService(querier Querier, ttl time.Duration, logger *zap.Logger) *SchemaService {
	return &SchemaService{
		querier: querier,
		ttl:     ttl,
		logger:  logger.Named("schema"),
	}
}

// FetchSchema returns the current schema snapshot, from cache when fresh.
func (s *SchemaService) FetchSchema(ctx context.Context) (*models.GraphSchema, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil && time.Since(s.fetchedAt) < s.ttl {
		return s.cached, nil
	}

	schema, err := s.introspect(ctx)
	if err != nil {
		// Serve a stale snapshot over failing the whole pipeline run.
		if s.cached != nil {
			s.logger.Warn("schema introspection failed, serving stale snapshot", zap.Error(err))
			return s.cached, nil
		}
		return nil, err
	}

	s.cached = schema
	s.fetchedAt = time.Now()
	return schema, nil
}

// Invalidate drops the cached snapshot so the next fetch introspects again.
// Called after ontology changes are applied to the graph.
func (s *SchemaService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cached = nil
}

func (s *SchemaService) introspect(ctx context.Context) (*models.GraphSchema, error) {
	schema := &models.GraphSchema{
		NodeProperties:         map[string][]string{},
		RelationshipProperties: map[string][]string{},
	}

	labels, err := s.stringColumn(ctx, "CALL db.labels() YIELD label RETURN label", "label")
	if err != nil {
		return nil, fmt.Errorf("introspect labels: %w", err)
	}
	schema.Labels = labels

	relTypes, err := s.stringColumn(ctx, "CALL db.relationshipTypes() YIELD relationshipType RETURN relationshipType", "relationshipType")
	if err != nil {
		return nil, fmt.Errorf("introspect relationship types: %w", err)
	}
	schema.RelationshipTypes = relTypes

	if err := s.introspectProperties(ctx, schema); err != nil {
		return nil, err
	}

	indexes, err := s.showColumn(ctx, "SHOW INDEXES YIELD name RETURN name", "name")
	if err != nil {
		s.logger.Debug("index introspection unavailable", zap.Error(err))
	} else {
		schema.Indexes = indexes
	}

	constraints, err := s.showColumn(ctx, "SHOW CONSTRAINTS YIELD name RETURN name", "name")
	if err != nil {
		s.logger.Debug("constraint introspection unavailable", zap.Error(err))
	} else {
		schema.Constraints = constraints
	}

	return schema, nil
}

func (s *SchemaService) introspectProperties(ctx context.Context, schema *models.GraphSchema) error {
	nodeProps, err := s.querier.ExecuteRead(ctx,
		"CALL db.schema.nodeTypeProperties() YIELD nodeLabels, propertyName RETURN nodeLabels, propertyName", nil)
	if err != nil {
		return fmt.Errorf("introspect node properties: %w", err)
	}
	for _, row := range nodeProps {
		prop, _ := row["propertyName"].(string)
		if prop == "" {
			continue
		}
		for _, label := range toStringSlice(row["nodeLabels"]) {
			if !contains(schema.NodeProperties[label], prop) {
				schema.NodeProperties[label] = append(schema.NodeProperties[label], prop)
			}
		}
	}

	relProps, err := s.querier.ExecuteRead(ctx,
		"CALL db.schema.relTypeProperties() YIELD relType, propertyName RETURN relType, propertyName", nil)
	if err != nil {
		return fmt.Errorf("introspect relationship properties: %w", err)
	}
	for _, row := range relProps {
		prop, _ := row["propertyName"].(string)
		relType, _ := row["relType"].(string)
		// relType arrives as ":`WORKS_IN`"; strip the decoration.
		relType = strings.Trim(strings.TrimPrefix(relType, ":"), "`")
		if prop == "" || relType == "" {
			continue
		}
		if !contains(schema.RelationshipProperties[relType], prop) {
			schema.RelationshipProperties[relType] = append(schema.RelationshipProperties[relType], prop)
		}
	}

	return nil
}

func (s *SchemaService) stringColumn(ctx context.Context, cypher, column string) ([]string, error) {
	rows, err := s.querier.ExecuteRead(ctx, cypher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[column].(string); ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// showColumn is stringColumn for SHOW commands, which some deployments
// restrict; callers treat failures as optional data.
func (s *SchemaService) showColumn(ctx context.Context, cypher, column string) ([]string, error) {
	return s.stringColumn(ctx, cypher, column)
}

func toStringSlice(value any) []string {
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

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
