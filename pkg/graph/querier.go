// Package graph wraps the Neo4j driver: query execution, result
// serialisation, schema introspection, vector search, and migrations.
package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	neo4jconfig "github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/logging"
)

// Querier executes Cypher against the graph and returns serialised records.
// Use it for dependency injection to enable mocking in tests.
type Querier interface {
	// ExecuteRead runs a read-only query in a read transaction.
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// ExecuteWrite runs a mutating query in a write transaction.
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error)

	// Close releases the underlying driver.
	Close(ctx context.Context) error
}

type neo4jQuerier struct {
	driver   neo4j.DriverWithContext
	database string
	logger   *zap.Logger
}

var _ Querier = (*neo4jQuerier)(nil)

// NewQuerier connects to Neo4j and verifies connectivity before returning.
func NewQuerier(ctx context.Context, cfg config.Neo4jConfig, logger *zap.Logger) (Querier, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *neo4jconfig.Config) {
			c.MaxConnectionPoolSize = cfg.MaxConnectionPoolSize
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	logger.Info("connected to neo4j",
		zap.String("uri", logging.SanitizeURI(cfg.URI)),
		zap.String("database", cfg.Database))

	return &neo4jQuerier{
		driver:   driver,
		database: cfg.Database,
		logger:   logger.Named("graph"),
	}, nil
}

func (q *neo4jQuerier) ExecuteRead(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: q.database,
		AccessMode:   neo4j.AccessModeRead,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteRead(ctx, collectRecords(ctx, cypher, params))
	if err != nil {
		return nil, fmt.Errorf("execute read: %w", err)
	}
	return records.([]map[string]any), nil
}

func (q *neo4jQuerier) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) ([]map[string]any, error) {
	session := q.driver.NewSession(ctx, neo4j.SessionConfig{
		DatabaseName: q.database,
		AccessMode:   neo4j.AccessModeWrite,
	})
	defer session.Close(ctx)

	records, err := session.ExecuteWrite(ctx, collectRecords(ctx, cypher, params))
	if err != nil {
		return nil, fmt.Errorf("execute write: %w", err)
	}
	return records.([]map[string]any), nil
}

func collectRecords(ctx context.Context, cypher string, params map[string]any) neo4j.ManagedTransactionWork {
	return func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}

		records, err := result.Collect(ctx)
		if err != nil {
			return nil, err
		}

		rows := make([]map[string]any, 0, len(records))
		for _, record := range records {
			row := make(map[string]any, len(record.Keys))
			for _, key := range record.Keys {
				value, _ := record.Get(key)
				row[key] = SerializeValue(value)
			}
			rows = append(rows, row)
		}
		return rows, nil
	}
}

func (q *neo4jQuerier) Close(ctx context.Context) error {
	return q.driver.Close(ctx)
}
