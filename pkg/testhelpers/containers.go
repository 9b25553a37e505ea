// Package testhelpers provides utilities for testing teamgraph-engine
// components against a real graph database.
package testhelpers

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
)

// Neo4jTestImage is the graph image integration tests run against.
const Neo4jTestImage = "neo4j:5.26-community"

const testNeo4jPassword = "test_password"

// TestGraph holds a shared Neo4j container for integration tests.
type TestGraph struct {
	Container testcontainers.Container
	URI       string
}

var (
	sharedTestGraph     *TestGraph
	sharedTestGraphOnce sync.Once
	sharedTestGraphErr  error
)

// GetTestGraph returns a shared Neo4j container for integration tests.
// The container is created once and reused across all tests in the run.
func GetTestGraph(t *testing.T) *TestGraph {
	t.Helper()

	if testing.Short() {
		t.Skip("Skipping integration test in short mode (requires Docker)")
	}

	sharedTestGraphOnce.Do(func() {
		sharedTestGraph, sharedTestGraphErr = setupTestGraph()
	})

	if sharedTestGraphErr != nil {
		t.Fatalf("Failed to setup test graph: %v", sharedTestGraphErr)
	}

	return sharedTestGraph
}

func setupTestGraph() (*TestGraph, error) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        Neo4jTestImage,
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": "neo4j/" + testNeo4jPassword,
		},
		WaitingFor: wait.ForLog("Started.").
			WithStartupTimeout(120 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start neo4j container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get container host: %w", err)
	}

	port, err := container.MappedPort(ctx, "7687")
	if err != nil {
		return nil, fmt.Errorf("failed to get container port: %w", err)
	}

	return &TestGraph{
		Container: container,
		URI:       fmt.Sprintf("bolt://%s:%s", host, port.Port()),
	}, nil
}

// Config returns a Neo4jConfig pointing at the test container.
func (g *TestGraph) Config() config.Neo4jConfig {
	return config.Neo4jConfig{
		URI:                   g.URI,
		Username:              "neo4j",
		Password:              testNeo4jPassword,
		Database:              "neo4j",
		MaxConnectionPoolSize: 10,
	}
}
