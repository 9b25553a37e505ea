package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/teamgraph-ai/teamgraph-engine/pkg/auth"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/config"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/graph"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/handlers"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/llm"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/logging"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/mcp"
	mcpauth "github.com/teamgraph-ai/teamgraph-engine/pkg/mcp/auth"
	mcptools "github.com/teamgraph-ai/teamgraph-engine/pkg/mcp/tools"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/metrics"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/middleware"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/ontology"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/pipeline"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/repositories"
	"github.com/teamgraph-ai/teamgraph-engine/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

// migrationsPath is the graph migration directory relative to the working
// directory.
const migrationsPath = "migrations"

func main() {
	// Load configuration
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.Logging.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("neo4j_uri", cfg.Neo4j.URI),
		zap.String("ontology_mode", cfg.Ontology.Mode),
		zap.Bool("auth_enabled", cfg.Auth.Enabled),
		zap.Bool("vector_search", cfg.VectorSearch.Enabled),
		zap.Bool("adaptive_ontology", cfg.AdaptiveOntology.Enabled))

	m := metrics.New()

	// Connect to the graph and apply pending migrations before anything
	// reads the schema.
	ctx := context.Background()
	rawQuerier, err := graph.NewQuerier(ctx, cfg.Neo4j, logger)
	if err != nil {
		logger.Fatal("Failed to connect to neo4j", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rawQuerier.Close(closeCtx); err != nil {
			logger.Warn("Failed to close neo4j driver", zap.Error(err))
		}
	}()
	querier := metrics.InstrumentQuerier(rawQuerier, m)

	if err := graph.RunMigrations(cfg.Neo4j, migrationsPath, logger); err != nil {
		logger.Fatal("Failed to run graph migrations", zap.Error(err))
	}

	// Ontology registry plus the optional file watcher.
	registry, err := ontology.NewRegistry(cfg.Ontology, querier, logger)
	if err != nil {
		logger.Fatal("Failed to load ontology", zap.Error(err))
	}
	var watcher *ontology.Watcher
	if cfg.Ontology.WatchFile && cfg.Ontology.FilePath != "" {
		watcher, err = ontology.NewWatcher(registry, cfg.Ontology.FilePath, logger)
		if err != nil {
			logger.Fatal("Failed to watch ontology file", zap.Error(err))
		}
	}

	schemaService := graph.NewSchemaService(querier,
		time.Duration(cfg.SchemaCache.TTLSeconds)*time.Second, logger)

	// Repositories
	conceptRepo := repositories.NewConceptRepository(querier, logger)
	graphRepo := repositories.NewGraphRepository(querier, logger)
	proposalRepo := metrics.InstrumentProposals(
		repositories.NewProposalRepository(querier, logger), m)
	queryCacheRepo := metrics.InstrumentQueryCache(
		repositories.NewQueryCacheRepository(querier, cfg.VectorSearch.IndexName, logger), m)
	summaryCacheRepo := repositories.NewSummaryCacheRepository(querier, logger)

	// LLM tiers
	tiers, err := llm.NewTiers(cfg.AI, logger)
	if err != nil {
		logger.Fatal("Failed to create llm clients", zap.Error(err))
	}
	tiers.Light = metrics.InstrumentLLM(tiers.Light, "light", m)
	tiers.Heavy = metrics.InstrumentLLM(tiers.Heavy, "heavy", m)

	// Ontology services
	ontologyService := services.NewOntologyService(proposalRepo, conceptRepo, registry, schemaService, logger)
	learner := services.NewOntologyLearner(proposalRepo, conceptRepo, ontologyService, tiers.Light, cfg.AdaptiveOntology, logger)
	learner.SetInflightGauge(m.LearnerGauge())

	// Pipeline
	nodes := pipeline.Nodes{
		IntentClassifier:      pipeline.NewIntentClassifierNode(tiers.Light, logger),
		EntityExtractor:       pipeline.NewEntityExtractorNode(tiers.Light, logger),
		ConceptExpander:       pipeline.NewConceptExpanderNode(registry, logger),
		CacheChecker:          pipeline.NewCacheCheckerNode(tiers.Light, queryCacheRepo, cfg.VectorSearch.Enabled, cfg.VectorSearch.SimilarityThreshold, logger),
		SchemaFetcher:         pipeline.NewSchemaFetcherNode(schemaService, logger),
		EntityResolver:        pipeline.NewEntityResolverNode(graphRepo, learner, logger),
		QueryDecomposer:       pipeline.NewQueryDecomposerNode(tiers.Light, logger),
		CypherGenerator:       pipeline.NewCypherGeneratorNode(tiers, queryCacheRepo, cfg.Cypher.LightModelEnabled, logger),
		GraphExecutor:         pipeline.NewGraphExecutorNode(querier, logger),
		CommunitySummarizer:   pipeline.NewCommunitySummarizerNode(graphRepo, summaryCacheRepo, tiers.Heavy, logger),
		ClarificationHandler:  pipeline.NewClarificationHandlerNode(tiers.Light, logger),
		ResponseGenerator:     pipeline.NewResponseGeneratorNode(tiers.Light, logger),
		OntologyUpdateHandler: pipeline.NewOntologyUpdateHandlerNode(tiers.Light, ontologyService, logger),
	}
	checkpointer := pipeline.NewCheckpointer()
	engine := pipeline.NewEngine(nodes, checkpointer, m, logger)
	runner := pipeline.NewRunner(engine, checkpointer, logger)

	// Authentication
	var verifier auth.Verifier
	if cfg.Auth.Enabled {
		verifier, err = auth.NewVerifier(cfg.Auth)
		if err != nil {
			logger.Fatal("Failed to create token verifier", zap.Error(err))
		}
	}
	authMiddleware := auth.NewMiddleware(verifier, cfg.Auth.Enabled, logger)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(querier, logger)
	healthHandler.RegisterRoutes(mux)

	askHandler := handlers.NewAskHandler(runner, logger)
	askHandler.RegisterRoutes(mux, authMiddleware)

	proposalHandler := handlers.NewProposalHandler(ontologyService, logger)
	proposalHandler.RegisterRoutes(mux, authMiddleware)

	ontologyHandler := handlers.NewOntologyHandler(ontologyService, registry, conceptRepo, queryCacheRepo, logger)
	ontologyHandler.RegisterRoutes(mux, authMiddleware)

	mux.Handle("GET /metrics", m.Handler())

	// MCP server (streamable HTTP, stateless)
	callLogger := mcp.NewCallLogger(logger)
	mcpServer := mcp.NewServer("teamgraph-engine", cfg.Version, callLogger.Hooks(), logger)
	mcptools.RegisterAll(mcpServer.MCP(), &mcptools.Deps{
		Runner:   runner,
		Service:  ontologyService,
		Registry: registry,
		Concepts: conceptRepo,
		Querier:  querier,
		Version:  cfg.Version,
		Logger:   logger,
	})
	mcpAuthMiddleware := mcpauth.NewMiddleware(verifier, cfg.Auth.Enabled, logger)
	mux.Handle("/mcp", mcpAuthMiddleware.Wrap(mcpServer.NewStreamableHTTPServer()))

	handler := middleware.Recovery(logger)(middleware.RequestLogger(logger)(mux))

	server := &http.Server{
		Addr:    cfg.BindAddr + ":" + cfg.Port,
		Handler: handler,
	}

	shutdownComplete := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		logger.Info("Received shutdown signal", zap.String("signal", sig.String()))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		// 1. Stop accepting new HTTP requests
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", zap.Error(err))
		}

		// 2. Drain in-flight learner analyses
		if err := learner.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Learner shutdown incomplete", zap.Error(err))
		}

		// 3. Stop the ontology file watcher
		if watcher != nil {
			if err := watcher.Close(); err != nil {
				logger.Warn("Watcher close error", zap.Error(err))
			}
		}

		close(shutdownComplete)
	}()

	logger.Info("Starting HTTP server",
		zap.String("addr", cfg.BindAddr+":"+cfg.Port),
		zap.String("version", cfg.Version))
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("Server failed", zap.Error(err))
	}

	<-shutdownComplete
	logger.Info("Server shutdown complete")
}
