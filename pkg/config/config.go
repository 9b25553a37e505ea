package config

import (
	"fmt"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Ontology loader modes.
const (
	OntologyModeFile   = "file"
	OntologyModeGraph  = "graph"
	OntologyModeHybrid = "hybrid"
)

// Config holds all configuration for teamgraph-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Graph database configuration
	Neo4j Neo4jConfig `yaml:"neo4j"`

	// LLM provider configuration
	AI AIConfig `yaml:"ai"`

	// Query-cache fingerprinting
	VectorSearch VectorSearchConfig `yaml:"vector_search"`

	// Cypher generation
	Cypher CypherConfig `yaml:"cypher"`

	// Ontology loader selection
	Ontology OntologyConfig `yaml:"ontology"`

	// Background learner and auto-approval
	AdaptiveOntology AdaptiveOntologyConfig `yaml:"adaptive_ontology"`

	// Schema introspection cache
	SchemaCache SchemaCacheConfig `yaml:"schema_cache"`

	// Authentication
	Auth AuthConfig `yaml:"auth"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// Neo4jConfig holds graph database connection settings.
type Neo4jConfig struct {
	URI                   string `yaml:"uri" env:"NEO4J_URI" env-default:"bolt://localhost:7687"`
	Username              string `yaml:"username" env:"NEO4J_USERNAME" env-default:"neo4j"`
	Password              string `yaml:"-" env:"NEO4J_PASSWORD"` // Secret - not in YAML
	Database              string `yaml:"database" env:"NEO4J_DATABASE" env-default:"neo4j"`
	MaxConnectionPoolSize int    `yaml:"max_connection_pool_size" env:"NEO4J_MAX_POOL_SIZE" env-default:"50"`
}

// AIConfig holds LLM provider settings for both model tiers.
// The light tier (and embeddings) speak the OpenAI API; the heavy tier uses
// Anthropic when an API key is configured and falls back to the light
// provider otherwise.
type AIConfig struct {
	OpenAIAPIKey    string `yaml:"-" env:"OPENAI_API_KEY"` // Secret - not in YAML
	OpenAIBaseURL   string `yaml:"openai_base_url" env:"OPENAI_BASE_URL" env-default:""`
	LightModel      string `yaml:"light_model" env:"AI_LIGHT_MODEL" env-default:"gpt-4o-mini"`
	EmbeddingModel  string `yaml:"embedding_model" env:"AI_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`
	AnthropicAPIKey string `yaml:"-" env:"ANTHROPIC_API_KEY"` // Secret - not in YAML
	HeavyModel      string `yaml:"heavy_model" env:"AI_HEAVY_MODEL" env-default:"claude-sonnet-4-5-20250929"`
	RequestTimeout  int    `yaml:"request_timeout_seconds" env:"AI_REQUEST_TIMEOUT_SECONDS" env-default:"60"`
}

// VectorSearchConfig gates the question-fingerprint query cache.
type VectorSearchConfig struct {
	Enabled             bool    `yaml:"enabled" env:"VECTOR_SEARCH_ENABLED" env-default:"false"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" env:"VECTOR_SEARCH_SIMILARITY_THRESHOLD" env-default:"0.9"`
	IndexName           string  `yaml:"index_name" env:"VECTOR_SEARCH_INDEX_NAME" env-default:"cached_query_embedding"`
}

// CypherConfig controls query generation behaviour.
type CypherConfig struct {
	// LightModelEnabled allows simple queries to use the light model tier.
	LightModelEnabled bool `yaml:"light_model_enabled" env:"CYPHER_LIGHT_MODEL_ENABLED" env-default:"true"`
}

// OntologyConfig selects and parameterises the concept loader.
type OntologyConfig struct {
	// Mode is one of file, graph, hybrid.
	Mode string `yaml:"mode" env:"ONTOLOGY_MODE" env-default:"hybrid"`
	// FilePath is the YAML ontology location (file and hybrid modes).
	FilePath string `yaml:"file_path" env:"ONTOLOGY_FILE_PATH" env-default:"ontology.yaml"`
	// WatchFile reloads the registry when the YAML file changes.
	WatchFile bool `yaml:"watch_file" env:"ONTOLOGY_WATCH_FILE" env-default:"false"`
}

// AdaptiveOntologyConfig controls the background learner and its
// auto-approval policy.
type AdaptiveOntologyConfig struct {
	Enabled                bool    `yaml:"enabled" env:"ADAPTIVE_ONTOLOGY_ENABLED" env-default:"true"`
	AutoApproveEnabled     bool    `yaml:"auto_approve_enabled" env:"ADAPTIVE_ONTOLOGY_AUTO_APPROVE" env-default:"false"`
	AutoApproveConfidence  float64 `yaml:"auto_approve_confidence" env:"ADAPTIVE_ONTOLOGY_AUTO_APPROVE_CONFIDENCE" env-default:"0.85"`
	AutoApproveMinFreq     int     `yaml:"auto_approve_min_frequency" env:"ADAPTIVE_ONTOLOGY_AUTO_APPROVE_MIN_FREQUENCY" env-default:"3"`
	AutoApproveDailyLimit  int     `yaml:"auto_approve_daily_limit" env:"ADAPTIVE_ONTOLOGY_AUTO_APPROVE_DAILY_LIMIT" env-default:"10"`
	AutoApproveTypesStr    string  `yaml:"auto_approve_types" env:"ADAPTIVE_ONTOLOGY_AUTO_APPROVE_TYPES" env-default:"NEW_SYNONYM"`
	AnalysisTimeoutSeconds int     `yaml:"analysis_timeout_seconds" env:"ADAPTIVE_ONTOLOGY_ANALYSIS_TIMEOUT_SECONDS" env-default:"8"`
	MaxInFlight            int     `yaml:"max_in_flight" env:"ADAPTIVE_ONTOLOGY_MAX_IN_FLIGHT" env-default:"32"`

	// AutoApproveTypes is parsed from AutoApproveTypesStr (not from config file).
	AutoApproveTypes []string `yaml:"-"`
}

// SchemaCacheConfig controls the schema introspection cache.
type SchemaCacheConfig struct {
	TTLSeconds int `yaml:"ttl_seconds" env:"SCHEMA_CACHE_TTL_SECONDS" env-default:"60"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// Enabled controls whether bearer tokens are validated at all.
	// Set to false for local development without an auth server.
	Enabled bool `yaml:"enabled" env:"AUTH_ENABLED" env-default:"false"`

	// JWTSecret is the HS256 shared secret. Ignored when JWKSURL is set.
	JWTSecret string `yaml:"-" env:"JWT_SECRET"` // Secret - not in YAML

	// JWKSURL enables asymmetric validation against a JWKS endpoint.
	JWKSURL string `yaml:"jwks_url" env:"AUTH_JWKS_URL" env-default:""`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level" env:"LOG_LEVEL" env-default:""`
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (NEO4J_PASSWORD, OPENAI_API_KEY, ANTHROPIC_API_KEY,
// JWT_SECRET) must come from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.parseComplexFields(); err != nil {
		return nil, fmt.Errorf("failed to parse config fields: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// parseComplexFields handles fields that need post-processing after loading.
func (c *Config) parseComplexFields() error {
	c.AdaptiveOntology.AutoApproveTypes = parseTypeList(c.AdaptiveOntology.AutoApproveTypesStr)
	return nil
}

// Validate fails fast on settings the engine cannot start with.
func (c *Config) Validate() error {
	switch c.Ontology.Mode {
	case OntologyModeFile, OntologyModeGraph, OntologyModeHybrid:
	default:
		return fmt.Errorf("ontology.mode must be one of file, graph, hybrid; got %q", c.Ontology.Mode)
	}

	if c.Ontology.Mode != OntologyModeGraph && c.Ontology.FilePath == "" {
		return fmt.Errorf("ontology.file_path is required in %s mode", c.Ontology.Mode)
	}

	if c.Neo4j.URI == "" {
		return fmt.Errorf("neo4j.uri is required")
	}
	if c.Neo4j.MaxConnectionPoolSize <= 0 {
		return fmt.Errorf("neo4j.max_connection_pool_size must be positive")
	}

	if t := c.VectorSearch.SimilarityThreshold; t < 0 || t > 1 {
		return fmt.Errorf("vector_search.similarity_threshold must be in [0,1]; got %v", t)
	}
	if conf := c.AdaptiveOntology.AutoApproveConfidence; conf < 0 || conf > 1 {
		return fmt.Errorf("adaptive_ontology.auto_approve_confidence must be in [0,1]; got %v", conf)
	}
	if c.AdaptiveOntology.MaxInFlight <= 0 {
		return fmt.Errorf("adaptive_ontology.max_in_flight must be positive")
	}
	if c.SchemaCache.TTLSeconds <= 0 {
		return fmt.Errorf("schema_cache.ttl_seconds must be positive")
	}

	if c.Auth.Enabled && c.Auth.JWTSecret == "" && c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth.enabled requires JWT_SECRET or auth.jwks_url")
	}

	return nil
}

// parseTypeList parses a comma-separated proposal type whitelist.
func parseTypeList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	types := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			types = append(types, strings.ToUpper(t))
		}
	}
	return types
}
