package config

import (
	"os"
	"path/filepath"
	"testing"
)

// writeConfig drops a config.yaml into a temp dir and chdirs there so Load
// picks it up.
func writeConfig(t *testing.T, yamlContent string) {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Chdir(tmpDir)
}

func TestLoad_Defaults(t *testing.T) {
	writeConfig(t, "env: \"test\"\n")

	cfg, err := Load("v1.2.3")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Version != "v1.2.3" {
		t.Errorf("Version = %q, want v1.2.3", cfg.Version)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.Neo4j.MaxConnectionPoolSize != 50 {
		t.Errorf("MaxConnectionPoolSize = %d, want 50", cfg.Neo4j.MaxConnectionPoolSize)
	}
	if cfg.Ontology.Mode != OntologyModeHybrid {
		t.Errorf("Ontology.Mode = %q, want hybrid", cfg.Ontology.Mode)
	}
	if cfg.SchemaCache.TTLSeconds != 60 {
		t.Errorf("SchemaCache.TTLSeconds = %d, want 60", cfg.SchemaCache.TTLSeconds)
	}
	if cfg.AdaptiveOntology.AnalysisTimeoutSeconds != 8 {
		t.Errorf("AnalysisTimeoutSeconds = %d, want 8", cfg.AdaptiveOntology.AnalysisTimeoutSeconds)
	}
	if cfg.AdaptiveOntology.MaxInFlight != 32 {
		t.Errorf("MaxInFlight = %d, want 32", cfg.AdaptiveOntology.MaxInFlight)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	writeConfig(t, `
port: "9999"
neo4j:
  uri: "bolt://yamlhost:7687"
`)
	t.Setenv("NEO4J_URI", "bolt://envhost:7687")
	t.Setenv("NEO4J_PASSWORD", "sekrit")

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Port != "9999" {
		t.Errorf("Port = %q, want 9999 from yaml", cfg.Port)
	}
	if cfg.Neo4j.URI != "bolt://envhost:7687" {
		t.Errorf("Neo4j.URI = %q, env should override yaml", cfg.Neo4j.URI)
	}
	if cfg.Neo4j.Password != "sekrit" {
		t.Errorf("Neo4j.Password not read from env")
	}
}

func TestLoad_InvalidOntologyMode(t *testing.T) {
	writeConfig(t, `
ontology:
  mode: "remote"
`)

	if _, err := Load("test"); err == nil {
		t.Fatal("Load() should reject unknown ontology mode")
	}
}

func TestLoad_AuthRequiresSecret(t *testing.T) {
	writeConfig(t, `
auth:
  enabled: true
`)

	if _, err := Load("test"); err == nil {
		t.Fatal("Load() should fail when auth is enabled without a secret or JWKS URL")
	}
}

func TestLoad_AutoApproveTypesParsed(t *testing.T) {
	writeConfig(t, `
adaptive_ontology:
  auto_approve_types: "new_synonym, NEW_CONCEPT"
`)

	cfg, err := Load("test")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	got := cfg.AdaptiveOntology.AutoApproveTypes
	if len(got) != 2 || got[0] != "NEW_SYNONYM" || got[1] != "NEW_CONCEPT" {
		t.Errorf("AutoApproveTypes = %v, want [NEW_SYNONYM NEW_CONCEPT]", got)
	}
}

func TestValidate_SimilarityThresholdRange(t *testing.T) {
	writeConfig(t, `
vector_search:
  enabled: true
  similarity_threshold: 1.5
`)

	if _, err := Load("test"); err == nil {
		t.Fatal("Load() should reject similarity threshold outside [0,1]")
	}
}
