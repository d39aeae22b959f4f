package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/learnpath/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_MergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
model:
  type: ridge
  params:
    lambda: 0.5
selector:
  top_k: 3
server:
  redis_addr: "localhost:6379"
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Model.Type != "ridge" {
		t.Errorf("model type = %s, want ridge", cfg.Model.Type)
	}
	if cfg.Selector.TopK != 3 {
		t.Errorf("top_k = %d, want 3", cfg.Selector.TopK)
	}
	// untouched fields keep their defaults
	if cfg.Selector.MinRelevance != core.DefaultMinRelevance {
		t.Errorf("min_relevance = %v, want default %v", cfg.Selector.MinRelevance, core.DefaultMinRelevance)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("addr = %s, want default :8080", cfg.Server.Addr)
	}
	if cfg.Server.RedisAddr != "localhost:6379" {
		t.Errorf("redis_addr = %s, want localhost:6379", cfg.Server.RedisAddr)
	}
	if cfg.Simulation.Seed != 42 {
		t.Errorf("simulation seed = %d, want default 42", cfg.Simulation.Seed)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("LoadConfig() expected error for missing file")
	}
}

func TestConfig_BuildModel(t *testing.T) {
	cfg := DefaultConfig()
	m, err := cfg.BuildModel()
	if err != nil {
		t.Fatalf("BuildModel() error = %v", err)
	}
	if m.Name() != "random_forest" {
		t.Errorf("default model = %s, want random_forest", m.Name())
	}

	cfg.Model.Type = "ridge"
	m, err = cfg.BuildModel()
	if err != nil {
		t.Fatalf("BuildModel(ridge) error = %v", err)
	}
	if m.Name() != "ridge" {
		t.Errorf("model = %s, want ridge", m.Name())
	}

	cfg.Model.Type = "deepfm"
	if _, err := cfg.BuildModel(); !core.IsConfiguration(err) {
		t.Errorf("unknown model error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestConfig_BuildSelector(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Selector.Policy = "score >= 0.3"

	sel, err := cfg.BuildSelector()
	if err != nil {
		t.Fatalf("BuildSelector() error = %v", err)
	}
	if sel.Policy == nil {
		t.Error("selector policy not compiled")
	}

	cfg.Selector.Policy = "score >="
	if _, err := cfg.BuildSelector(); !core.IsConfiguration(err) {
		t.Errorf("invalid policy error = %v, want CONFIGURATION_ERROR", err)
	}
}
