package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.ListenAddr() != "127.0.0.1:37737" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.Agent.Name != "noema" {
		t.Errorf("agent name = %q", cfg.Agent.Name)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "claude-cli" {
		t.Errorf("provider = %q, want default", cfg.LLM.Provider)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("llm:\n  provider: ollama\n  ollama_model: llama3.2\nagent:\n  name: mnemo\n")
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Provider != "ollama" {
		t.Errorf("provider = %q, want ollama", cfg.LLM.Provider)
	}
	if cfg.Agent.Name != "mnemo" {
		t.Errorf("agent name = %q, want mnemo", cfg.Agent.Name)
	}
	// Untouched sections keep defaults.
	if cfg.Server.Port != 37737 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("llm: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load accepted malformed YAML")
	}
}
