// Package config holds noema's process configuration, loaded from an
// optional YAML file with env overrides applied by the CLI layer.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all noema configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	LLM      LLMConfig      `yaml:"llm"`
	Agent    AgentConfig    `yaml:"agent"`
	Board    BoardConfig    `yaml:"board"`
}

type ServerConfig struct {
	Bind string `yaml:"bind"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LLMConfig struct {
	Provider     string `yaml:"provider"` // "claude-cli", "anthropic", "ollama"
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	OllamaModel  string `yaml:"ollama_model"`
	AnthropicKey string `yaml:"anthropic_key"`
}

type AgentConfig struct {
	// Name labels the agent in prompts and exported state.
	Name string `yaml:"name"`
	// WindowTurns bounds the conversation window sent to the LLM.
	WindowTurns int `yaml:"window_turns"`
}

type BoardConfig struct {
	URL          string `yaml:"url"`
	PollInterval int    `yaml:"poll_interval"` // seconds
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37737,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		LLM: LLMConfig{
			Provider: "claude-cli",
			Model:    "haiku",
		},
		Agent: AgentConfig{
			Name:        "noema",
			WindowTurns: 20,
		},
		Board: BoardConfig{
			PollInterval: 30,
		},
	}
}

// DefaultPath returns the default config file path: ~/.noema/config.yaml
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".noema", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file is not an error:
// the defaults stand.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
