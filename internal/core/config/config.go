// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Constants for default paths
const (
	DefaultConfigDir      = ".deskpilot"
	DefaultConfigFileName = "config.yaml"
	DefaultHistoryDBName  = "history.db"
)

// Provider holds the settings for an OpenAI-compatible model endpoint.
type Provider struct {
	APIKey    string `yaml:"api_key,omitempty"`
	APIKeyEnv string `yaml:"api_key_env,omitempty"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url,omitempty"`
}

// ResolveAPIKey returns the configured key, falling back to the environment
// variable named by APIKeyEnv.
func (p Provider) ResolveAPIKey() string {
	if p.APIKey != "" {
		return p.APIKey
	}
	if p.APIKeyEnv != "" {
		return os.Getenv(p.APIKeyEnv)
	}
	return ""
}

// Browser holds the settings for the browser-backed desktop provider.
type Browser struct {
	Headless bool   `yaml:"headless"`
	StartURL string `yaml:"start_url,omitempty"`
	// Applications maps application names (as the generator will produce
	// them) to the URLs the provider opens for them.
	Applications map[string]string `yaml:"applications,omitempty"`
	OpTimeoutMS  int               `yaml:"op_timeout_ms,omitempty"`
}

// Execution holds the orchestrator's pacing settings.
type Execution struct {
	// SettleDelayMS is the pause after each successful non-terminal step, so
	// the GUI can settle before the next action observes it.
	SettleDelayMS int `yaml:"settle_delay_ms"`
}

// History holds the run-history persistence settings.
type History struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path,omitempty"`
}

// PolicyRule is one CEL deny-rule evaluated over every action of a validated
// plan before execution begins.
type PolicyRule struct {
	Name       string `yaml:"name"`
	Expression string `yaml:"expression"`
}

// Config holds the global application configuration
type Config struct {
	Planner   Provider     `yaml:"planner"`
	Analyzer  *Provider    `yaml:"analyzer,omitempty"`
	Browser   Browser      `yaml:"browser"`
	Execution Execution    `yaml:"execution"`
	History   History      `yaml:"history"`
	Policy    []PolicyRule `yaml:"policy,omitempty"`
}

// NewDefaultConfig creates a default configuration
func NewDefaultConfig() *Config {
	return &Config{
		Planner: Provider{
			APIKeyEnv: "OPENAI_API_KEY",
			Model:     "gpt-4o",
		},
		Browser: Browser{
			Headless: false,
			StartURL: "about:blank",
			Applications: map[string]string{
				"calculator": "https://www.google.com/search?q=calculator",
				"gmail":      "https://mail.google.com",
				"youtube":    "https://www.youtube.com",
			},
			OpTimeoutMS: 60000,
		},
		Execution: Execution{SettleDelayMS: 500},
		History: History{
			Enabled: false,
			Path:    filepath.Join(ExpandPathWithTilde("~/"+DefaultConfigDir), DefaultHistoryDBName),
		},
	}
}

// LoadConfig loads configuration from a file, layered over the defaults. An
// empty path means defaults only, looking for the well-known config file in
// the user's config directory first.
func LoadConfig(path string) (*Config, error) {
	cfg := NewDefaultConfig()

	if path == "" {
		defaultPath := filepath.Join(ExpandPathWithTilde("~/"+DefaultConfigDir), DefaultConfigFileName)
		if _, err := os.Stat(defaultPath); err != nil {
			return cfg, nil
		}
		path = defaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

// ExpandPathWithTilde expands ~ to the user home directory. It respects the
// DESKPILOT_HOME environment variable for testing purposes.
func ExpandPathWithTilde(path string) string {
	if path == "~" {
		if home := getHomeDir(); home != "" {
			return home
		}
		return path
	}
	if strings.HasPrefix(path, "~/") {
		if home := getHomeDir(); home != "" {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

func getHomeDir() string {
	if custom := os.Getenv("DESKPILOT_HOME"); custom != "" {
		return custom
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
