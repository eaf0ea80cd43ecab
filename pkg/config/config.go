// Package config loads tool configuration from an optional YAML file with
// GENIE_-prefixed environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the config file looked up in the working directory when no
// explicit path is given.
const DefaultFile = "genie-ai.yaml"

// LLMConfig selects and configures the LLM provider.
type LLMConfig struct {
	Provider  string `koanf:"provider"`
	Model     string `koanf:"model"`
	APIKey    string `koanf:"api_key"`
	MaxTokens int    `koanf:"max_tokens"`
}

// Config is the full tool configuration.
type Config struct {
	Host            string    `koanf:"host"`
	Token           string    `koanf:"token"`
	WarehouseID     string    `koanf:"warehouse_id"`
	TargetDirectory string    `koanf:"target_directory"`
	OutputDir       string    `koanf:"output_dir"`
	LLM             LLMConfig `koanf:"llm"`
}

// Load reads configuration from path (optional) and the environment.
// Environment variables use the GENIE_ prefix with a double underscore as
// the nesting separator, e.g. GENIE_LLM__PROVIDER overrides llm.provider
// and GENIE_WAREHOUSE_ID overrides warehouse_id.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("GENIE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "GENIE_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment config: %w", err)
	}

	cfg := &Config{
		OutputDir: "reports",
		LLM: LLMConfig{
			Provider: "databricks",
		},
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Workspace credentials also come from the standard Databricks
	// variables when not set explicitly.
	if cfg.Host == "" {
		cfg.Host = os.Getenv("DATABRICKS_HOST")
	}
	if cfg.Token == "" {
		cfg.Token = os.Getenv("DATABRICKS_TOKEN")
	}
	if cfg.WarehouseID == "" {
		cfg.WarehouseID = os.Getenv("SQL_WAREHOUSE_ID")
	}
	if cfg.TargetDirectory == "" {
		cfg.TargetDirectory = os.Getenv("GENIE_TARGET_DIRECTORY")
	}

	return cfg, nil
}

// ValidateWorkspace checks the settings every workspace call needs.
func (c *Config) ValidateWorkspace() error {
	if strings.TrimSpace(c.Host) == "" {
		return errors.New("Databricks host is required (set host in genie-ai.yaml or DATABRICKS_HOST)")
	}
	if strings.TrimSpace(c.Token) == "" {
		return errors.New("Databricks token is required (set token in genie-ai.yaml or DATABRICKS_TOKEN)")
	}
	return nil
}

// ValidatePublish checks the additional settings space creation needs.
func (c *Config) ValidatePublish() error {
	if err := c.ValidateWorkspace(); err != nil {
		return err
	}
	if strings.TrimSpace(c.WarehouseID) == "" {
		return errors.New("SQL warehouse ID is required (set warehouse_id in genie-ai.yaml or SQL_WAREHOUSE_ID)")
	}
	if strings.TrimSpace(c.TargetDirectory) == "" {
		return errors.New("target directory is required (set target_directory in genie-ai.yaml or GENIE_TARGET_DIRECTORY)")
	}
	return nil
}

// LLMSettings flattens the LLM section into the provider factory's config
// map, falling back to workspace credentials for the Databricks provider.
func (c *Config) LLMSettings() map[string]string {
	return map[string]string{
		"api_key": c.LLM.APIKey,
		"model":   c.LLM.Model,
		"host":    c.Host,
		"token":   c.Token,
	}
}
