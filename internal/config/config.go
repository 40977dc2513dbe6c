package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	Resolver   ResolverConfig   `json:"resolver" yaml:"resolver"`
	LLM        LLMConfig        `json:"llm" yaml:"llm"`
	Databricks DatabricksConfig `json:"databricks" yaml:"databricks"`
	Server     ServerConfig     `json:"server" yaml:"server"`
}

type ResolverConfig struct {
	DefaultCatalog string   `json:"default_catalog" yaml:"default_catalog"`
	LLMTimeout     Duration `json:"llm_timeout" yaml:"llm_timeout"`
}

type LLMConfig struct {
	Endpoint string   `json:"endpoint" yaml:"endpoint"`
	Model    string   `json:"model" yaml:"model"`
	APIKey   string   `json:"api_key" yaml:"api_key"`
	Timeout  Duration `json:"timeout" yaml:"timeout"`
}

// Duration decodes "30s"-style values from both YAML and JSON.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

type DatabricksConfig struct {
	Host             string `json:"host" yaml:"host"`
	Token            string `json:"token" yaml:"token"`
	DefaultClusterID string `json:"default_cluster_id" yaml:"default_cluster_id"`
}

type ServerConfig struct {
	Port int `json:"port" yaml:"port"`
}

// LoadSettings reads settings from a YAML (or JSON) file and applies
// environment overrides. An empty path yields pure env-based settings.
func LoadSettings(path string) (*Settings, error) {
	var cfg Settings
	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			// Try JSON if YAML fails
			file.Seek(0, 0)
			if err := json.NewDecoder(file).Decode(&cfg); err != nil {
				return nil, fmt.Errorf("failed to decode config file (tried YAML and JSON): %w", err)
			}
		}
	}
	cfg.applyEnv()
	return &cfg, nil
}

func (c *Settings) applyEnv() {
	overrideString(&c.LLM.Endpoint, "RATATOSK_LLM_ENDPOINT")
	overrideString(&c.LLM.Model, "RATATOSK_LLM_MODEL")
	overrideString(&c.LLM.APIKey, "RATATOSK_LLM_API_KEY")
	overrideString(&c.Databricks.Host, "RATATOSK_DATABRICKS_HOST")
	overrideString(&c.Databricks.Token, "RATATOSK_DATABRICKS_TOKEN")
	overrideString(&c.Databricks.DefaultClusterID, "RATATOSK_DEFAULT_CLUSTER_ID")
	overrideString(&c.Resolver.DefaultCatalog, "RATATOSK_DEFAULT_CATALOG")
}

func overrideString(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}
