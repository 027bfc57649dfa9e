package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	DefaultProjectAPIPrefix = "/project-api"
	DefaultAgentAPIPrefix   = "/req-agent-api"
	DefaultPrompt           = "Generate user stories for the key features described in the document."
	DefaultJiraProjectKey   = "PROJ"
	DefaultSessionFile      = ".sdlc-flow/session.json"
	DefaultOutputDir        = "./output"
)

// Config represents the application configuration
type Config struct {
	Gateway    GatewayConfig    `yaml:"gateway"`
	Generation GenerationConfig `yaml:"generation"`
	Session    SessionConfig    `yaml:"session"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Jira       JiraConfig       `yaml:"jira"`
}

// GatewayConfig represents the API gateway fronting the backend services
type GatewayConfig struct {
	BaseURL           string `yaml:"base_url"`
	ProjectAPIPrefix  string `yaml:"project_api_prefix"`
	AgentAPIPrefix    string `yaml:"agent_api_prefix"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	RetryCount        int    `yaml:"retry_count"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds"`
}

// GenerationConfig holds the defaults of the requirements generation form
type GenerationConfig struct {
	DefaultPrompt         string `yaml:"default_prompt"`
	DefaultJiraProjectKey string `yaml:"default_jira_project_key"`
}

// SessionConfig controls where workflow state is kept between invocations
type SessionConfig struct {
	File string `yaml:"file"`
}

// OutputConfig controls how generation results are saved
type OutputConfig struct {
	Dir         string `yaml:"dir"`
	SaveResults bool   `yaml:"save_results"`
}

// LoggingConfig enables the debug log file when File is set
type LoggingConfig struct {
	File string `yaml:"file"`
}

// JiraConfig represents JIRA API configuration used by the preflight check
type JiraConfig struct {
	BaseURL  string `yaml:"base_url"`
	Username string `yaml:"username"`
	APIToken string `yaml:"api_token"`
	Timeout  int    `yaml:"timeout_seconds"`
}

// Enabled reports whether enough Jira settings are present to talk to Jira.
func (j JiraConfig) Enabled() bool {
	return j.BaseURL != "" && j.Username != "" && j.APIToken != ""
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills in optional fields that were left empty
func (c *Config) ApplyDefaults() {
	if c.Gateway.ProjectAPIPrefix == "" {
		c.Gateway.ProjectAPIPrefix = DefaultProjectAPIPrefix
	}
	if c.Gateway.AgentAPIPrefix == "" {
		c.Gateway.AgentAPIPrefix = DefaultAgentAPIPrefix
	}
	if c.Gateway.RetryCount == 0 {
		c.Gateway.RetryCount = 1
	}
	if c.Gateway.RetryDelaySeconds == 0 {
		c.Gateway.RetryDelaySeconds = 2
	}
	if c.Generation.DefaultPrompt == "" {
		c.Generation.DefaultPrompt = DefaultPrompt
	}
	if c.Generation.DefaultJiraProjectKey == "" {
		c.Generation.DefaultJiraProjectKey = DefaultJiraProjectKey
	}
	if c.Session.File == "" {
		c.Session.File = DefaultSessionFile
	}
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutputDir
	}
	if c.Jira.Timeout == 0 {
		c.Jira.Timeout = 30
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("gateway base URL is required")
	}

	if !strings.HasPrefix(c.Gateway.BaseURL, "http://") && !strings.HasPrefix(c.Gateway.BaseURL, "https://") {
		return fmt.Errorf("gateway base URL must start with http:// or https://")
	}

	if c.Gateway.TimeoutSeconds < 0 {
		return fmt.Errorf("gateway timeout cannot be negative")
	}

	if c.Gateway.RetryCount < 1 {
		return fmt.Errorf("gateway retry count must be at least 1")
	}

	return nil
}

// Sample returns the configuration written by the init command
func Sample() *Config {
	config := &Config{}
	config.Gateway.BaseURL = "http://localhost:8000"
	config.Jira.BaseURL = "https://your-domain.atlassian.net"
	config.Jira.Username = "your-email@example.com"
	config.Jira.APIToken = "your-jira-api-token"
	config.ApplyDefaults()
	return config
}

// Write marshals the configuration to the given path
func Write(config *Config, configPath string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
