package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte("gateway:\n  base_url: http://localhost:8000\n"))
	require.NoError(t, err)

	assert.Equal(t, DefaultProjectAPIPrefix, cfg.Gateway.ProjectAPIPrefix)
	assert.Equal(t, DefaultAgentAPIPrefix, cfg.Gateway.AgentAPIPrefix)
	assert.Equal(t, 1, cfg.Gateway.RetryCount)
	assert.Equal(t, 0, cfg.Gateway.TimeoutSeconds)
	assert.Equal(t, DefaultPrompt, cfg.Generation.DefaultPrompt)
	assert.Equal(t, "PROJ", cfg.Generation.DefaultJiraProjectKey)
	assert.Equal(t, DefaultSessionFile, cfg.Session.File)
	assert.Equal(t, DefaultOutputDir, cfg.Output.Dir)
	assert.False(t, cfg.Jira.Enabled())
}

func TestParseKeepsExplicitValues(t *testing.T) {
	data := []byte(`
gateway:
  base_url: https://gw.example.com
  project_api_prefix: /p
  agent_api_prefix: /a
  retry_count: 3
generation:
  default_jira_project_key: ACME
jira:
  base_url: https://acme.atlassian.net
  username: dev@acme.io
  api_token: secret
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "/p", cfg.Gateway.ProjectAPIPrefix)
	assert.Equal(t, "/a", cfg.Gateway.AgentAPIPrefix)
	assert.Equal(t, 3, cfg.Gateway.RetryCount)
	assert.Equal(t, "ACME", cfg.Generation.DefaultJiraProjectKey)
	assert.True(t, cfg.Jira.Enabled())
}

func TestValidate(t *testing.T) {
	_, err := Parse([]byte("gateway: {}\n"))
	assert.ErrorContains(t, err, "gateway base URL is required")

	_, err = Parse([]byte("gateway:\n  base_url: localhost:8000\n"))
	assert.ErrorContains(t, err, "must start with http")

	_, err = Parse([]byte("gateway:\n  base_url: http://x\n  timeout_seconds: -1\n"))
	assert.ErrorContains(t, err, "timeout cannot be negative")

	_, err = Parse([]byte("gateway: ["))
	assert.ErrorContains(t, err, "failed to parse config file")
}

func TestSampleRoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Write(Sample(), path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8000", cfg.Gateway.BaseURL)
	assert.True(t, cfg.Jira.Enabled())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "failed to read config file")
}
