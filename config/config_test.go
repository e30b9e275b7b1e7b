package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 25, cfg.Engine.MaxDispatchDepth)
	assert.NotEmpty(t, cfg.Bot.CompanyName)
}

func TestLoad_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
http:
  addr: ":9090"
engine:
  maxDispatchDepth: 10
bot:
  companyName: "Acme Mutual"
connectors:
  redmine:
    baseUrl: "https://tickets.example.com"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
	assert.Equal(t, 10, cfg.Engine.MaxDispatchDepth)
	assert.Equal(t, "Acme Mutual", cfg.Bot.CompanyName)
	assert.Equal(t, "https://tickets.example.com", cfg.Connectors.Redmine.BaseURL)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
connectors:
  redmine:
    baseUrl: "https://tickets.example.com"
    apiKey: "from-file"
`), 0o600))

	t.Setenv("REDMINE_API_KEY", "from-env")
	t.Setenv("ENGINE_MAX_DISPATCH_DEPTH", "7")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Connectors.Redmine.APIKey)
	assert.Equal(t, "https://tickets.example.com", cfg.Connectors.Redmine.BaseURL)
	assert.Equal(t, 7, cfg.Engine.MaxDispatchDepth)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
