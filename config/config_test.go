package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load consults so host settings cannot leak
// into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL",
		"ANTHROPIC_API_KEY", "ANTHROPIC_MODEL",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "GEMINI_MODEL",
		"AGENTGRAPH_PROVIDER", "AGENTGRAPH_INSTRUCTIONS", "AGENTGRAPH_SESSION_DB",
		"AGENTGRAPH_LOG_LEVEL", "AGENTGRAPH_LOG_FORMAT", "AGENTGRAPH_STREAM",
		"AGENTGRAPH_MAX_TOKENS", "AGENTGRAPH_SEARCH", "BRAVE_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-5", cfg.Model)
	assert.False(t, cfg.APIKeyPresent())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Search.MaxResults)
}

func TestLoad_OpenAIEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4o-mini")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.True(t, cfg.APIKeyPresent())
	assert.Equal(t, "sk-test", cfg.APIKey())
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
}

func TestLoad_ProviderSelectsKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("AGENTGRAPH_PROVIDER", "Anthropic")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Model)
	assert.False(t, cfg.APIKeyPresent(), "openai key must not unlock anthropic")

	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("AGENTGRAPH_PROVIDER", "gemini")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "g-key", cfg.APIKey())
}

func TestLoad_File(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agentgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: openai
model: gpt-5-mini
instructions: "You are {{ .name }}."
max_tokens: 256
search:
  enabled: true
  max_results: 3
log:
  level: debug
  format: json
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-5-mini", cfg.Model)
	assert.Equal(t, int64(256), cfg.MaxTokens)
	assert.True(t, cfg.Search.Enabled)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	t.Setenv("AGENTGRAPH_LOG_LEVEL", "warn")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level, "environment overrides file")
}

func TestLoad_ModelEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "agentgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: gpt-4o\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", cfg.Model)

	t.Setenv("OPENAI_MODEL", "gpt-5-mini")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt-5-mini", cfg.Model)

	t.Setenv("AGENTGRAPH_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_MODEL", "claude-opus-4-1")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-1", cfg.Model, "only the selected provider's variable applies")
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [oops"), 0o600))
	_, err := Load(path)
	require.Error(t, err)

	t.Setenv("AGENTGRAPH_PROVIDER", "llama")
	_, err = Load("")
	assert.ErrorIs(t, err, ErrUnknownProvider)
}
