// Package config loads agentgraph settings from an optional YAML file and the
// process environment. Environment variables take precedence over the file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported model providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ErrUnknownProvider is returned by Validate for unsupported provider names.
var ErrUnknownProvider = errors.New("unknown model provider")

// defaultModels holds the model used per provider when none is configured.
var defaultModels = map[string]string{
	ProviderOpenAI:    "gpt-5",
	ProviderAnthropic: "claude-sonnet-4-20250514",
	ProviderGemini:    "gemini-2.5-flash",
}

// Config is the full runtime configuration.
type Config struct {
	Provider     string       `yaml:"provider"`
	Model        string       `yaml:"model"`
	BaseURL      string       `yaml:"base_url"`
	Instructions string       `yaml:"instructions"`
	MaxTokens    int64        `yaml:"max_tokens"`
	Stream       bool         `yaml:"stream"`
	SessionDB    string       `yaml:"session_db"`
	Search       SearchConfig `yaml:"search"`
	Log          LogConfig    `yaml:"log"`

	// API keys are only read from the environment.
	OpenAIKey    string `yaml:"-"`
	AnthropicKey string `yaml:"-"`
	GeminiKey    string `yaml:"-"`
}

// SearchConfig controls the optional web-search node.
type SearchConfig struct {
	Enabled     bool   `yaml:"enabled"`
	BraveAPIKey string `yaml:"-"`
	MaxResults  int    `yaml:"max_results"`
}

// LogConfig describes log output.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the baseline configuration: OpenAI provider, model chosen
// from the environment at Load time, info level text logs.
func Default() Config {
	return Config{
		Provider: ProviderOpenAI,
		Search:   SearchConfig{MaxResults: 5},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load builds a Config from defaults, the YAML file at path (skipped when
// path is empty or the file does not exist) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderOpenAI
	}
	cfg.Model = envOrDefault(cfg.providerModelVar(), cfg.Model)
	if cfg.Model == "" {
		cfg.Model = defaultModels[cfg.Provider]
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// FromEnv is Load without a config file.
func FromEnv() (Config, error) { return Load("") }

func (c *Config) applyEnv() {
	c.Provider = envOrDefault("AGENTGRAPH_PROVIDER", c.Provider)
	c.Instructions = envOrDefault("AGENTGRAPH_INSTRUCTIONS", c.Instructions)
	c.SessionDB = envOrDefault("AGENTGRAPH_SESSION_DB", c.SessionDB)
	c.Log.Level = envOrDefault("AGENTGRAPH_LOG_LEVEL", c.Log.Level)
	c.Log.Format = envOrDefault("AGENTGRAPH_LOG_FORMAT", c.Log.Format)
	c.Stream = envBoolOrDefault("AGENTGRAPH_STREAM", c.Stream)
	c.MaxTokens = int64(envIntOrDefault("AGENTGRAPH_MAX_TOKENS", int(c.MaxTokens)))
	c.Search.Enabled = envBoolOrDefault("AGENTGRAPH_SEARCH", c.Search.Enabled)
	c.Search.BraveAPIKey = os.Getenv("BRAVE_API_KEY")

	c.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	c.AnthropicKey = os.Getenv("ANTHROPIC_API_KEY")
	c.GeminiKey = envOrDefault("GEMINI_API_KEY", os.Getenv("GOOGLE_API_KEY"))

	if c.Provider == ProviderOpenAI || c.Provider == "" {
		c.BaseURL = envOrDefault("OPENAI_BASE_URL", c.BaseURL)
	}
}

// providerModelVar names the environment variable selecting the model of the
// resolved provider.
func (c *Config) providerModelVar() string {
	switch c.Provider {
	case ProviderAnthropic:
		return "ANTHROPIC_MODEL"
	case ProviderGemini:
		return "GEMINI_MODEL"
	default:
		return "OPENAI_MODEL"
	}
}

// Validate checks the provider name and numeric bounds.
func (c Config) Validate() error {
	if _, ok := defaultModels[c.Provider]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative: %d", c.MaxTokens)
	}
	if c.Search.MaxResults < 0 {
		return fmt.Errorf("search.max_results must not be negative: %d", c.Search.MaxResults)
	}
	return nil
}

// APIKey returns the key of the selected provider.
func (c Config) APIKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.AnthropicKey
	case ProviderGemini:
		return c.GeminiKey
	default:
		return c.OpenAIKey
	}
}

// APIKeyPresent reports whether the selected provider has a non-empty key.
// It gates every live model call.
func (c Config) APIKeyPresent() bool { return c.APIKey() != "" }

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envBoolOrDefault(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}
