package engine

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/germanamz/researcher/pkg/providers/groq"
	"github.com/germanamz/researcher/pkg/providers/openai"
	"github.com/germanamz/researcher/pkg/research"
)

// MaxTokens caps every model response.
const MaxTokens = 4096

// DefaultSystemPrompt opens every session unless overridden.
const DefaultSystemPrompt = "You are a highly skilled AI programmer and web researcher. " +
	"You can call functions to perform web research, write code, and save projects."

// Config is the top-level engine configuration.
type Config struct {
	Provider     ProviderConfig `yaml:"provider"`
	Research     ResearchConfig `yaml:"research"`
	SystemPrompt string         `yaml:"system_prompt"`
}

// ProviderConfig describes the chat-completions endpoint.
type ProviderConfig struct {
	Kind    string `yaml:"kind"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"` //nolint:gosec // configuration field, not a hardcoded secret
	Model   string `yaml:"model"`
}

// ResearchConfig holds browser research settings.
type ResearchConfig struct {
	SearchURL      string `yaml:"search_url"`      // Must contain one %s for the escaped query.
	ResultSelector string `yaml:"result_selector"` // CSS selector of one result container.
	Headless       *bool  `yaml:"headless"`        // Default true.
	ChromePath     string `yaml:"chrome_path"`     // Optional Chrome binary.
}

// IsHeadless reports whether Chrome should run without a window.
func (r ResearchConfig) IsHeadless() bool {
	return r.Headless == nil || *r.Headless
}

// apiKeyEnv is the variable consulted when a provider has no api_key.
var apiKeyEnv = map[string]string{
	"groq":   "GROQ_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// DefaultConfig returns the built-in configuration: Groq with the key taken
// from GROQ_API_KEY.
func DefaultConfig() Config {
	var cfg Config
	cfg.applyDefaults()
	return cfg
}

// LoadConfig reads a YAML file and returns a Config with defaults applied.
// Environment variables referenced as ${VAR} or $VAR in the YAML are expanded
// before parsing, so API keys can stay in the environment (e.g. loaded from a
// .env file) rather than in the config.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-provided configuration, not user input
	if err != nil {
		return Config{}, fmt.Errorf("engine: load config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return Config{}, fmt.Errorf("engine: parse config: %w", err)
	}

	cfg.applyDefaults()

	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig, except that a missing file yields
// DefaultConfig.
func LoadConfigOrDefault(path string) (Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultConfig(), nil
	}
	return cfg, err
}

func (c *Config) applyDefaults() {
	p := &c.Provider
	if p.Kind == "" {
		p.Kind = "groq"
	}

	switch p.Kind {
	case "groq":
		if p.BaseURL == "" {
			p.BaseURL = groq.DefaultBaseURL
		}
		if p.Model == "" {
			p.Model = groq.DefaultModel
		}
	case "openai":
		if p.BaseURL == "" {
			p.BaseURL = openai.DefaultBaseURL
		}
	}

	if p.APIKey == "" {
		if env, ok := apiKeyEnv[p.Kind]; ok {
			p.APIKey = os.Getenv(env)
		}
	}

	if c.Research.SearchURL == "" {
		c.Research.SearchURL = research.DefaultSearchURL
	}
	if c.Research.ResultSelector == "" {
		c.Research.ResultSelector = research.DefaultResultSelector
	}

	if c.SystemPrompt == "" {
		c.SystemPrompt = DefaultSystemPrompt
	}
}

// Validate checks that the configuration can run a session. A missing API
// key is an error: nothing works without one.
func (c Config) Validate() error {
	p := c.Provider
	if _, ok := getFactory(p.Kind); !ok {
		return fmt.Errorf("engine: config: unknown provider kind %q", p.Kind)
	}
	if p.Model == "" {
		return fmt.Errorf("engine: config: provider %q: model is required", p.Kind)
	}
	if p.APIKey == "" {
		if env, ok := apiKeyEnv[p.Kind]; ok {
			return fmt.Errorf("engine: config: provider %q: api_key is required (set %s)", p.Kind, env)
		}
		return fmt.Errorf("engine: config: provider %q: api_key is required", p.Kind)
	}

	if strings.Count(c.Research.SearchURL, "%s") != 1 {
		return fmt.Errorf("engine: config: research.search_url must contain exactly one %%s")
	}
	if c.Research.ResultSelector == "" {
		return fmt.Errorf("engine: config: research.result_selector is required")
	}

	return nil
}
