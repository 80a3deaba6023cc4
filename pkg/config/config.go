package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrMissingModelKey means no enabled LLM provider carries an API key.
// Research cannot start without one.
var ErrMissingModelKey = errors.New("no enabled provider with an API key configured")

type Config struct {
	App       AppConfig                 `yaml:"app"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Search    SearchConfig              `yaml:"search"`
	Scraper   ScraperConfig             `yaml:"scraper"`
	Notify    NotifyConfig              `yaml:"notify"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	DataDir string `yaml:"data_dir"`
}

type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url,omitempty"`
	Enabled bool   `yaml:"enabled"`
}

type SearchConfig struct {
	BraveAPIKey string `yaml:"brave_api_key"`
}

type ScraperConfig struct {
	BrowserEnabled bool `yaml:"browser_enabled"`
	MaxLength      int  `yaml:"max_length"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

type TelegramConfig struct {
	Token   string `yaml:"token"`
	ChatID  int64  `yaml:"chat_id"`
	Enabled bool   `yaml:"enabled"`
}

// Load reads the YAML config at path. A missing file is not an error; the
// defaults plus environment overrides may be a complete configuration.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}

	cfg.applyEnv()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:    "Scout",
			DataDir: "data",
		},
		Providers: map[string]ProviderConfig{
			"openai": {Model: "gpt-4o-mini", Enabled: true},
		},
		Scraper: ScraperConfig{
			MaxLength: 5000,
		},
	}
}

// applyEnv lets environment variables override file values, so the binary
// works without a config file at all.
func (c *Config) applyEnv() {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		p := c.Providers["openai"]
		p.APIKey = key
		p.Enabled = true
		if p.Model == "" {
			p.Model = "gpt-4o-mini"
		}
		c.Providers["openai"] = p
	}
	if key := os.Getenv("BRAVE_API_KEY"); key != "" {
		c.Search.BraveAPIKey = key
	}
}

// Validate checks the hard preconditions for a research run. A missing
// search credential is fine (the HTML fallback provider covers it); a
// missing model credential is not.
func (c *Config) Validate() error {
	name, p := c.DefaultProvider()
	if name == "" || p.APIKey == "" {
		return ErrMissingModelKey
	}
	return nil
}

// DefaultProvider returns an enabled provider, preferring one that carries
// an API key.
func (c *Config) DefaultProvider() (string, ProviderConfig) {
	var fallbackName string
	var fallback ProviderConfig
	for name, p := range c.Providers {
		if !p.Enabled {
			continue
		}
		if p.APIKey != "" {
			return name, p
		}
		if fallbackName == "" {
			fallbackName = name
			fallback = p
		}
	}
	return fallbackName, fallback
}
