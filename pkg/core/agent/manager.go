package agent

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/blueboyrocks/business-valuation-app-sub003/pkg/core/llm"
)

// Config selects which model backs the pipeline. Individual passes may
// override the global provider, e.g. routing the document-heavy extraction
// passes to a multimodal model while narrative runs elsewhere.
type Config struct {
	ActiveProvider string                 `yaml:"active_provider"`
	Passes         map[string]PassConfig  `yaml:"passes"`
	RateLimit      RateLimitConfig        `yaml:"rate_limit"`
	Models         map[string]ModelConfig `yaml:"models"`
}

type PassConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Description string `yaml:"description"`
}

type ModelConfig struct {
	Model string `yaml:"model"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// LoadConfig reads the yaml model config. A missing file is not an error;
// defaults route everything to Gemini.
func LoadConfig(path string) Config {
	cfg := Config{ActiveProvider: "gemini"}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("[CONFIG] %s not found, using defaults (provider=gemini)\n", path)
		return cfg
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		fmt.Printf("[CONFIG] Warning: failed to parse %s: %v\n", path, err)
		return Config{ActiveProvider: "gemini"}
	}
	if cfg.ActiveProvider == "" {
		cfg.ActiveProvider = "gemini"
	}
	return cfg
}

type Manager struct {
	config    Config
	providers map[string]llm.Provider
}

func NewManager(config Config) *Manager {
	providers := map[string]llm.Provider{
		"gemini":   &llm.GeminiProvider{Model: config.modelFor("gemini")},
		"deepseek": &llm.DeepSeekProvider{Model: config.modelFor("deepseek")},
		"qwen":     &llm.QwenProvider{Model: config.modelFor("qwen")},
	}

	// Each provider gets its own limiter; quotas are per upstream account.
	if config.RateLimit.RequestsPerSecond > 0 {
		burst := config.RateLimit.Burst
		if burst < 1 {
			burst = 1
		}
		for name, p := range providers {
			providers[name] = llm.NewThrottledProvider(p, config.RateLimit.RequestsPerSecond, burst)
		}
	}

	return &Manager{config: config, providers: providers}
}

func (c Config) modelFor(provider string) string {
	if mc, ok := c.Models[provider]; ok {
		return mc.Model
	}
	return ""
}

// GetProvider resolves the provider for a named pass, falling back to the
// global active provider, then to gemini.
func (m *Manager) GetProvider(passName string) llm.Provider {
	if pc, ok := m.config.Passes[passName]; ok && pc.Provider != "" {
		if p, ok := m.providers[pc.Provider]; ok {
			return p
		}
	}
	if p, ok := m.providers[m.config.ActiveProvider]; ok {
		return p
	}
	return m.providers["gemini"]
}

// GetProviderByName retrieves a provider instance by its specific name (e.g. "deepseek", "gemini")
func (m *Manager) GetProviderByName(name string) llm.Provider {
	if p, ok := m.providers[name]; ok {
		return p
	}
	return nil
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.config.ActiveProvider = newProvider
	fmt.Printf("Global provider set to: %s\n", newProvider)
	return nil
}

func (m *Manager) GetActiveProvider() string {
	return m.config.ActiveProvider
}
