// Package config handles brainhands configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. BRAINHANDS_LLM_API_KEY.
const EnvPrefix = "BRAINHANDS"

// Config holds all brainhands configuration.
type Config struct {
	LLM      LLMConfig     `mapstructure:"llm" yaml:"llm"`
	Agent    AgentConfig   `mapstructure:"agent" yaml:"agent"`
	Features FeatureConfig `mapstructure:"features" yaml:"features"`
	Tools    ToolsConfig   `mapstructure:"tools" yaml:"tools"`
	Storage  StorageConfig `mapstructure:"storage" yaml:"storage"`
	Persona  PersonaConfig `mapstructure:"persona" yaml:"persona"`

	Conversation ConversationConfig `mapstructure:"conversation" yaml:"conversation"`
}

// LLMConfig selects and tunes the language model backend.
type LLMConfig struct {
	Provider       string  `mapstructure:"provider" yaml:"provider"` // openai | ollama
	Endpoint       string  `mapstructure:"endpoint" yaml:"endpoint"`
	Model          string  `mapstructure:"model" yaml:"model"`
	APIKey         string  `mapstructure:"api_key" yaml:"api_key"`
	TimeoutSeconds int     `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Temperature    float64 `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens" yaml:"max_tokens"`
}

// AgentConfig holds loop limits.
type AgentConfig struct {
	MaxIterations        int `mapstructure:"max_iterations" yaml:"max_iterations"`
	MaxIterationsCeiling int `mapstructure:"max_iterations_ceiling" yaml:"max_iterations_ceiling"`
	SessionTimeoutMs     int `mapstructure:"session_timeout_ms" yaml:"session_timeout_ms"`
	BrainTimeoutMs       int `mapstructure:"brain_timeout_ms" yaml:"brain_timeout_ms"`
	LoopWindow           int `mapstructure:"loop_window" yaml:"loop_window"`
	FailureThreshold     int `mapstructure:"failure_threshold" yaml:"failure_threshold"`
	CompletionLookback   int `mapstructure:"completion_lookback" yaml:"completion_lookback"`
}

// FeatureConfig routes legacy calls.
type FeatureConfig struct {
	UseNewAgentSystem bool `mapstructure:"use_new_agent_system" yaml:"use_new_agent_system"`
	EnableFallback    bool `mapstructure:"enable_fallback" yaml:"enable_fallback"`
}

// ToolsConfig controls which tools are offered.
type ToolsConfig struct {
	CatalogPath  string   `mapstructure:"catalog_path" yaml:"catalog_path"`
	Allowed      []string `mapstructure:"allowed" yaml:"allowed"`
	TavilyAPIKey string   `mapstructure:"tavily_api_key" yaml:"tavily_api_key"`
}

// StorageConfig locates the SQLite databases.
type StorageConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir"`
}

// LedgerPath is the finance database file.
func (s StorageConfig) LedgerPath() string { return filepath.Join(s.Dir, "finance.db") }

// HistoryPath is the chat history database file.
func (s StorageConfig) HistoryPath() string { return filepath.Join(s.Dir, "history.db") }

// ConversationConfig bounds the chat history sent to the model.
type ConversationConfig struct {
	MaxMessages int `mapstructure:"max_messages" yaml:"max_messages"`
}

// PersonaConfig is the character the assistant plays.
type PersonaConfig struct {
	Name         string `mapstructure:"name" yaml:"name"`
	Instructions string `mapstructure:"instructions" yaml:"instructions"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:       "openai",
			Endpoint:       "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			Temperature:    0.2,
			MaxTokens:      1024,
		},
		Agent: AgentConfig{
			MaxIterations:        5,
			MaxIterationsCeiling: 10,
			SessionTimeoutMs:     60000,
			BrainTimeoutMs:       30000,
			LoopWindow:           3,
			FailureThreshold:     3,
			CompletionLookback:   5,
		},
		Features: FeatureConfig{
			UseNewAgentSystem: true,
			EnableFallback:    true,
		},
		Tools: ToolsConfig{
			Allowed: []string{
				"calculator", "search_web", "read_webpage", "get_current_time",
				"add_transaction", "get_transactions", "get_financial_report", "set_budget", "get_budgets",
			},
		},
		Storage: StorageConfig{
			Dir: defaultStorageDir(),
		},
		Persona: PersonaConfig{
			Name: "Brainhands, a friendly personal assistant",
		},
		Conversation: ConversationConfig{
			MaxMessages: 50,
		},
	}
}

// ConfigDir returns the per-user configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".brainhands"), nil
}

func defaultStorageDir() string {
	dir, err := ConfigDir()
	if err != nil {
		return "."
	}
	return dir
}

// SearchPaths lists the config files tried when none is given, in order.
func SearchPaths() []string {
	paths := []string{"config.local.yaml", "config.yaml"}
	if dir, err := ConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "config.yaml"))
	}
	return paths
}

// Load reads the configuration file at path, layered over the defaults and
// under environment overrides.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return decode(v)
}

// LoadFromPaths loads the first existing file among paths. With none
// present it returns the defaults with environment overrides applied.
func LoadFromPaths(paths ...string) (*Config, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return Load(p)
		}
	}
	return decode(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.endpoint", d.LLM.Endpoint)
	v.SetDefault("llm.model", d.LLM.Model)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.timeout_seconds", d.LLM.TimeoutSeconds)
	v.SetDefault("llm.temperature", d.LLM.Temperature)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)
	v.SetDefault("agent.max_iterations", d.Agent.MaxIterations)
	v.SetDefault("agent.max_iterations_ceiling", d.Agent.MaxIterationsCeiling)
	v.SetDefault("agent.session_timeout_ms", d.Agent.SessionTimeoutMs)
	v.SetDefault("agent.brain_timeout_ms", d.Agent.BrainTimeoutMs)
	v.SetDefault("agent.loop_window", d.Agent.LoopWindow)
	v.SetDefault("agent.failure_threshold", d.Agent.FailureThreshold)
	v.SetDefault("agent.completion_lookback", d.Agent.CompletionLookback)
	v.SetDefault("features.use_new_agent_system", d.Features.UseNewAgentSystem)
	v.SetDefault("features.enable_fallback", d.Features.EnableFallback)
	v.SetDefault("tools.catalog_path", d.Tools.CatalogPath)
	v.SetDefault("tools.allowed", d.Tools.Allowed)
	v.SetDefault("tools.tavily_api_key", d.Tools.TavilyAPIKey)
	v.SetDefault("storage.dir", d.Storage.Dir)
	v.SetDefault("persona.name", d.Persona.Name)
	v.SetDefault("persona.instructions", d.Persona.Instructions)
	v.SetDefault("conversation.max_messages", d.Conversation.MaxMessages)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that values are usable.
func (c *Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case "openai", "ollama":
	default:
		errs = append(errs, fmt.Errorf("llm.provider must be openai or ollama, got %q", c.LLM.Provider))
	}
	if c.LLM.Endpoint == "" {
		errs = append(errs, errors.New("llm.endpoint is required"))
	}
	if c.LLM.Model == "" {
		errs = append(errs, errors.New("llm.model is required"))
	}
	if c.LLM.TimeoutSeconds <= 0 {
		errs = append(errs, errors.New("llm.timeout_seconds must be positive"))
	}
	if c.Agent.MaxIterationsCeiling <= 0 {
		errs = append(errs, errors.New("agent.max_iterations_ceiling must be positive"))
	}
	if c.Agent.MaxIterations > c.Agent.MaxIterationsCeiling {
		errs = append(errs, fmt.Errorf("agent.max_iterations (%d) exceeds the ceiling (%d)",
			c.Agent.MaxIterations, c.Agent.MaxIterationsCeiling))
	}
	if c.Agent.LoopWindow != 0 && c.Agent.LoopWindow < 3 {
		errs = append(errs, errors.New("agent.loop_window must be at least 3"))
	}
	if c.Agent.SessionTimeoutMs < 0 || c.Agent.BrainTimeoutMs < 0 {
		errs = append(errs, errors.New("agent timeouts must not be negative"))
	}
	return errors.Join(errs...)
}

// Save writes the configuration as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
