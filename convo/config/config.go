package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/ZanzyTHEbar/convo/convo"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CONVO_LLM_MODEL.
const EnvPrefix = "CONVO"

// Config stores all configuration of the application.
// The values are read by viper from a config file, environment variables or flags.
type Config struct {
	Chat    ChatConfig    `mapstructure:"chat" json:"chat"`
	LLM     LLMConfig     `mapstructure:"llm" json:"llm"`
	Harness HarnessConfig `mapstructure:"harness" json:"harness"`
	Log     LogConfig     `mapstructure:"log" json:"log"`
}

// ChatConfig controls the conversation buffer and prompt rendering.
type ChatConfig struct {
	MaxHistoryItems   int    `mapstructure:"max_history_items" json:"max_history_items"`   // turns retained in memory
	PromptWindow      int    `mapstructure:"prompt_window" json:"prompt_window"`           // most recent turns rendered into each prompt
	SystemInstruction string `mapstructure:"system_instruction" json:"system_instruction"` // first prompt line
}

// LLMConfig stores language model configurations.
type LLMConfig struct {
	Provider     string        `mapstructure:"provider" json:"provider"`       // "gemini", "openai"
	Model        string        `mapstructure:"model" json:"model"`             // provider model name
	APIKey       string        `mapstructure:"api_key" json:"-"`               // explicit key; wins over APIKeyEnv
	APIKeyEnv    string        `mapstructure:"api_key_env" json:"api_key_env"` // env var holding the key
	BaseURL      string        `mapstructure:"base_url" json:"base_url"`       // optional endpoint override
	MaxNewTokens int           `mapstructure:"max_new_tokens" json:"max_new_tokens"`
	Temperature  float32       `mapstructure:"temperature" json:"temperature"`
	TopP         float32       `mapstructure:"top_p" json:"top_p"`
	Timeout      time.Duration `mapstructure:"timeout" json:"timeout"` // per request; 0 disables
}

// HarnessConfig stores generation pipeline configurations.
type HarnessConfig struct {
	// Cache settings
	CacheEnabled    bool `mapstructure:"cache_enabled" json:"cache_enabled"`         // Enable reply caching keyed by prompt
	CacheCapacity   int  `mapstructure:"cache_capacity" json:"cache_capacity"`       // LRU cache capacity
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds" json:"cache_ttl_seconds"` // Cache entry TTL

	// Rate limiting
	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled" json:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity" json:"rate_limit_capacity"`       // Token bucket capacity
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate" json:"rate_limit_refill_rate"` // Refill rate

	// Safety
	EnableGuardrails         bool `mapstructure:"enable_guardrails" json:"enable_guardrails"`                   // Redact the configured API key in replies
	RedactCredentialPatterns bool `mapstructure:"redact_credential_patterns" json:"redact_credential_patterns"` // Also mask password=, api_key=, secret= and key-shaped text

	// Telemetry
	EnableTracing bool `mapstructure:"enable_tracing" json:"enable_tracing"`
}

// LogConfig controls the root logger.
type LogConfig struct {
	Level  string `mapstructure:"level" json:"level"`   // zerolog level name
	Format string `mapstructure:"format" json:"format"` // "auto", "console", "json"
}

// flagKeys maps CLI flag names to config keys.
var flagKeys = map[string]string{
	"model":     "llm.model",
	"provider":  "llm.provider",
	"window":    "chat.prompt_window",
	"log-level": "log.level",
}

// RegisterFlags declares the flags understood by New on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (default: search ./config.yaml and the user config dir)")
	fs.String("model", "", "model name")
	fs.String("provider", "", "generation provider: gemini or openai")
	fs.Int("window", 0, "number of recent turns included in each prompt")
	fs.String("log-level", "", "log level: trace, debug, info, warn, error")
}

// New prepares a viper instance with defaults, environment overrides, optional flag
// bindings and the config file, if any.
func New(configPath string, flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("/etc", internal.DefaultAppName))
		v.AddConfigPath(internal.DefaultConfigPath)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// Replace dots with underscores in env var names e.g. llm.model becomes CONVO_LLM_MODEL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found in the search path; defaults and env are enough.
	}

	return v, nil
}

func setDefaults(v *viper.Viper) {
	// Chat defaults
	v.SetDefault("chat.max_history_items", internal.DefaultMaxHistoryItems)
	v.SetDefault("chat.prompt_window", internal.DefaultMaxHistoryItems)
	v.SetDefault("chat.system_instruction", internal.DefaultSystemInstruction)

	// LLM defaults
	v.SetDefault("llm.provider", internal.DefaultProvider)
	v.SetDefault("llm.model", internal.DefaultModel)
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_env", internal.DefaultAPIKeyEnv)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.max_new_tokens", 0) // provider default
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.timeout", "60s")

	// Harness defaults
	v.SetDefault("harness.cache_enabled", false) // identical prompts are rare in a chat
	v.SetDefault("harness.cache_capacity", 128)
	v.SetDefault("harness.cache_ttl_seconds", 600)
	v.SetDefault("harness.rate_limit_enabled", true)
	v.SetDefault("harness.rate_limit_capacity", 10)
	v.SetDefault("harness.rate_limit_refill_rate", "1s")
	v.SetDefault("harness.enable_guardrails", true)
	v.SetDefault("harness.redact_credential_patterns", false) // rewrites ordinary prose such as "secret: ..."
	v.SetDefault("harness.enable_tracing", true)

	// Log defaults
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "auto")
}

// Decode unmarshals and validates the settings held by v.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v, err := New(configPath, nil)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

// ResolveAPIKey returns the configured credential, preferring an explicit api_key over
// the environment variable named by api_key_env.
func (c LLMConfig) ResolveAPIKey() (string, error) {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key, nil
	}
	env := c.APIKeyEnv
	if env == "" {
		env = internal.DefaultAPIKeyEnv
	}
	if key := strings.TrimSpace(os.Getenv(env)); key != "" {
		return key, nil
	}
	return "", &ConfigurationError{
		Field:  "llm.api_key",
		Reason: fmt.Sprintf("missing %s environment variable; set it and rerun", env),
		Err:    ErrMissingAPIKey,
	}
}
