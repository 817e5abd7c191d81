// Package config loads taskrouter settings from defaults, an optional YAML
// file, a .env file and TASKROUTER_* environment variables, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/leofalp/taskrouter/core/orchestrator"
	"github.com/leofalp/taskrouter/providers/observability/slogobs"
)

// EnvPrefix prefixes every environment override: log.level is read from
// TASKROUTER_LOG_LEVEL.
const EnvPrefix = "TASKROUTER"

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "taskrouter.yaml"

type Config struct {
	Log          LogConfig          `mapstructure:"log"`
	Orchestrator OrchestratorConfig `mapstructure:"orchestrator"`
	Tools        ToolsConfig        `mapstructure:"tools"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Server       ServerConfig       `mapstructure:"server"`
	History      HistoryConfig      `mapstructure:"history"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // text, json
}

type OrchestratorConfig struct {
	DefaultMode         string  `mapstructure:"default_mode"`
	ComplexityThreshold float64 `mapstructure:"complexity_threshold"`
	MaxSteps            int     `mapstructure:"max_steps"`
	// Planner is "keyword" or "llm"; llm requires llm.api_key.
	Planner string `mapstructure:"planner"`
}

type ToolsConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
	// EnableNetwork registers the search and web_fetch tools.
	EnableNetwork bool   `mapstructure:"enable_network"`
	SearchURL     string `mapstructure:"search_url"`
}

type LLMConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	// Mode is the gin mode: debug, release or test.
	Mode string `mapstructure:"mode"`
}

type HistoryConfig struct {
	Capacity int `mapstructure:"capacity"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("orchestrator.default_mode", string(orchestrator.ModeAuto))
	v.SetDefault("orchestrator.complexity_threshold", orchestrator.DefaultComplexityThreshold)
	v.SetDefault("orchestrator.max_steps", orchestrator.DefaultMaxSteps)
	v.SetDefault("orchestrator.planner", "keyword")
	v.SetDefault("tools.timeout", 30*time.Second)
	v.SetDefault("tools.enable_network", false)
	v.SetDefault("tools.search_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.timeout", 60*time.Second)
	v.SetDefault("server.addr", ":3000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("history.capacity", 1000)
}

// Load reads the configuration. path names a YAML file that must exist;
// an empty path uses DefaultFile when present. envFiles are loaded with
// godotenv before the environment is read, without overriding variables
// already set; missing env files are skipped. With no envFiles ".env" is
// tried.
func Load(path string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The OpenAI variables are honoured as a fallback for the LLM settings.
	_ = v.BindEnv("llm.api_key", EnvPrefix+"_LLM_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("llm.base_url", EnvPrefix+"_LLM_BASE_URL", "OPENAI_API_BASE_URL")
	_ = v.BindEnv("log.level", EnvPrefix+"_LOG_LEVEL", "LOG_LEVEL")

	v.SetConfigType("yaml")
	switch {
	case path != "":
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	default:
		if _, err := os.Stat(DefaultFile); err == nil {
			v.SetConfigFile(DefaultFile)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file %s: %w", DefaultFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if _, err := orchestrator.ParseMode(c.Orchestrator.DefaultMode); err != nil {
		return fmt.Errorf("orchestrator.default_mode: %w", err)
	}
	if c.Orchestrator.ComplexityThreshold <= 0 {
		return fmt.Errorf("orchestrator.complexity_threshold must be positive, got %v", c.Orchestrator.ComplexityThreshold)
	}
	switch c.Orchestrator.Planner {
	case "keyword", "llm":
	default:
		return fmt.Errorf("orchestrator.planner must be keyword or llm, got %q", c.Orchestrator.Planner)
	}
	if c.Tools.Timeout < 0 {
		return fmt.Errorf("tools.timeout must not be negative, got %s", c.Tools.Timeout)
	}
	switch strings.ToLower(c.Log.Format) {
	case string(slogobs.FormatText), string(slogobs.FormatJSON):
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// Mode returns the parsed default mode.
func (c *Config) Mode() orchestrator.Mode {
	mode, _ := orchestrator.ParseMode(c.Orchestrator.DefaultMode)
	return mode
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return slogobs.ParseLevel(c.Log.Level)
}

// LogFormat returns the configured slog handler format.
func (c *Config) LogFormat() slogobs.Format {
	return slogobs.Format(strings.ToLower(c.Log.Format))
}

// LLMEnabled reports whether an API key is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLM.APIKey != ""
}
