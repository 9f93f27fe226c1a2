// Package config loads sidekick configuration from yaml files and
// SIDEKICK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full sidekick configuration.
type Config struct {
	WorkspaceDir       string         `yaml:"workspace_dir" mapstructure:"workspace_dir"`
	DefaultProvider    string         `yaml:"default_provider" mapstructure:"default_provider"`
	DefaultModel       string         `yaml:"default_model" mapstructure:"default_model"`
	DefaultTemperature float64        `yaml:"default_temperature" mapstructure:"default_temperature"`
	APIKey             string         `yaml:"api_key" mapstructure:"api_key"`
	Memory             MemoryConfig   `yaml:"memory" mapstructure:"memory"`
	Channels           ChannelsConfig `yaml:"channels" mapstructure:"channels"`
	Gateway            GatewayConfig  `yaml:"gateway" mapstructure:"gateway"`
}

// MemoryConfig selects the memory backend and whether inbound content
// is persisted automatically before being sent to the provider.
type MemoryConfig struct {
	Backend  string `yaml:"backend" mapstructure:"backend"`
	AutoSave bool   `yaml:"auto_save" mapstructure:"auto_save"`
}

// ChannelsConfig holds per-transport channel settings.
type ChannelsConfig struct {
	Slack SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// SlackConfig configures the slack polling channel.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token" mapstructure:"bot_token"`
	ChannelID string `yaml:"channel_id" mapstructure:"channel_id"`
}

// GatewayConfig configures the webhook HTTP gateway.
type GatewayConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		WorkspaceDir:       filepath.Join(home, ".sidekick"),
		DefaultProvider:    "openrouter",
		DefaultModel:       "anthropic/claude-sonnet-4-20250514",
		DefaultTemperature: 0.7,
		Memory:             MemoryConfig{Backend: "sqlite", AutoSave: true},
		Gateway:            GatewayConfig{Host: "127.0.0.1", Port: 8080},
	}
}

var envVarRe = regexp.MustCompile(`\$\{?([A-Z_][A-Z0-9_]*)\}?`)

// expandEnv substitutes $VAR and ${VAR} references so secrets can live
// in the environment instead of the config file. Unset variables are
// left as-is.
func expandEnv(s string) string {
	return envVarRe.ReplaceAllStringFunc(s, func(match string) string {
		name := strings.Trim(match, "${}")
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return match
	})
}

// Load reads configuration from path if given, otherwise from the
// standard search locations, layered over defaults. A missing config
// file is not an error; the defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			v.AddConfigPath(filepath.Join(xdg, "sidekick"))
		}
		home, _ := os.UserHomeDir()
		v.AddConfigPath(filepath.Join(home, ".config", "sidekick"))
	}

	v.SetEnvPrefix("SIDEKICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.APIKey = expandEnv(cfg.APIKey)
	cfg.Channels.Slack.BotToken = expandEnv(cfg.Channels.Slack.BotToken)
	return cfg, nil
}
