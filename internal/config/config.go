package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "AMM"

// Config holds the settings shared by commands that load and save pool state.
type Config struct {
	Snapshot string
	Events   string
	PGDSN    string
	Owner    string
	LogLevel string
}

// ServeConfig holds configuration for the HTTP API.
type ServeConfig struct {
	Config
	Listen string
}

// ImportConfig holds configuration for importing ERC20 tokens as assets.
type ImportConfig struct {
	Config
	RPCURL       string
	MaxRetries   int
	RetryBackoff time.Duration
}

var stateDefaults = map[string]interface{}{
	"snapshot":  "./data/state.json",
	"events":    "./data/events.jsonl",
	"owner":     "0x0000000000000000000000000000000000000100",
	"log-level": "info",
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v, err := newViper(cfgFile, flags, stateDefaults)
	if err != nil {
		return Config{}, err
	}
	return stateConfig(v), nil
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, withDefaults(stateDefaults, map[string]interface{}{
		"listen": "127.0.0.1:8080",
	}))
	if err != nil {
		return ServeConfig{}, err
	}
	return ServeConfig{Config: stateConfig(v), Listen: v.GetString("listen")}, nil
}

// LoadImport merges config file, environment variables, and flags into ImportConfig.
func LoadImport(cfgFile string, flags *pflag.FlagSet) (ImportConfig, error) {
	v, err := newViper(cfgFile, flags, withDefaults(stateDefaults, map[string]interface{}{
		"max-retries":   5,
		"retry-backoff": 500 * time.Millisecond,
	}))
	if err != nil {
		return ImportConfig{}, err
	}
	return ImportConfig{
		Config:       stateConfig(v),
		RPCURL:       v.GetString("rpc"),
		MaxRetries:   v.GetInt("max-retries"),
		RetryBackoff: v.GetDuration("retry-backoff"),
	}, nil
}

func stateConfig(v *viper.Viper) Config {
	return Config{
		Snapshot: v.GetString("snapshot"),
		Events:   v.GetString("events"),
		PGDSN:    v.GetString("pg-dsn"),
		Owner:    v.GetString("owner"),
		LogLevel: v.GetString("log-level"),
	}
}

func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}
	return v, nil
}

func withDefaults(base, extra map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}
