// Package config loads studybuddy settings from defaults, a YAML file,
// STUDYBUDDY_* environment variables and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/conorfennell/studybuddy/internal/client"
	"github.com/conorfennell/studybuddy/pkg/validator"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	envPrefix         = "STUDYBUDDY_"
	defaultConfigFile = "studybuddy.yaml"
)

type Config struct {
	Env    string       `koanf:"env" validate:"oneof=development production"`
	Log    LogConfig    `koanf:"log"`
	API    APIConfig    `koanf:"api"`
	Auth   AuthConfig   `koanf:"auth"`
	Drafts DraftsConfig `koanf:"drafts"`
	Server ServerConfig `koanf:"server"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

type APIConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"min=0"`
}

// AuthConfig names where the bearer token comes from. Token wins over
// TokenFile when both are set.
type AuthConfig struct {
	Token     string `koanf:"token"`
	TokenFile string `koanf:"token_file"`
}

// DraftsConfig enables the on-disk draft journal. An empty path keeps drafts
// in memory only.
type DraftsConfig struct {
	Journal string `koanf:"journal"`
}

type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required,hostname_port"`
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"env":         "env",
	"log-level":   "log.level",
	"api-url":     "api.base_url",
	"api-timeout": "api.timeout",
	"token":       "auth.token",
	"token-file":  "auth.token_file",
	"journal":     "drafts.journal",
	"addr":        "server.addr",
}

// RegisterFlags adds the config flags and their defaults to flags.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a YAML config file (default "+defaultConfigFile+" if present)")
	flags.String("env", "production", "Runtime environment: development or production")
	flags.String("log-level", "info", "Log level: debug, info, warn or error")
	flags.String("api-url", client.DefaultBaseURL, "Base URL of the flashcard backend")
	flags.Duration("api-timeout", 30*time.Second, "Timeout for a single backend request")
	flags.String("token", "", "Bearer token for the backend")
	flags.String("token-file", "", "File holding the bearer token")
	flags.String("journal", "", "SQLite file that keeps unsynced drafts across restarts")
	flags.String("addr", "127.0.0.1:8787", "Listen address of the local draft API")
}

// Load builds the config. flags must have been set up with RegisterFlags
// and parsed.
func Load(flags *pflag.FlagSet) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	path, explicit := configPath(flags)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
		key, ok := flagKeys[f.Name]
		if !ok {
			return "", nil
		}
		return key, f.Value.String()
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.ValidateStruct(cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// configPath returns the config file to read and whether the user asked
// for it explicitly.
func configPath(flags *pflag.FlagSet) (string, bool) {
	if f := flags.Lookup("config"); f != nil && f.Value.String() != "" {
		return f.Value.String(), true
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p, true
	}
	return defaultConfigFile, false
}

// envKey turns STUDYBUDDY_API_BASE_URL into api.base_url. The first
// underscore separates the section from the key.
func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	if s == "config" {
		return ""
	}
	return strings.Replace(s, "_", ".", 1)
}
