// Package config loads the whiteboard configuration from a YAML file and
// WHITEBOARD_* environment variables. Command line flags are applied on top
// by the caller.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no explicit path is given and the file exists.
const DefaultPath = "whiteboard.yaml"

const (
	ProviderUIStream = "uistream"
	ProviderGemini   = "gemini"

	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Provider string `yaml:"provider"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`

	Store StoreConfig `yaml:"store"`

	StrictMissing bool `yaml:"strict_missing"`
	MaxSteps      int  `yaml:"max_steps"`
	Seed          bool `yaml:"seed"`

	LogLevel   string `yaml:"log_level"`
	PromptsDir string `yaml:"prompts_dir"`
	Profile    string `yaml:"profile"`
	Listen     string `yaml:"listen"`
}

// StoreConfig selects and configures the session store.
type StoreConfig struct {
	Kind  string      `yaml:"kind"`
	Dir   string      `yaml:"dir"`
	Redis RedisConfig `yaml:"redis"`

	// EncryptionKey is a base64 encoded AES-256 key. When set, records are sealed at rest.
	EncryptionKey string `yaml:"encryption_key"`
	// FallbackKeys are older base64 keys still accepted for reading.
	FallbackKeys []string `yaml:"fallback_keys"`
}

// Keys decodes the encryption keys. The active key is nil when encryption is off.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		if len(s.FallbackKeys) > 0 {
			return nil, nil, errors.New("fallback_keys require an encryption_key")
		}
		return nil, nil, nil
	}
	active, err = decodeKey(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("decoded key is %d bytes, want 32", len(key))
	}
	return key, nil
}

// RedisConfig configures the Redis store and distributed locker.
type RedisConfig struct {
	Addr   string        `yaml:"addr"`
	Prefix string        `yaml:"prefix"`
	TTL    time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Provider: ProviderUIStream,
		Endpoint: "http://localhost:3000/api/chat",
		Store: StoreConfig{
			Kind: StoreFile,
			Dir:  ".whiteboard/sessions",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		MaxSteps: 8,
		LogLevel: "info",
		Listen:   ":8080",
	}
}

// Load reads path (or DefaultPath when empty and present) over the defaults,
// then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// No file: defaults and environment only.
	default:
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated fields and bounds.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderUIStream:
		if c.Endpoint == "" {
			return errors.New("provider uistream requires an endpoint")
		}
	case ProviderGemini:
	default:
		return fmt.Errorf("unknown provider %q (expected %s or %s)", c.Provider, ProviderUIStream, ProviderGemini)
	}

	switch c.Store.Kind {
	case StoreMemory:
	case StoreFile:
		if c.Store.Dir == "" {
			return errors.New("file store requires a directory")
		}
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return errors.New("redis store requires an address")
		}
	default:
		return fmt.Errorf("unknown store %q (expected memory, file or redis)", c.Store.Kind)
	}

	if c.MaxSteps < 1 {
		return fmt.Errorf("max_steps must be at least 1, got %d", c.MaxSteps)
	}
	if c.Store.Redis.TTL < 0 {
		return errors.New("redis ttl must not be negative")
	}
	if _, _, err := c.Store.Keys(); err != nil {
		return err
	}
	return nil
}

func applyEnv(c *Config, lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = b
		return nil
	}

	str("WHITEBOARD_PROVIDER", &c.Provider)
	str("WHITEBOARD_ENDPOINT", &c.Endpoint)
	str("WHITEBOARD_MODEL", &c.Model)
	str("WHITEBOARD_API_KEY", &c.APIKey)
	if c.APIKey == "" && c.Provider == ProviderGemini {
		str("GEMINI_API_KEY", &c.APIKey)
	}
	str("WHITEBOARD_STORE", &c.Store.Kind)
	str("WHITEBOARD_STORE_DIR", &c.Store.Dir)
	str("WHITEBOARD_REDIS_ADDR", &c.Store.Redis.Addr)
	str("WHITEBOARD_REDIS_PREFIX", &c.Store.Redis.Prefix)
	str("WHITEBOARD_STORE_KEY", &c.Store.EncryptionKey)
	str("WHITEBOARD_LOG_LEVEL", &c.LogLevel)
	str("WHITEBOARD_PROMPTS_DIR", &c.PromptsDir)
	str("WHITEBOARD_PROFILE", &c.Profile)
	str("WHITEBOARD_LISTEN", &c.Listen)

	if err := boolean("WHITEBOARD_STRICT_MISSING", &c.StrictMissing); err != nil {
		return err
	}
	if err := boolean("WHITEBOARD_SEED", &c.Seed); err != nil {
		return err
	}

	if v, ok := lookup("WHITEBOARD_MAX_STEPS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("WHITEBOARD_MAX_STEPS: %w", err)
		}
		c.MaxSteps = n
	}
	if v, ok := lookup("WHITEBOARD_REDIS_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("WHITEBOARD_REDIS_TTL: %w", err)
		}
		c.Store.Redis.TTL = d
	}
	return nil
}
