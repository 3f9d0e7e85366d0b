// Package config provides configuration loading for the store client.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration structure.
type Config struct {
	API           APIConfig           `yaml:"api"`
	Identity      IdentityConfig      `yaml:"identity"`
	Cache         CacheConfig         `yaml:"cache"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// APIConfig holds RPC endpoint configuration.
type APIConfig struct {
	// BaseURL is the URL of the RPC web app endpoint (required).
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout in seconds. Defaults to 25.
	Timeout int `yaml:"timeout"`

	// FallbackEnabled turns on the callback-style GET transport used when
	// the POST transport fails at the network or HTTP level.
	FallbackEnabled bool `yaml:"fallback_enabled"`

	// RateLimitPerMinute caps outgoing requests. 0 disables limiting.
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`
}

// Validate validates the API configuration.
func (c *APIConfig) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return errors.New("api.base_url is required")
	}

	return nil
}

// GetTimeout returns the configured timeout or the default (25 seconds).
func (c *APIConfig) GetTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 25 * time.Second
	}

	return time.Duration(c.Timeout) * time.Second
}

// IdentityConfig holds identity provider configuration.
type IdentityConfig struct {
	// Provider selects the identity provider implementation:
	// "static" or "token_endpoint". Defaults to "static".
	Provider string `yaml:"provider"`

	// Static provider fields.
	Token  string `yaml:"token,omitempty"`
	UserID string `yaml:"user_id,omitempty"`
	Email  string `yaml:"email,omitempty"`

	// TokenEndpoint provider fields.
	TokenEndpoint *TokenEndpointConfig `yaml:"token_endpoint,omitempty"`
}

// TokenEndpointConfig holds refresh-token exchange configuration.
type TokenEndpointConfig struct {
	// URL is the token exchange endpoint.
	URL string `yaml:"url"`

	// RefreshToken is the long-lived refresh token presented to the endpoint.
	RefreshToken string `yaml:"refresh_token"`

	// APIKey is appended as the "key" query parameter when set.
	APIKey string `yaml:"api_key,omitempty"`
}

// Validate validates the identity configuration.
func (c *IdentityConfig) Validate() error {
	switch c.Provider {
	case "static":
		if c.Token == "" {
			return errors.New("identity.token is required for the static provider")
		}
	case "token_endpoint":
		if c.TokenEndpoint == nil || c.TokenEndpoint.URL == "" {
			return errors.New("identity.token_endpoint.url is required for the token_endpoint provider")
		}

		if c.TokenEndpoint.RefreshToken == "" {
			return errors.New("identity.token_endpoint.refresh_token is required for the token_endpoint provider")
		}
	default:
		return fmt.Errorf("identity.provider %q is not supported (static, token_endpoint)", c.Provider)
	}

	return nil
}

// CacheConfig holds durable cache configuration.
type CacheConfig struct {
	// Backend selects the blob store: "file", "memory" or "redis".
	// Defaults to "file".
	Backend string `yaml:"backend"`

	// Path is the cache file location for the file backend.
	Path string `yaml:"path"`

	// TTL is how long a written cache envelope stays valid. Defaults to 15m.
	TTL time.Duration `yaml:"ttl"`

	// Redis holds connection settings for the redis backend.
	Redis *RedisConfig `yaml:"redis,omitempty"`
}

// RedisConfig holds redis connection configuration.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	switch c.Backend {
	case "file", "memory":
	case "redis":
		if c.Redis == nil || c.Redis.Addr == "" {
			return errors.New("cache.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported (file, memory, redis)", c.Backend)
	}

	return nil
}

// GetTTL returns the configured cache TTL or the default (15 minutes).
func (c *CacheConfig) GetTTL() time.Duration {
	if c.TTL <= 0 {
		return 15 * time.Minute
	}

	return c.TTL
}

// ObservabilityConfig holds observability configuration.
type ObservabilityConfig struct {
	MetricsEnabled bool `yaml:"metrics_enabled"`
	MetricsPort    int  `yaml:"metrics_port"`
}

// envVarPattern matches ${VAR_NAME} patterns for environment variable substitution.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load loads configuration from a YAML file with environment variable substitution.
// A .env file next to the working directory is loaded first when present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars win over .env values.
	_ = godotenv.Load()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "config.yaml"
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	// Substitute environment variables
	substituted, err := substituteEnvVars(string(data))
	if err != nil {
		return nil, fmt.Errorf("substituting env vars: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(substituted), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} patterns with environment variable values.
// Lines that are comments (starting with #) are skipped to allow commented optional sections
// in config files without requiring their environment variables to be set.
func substituteEnvVars(content string) (string, error) {
	var missingVars []string
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		// Skip lines that are YAML comments.
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") {
			continue
		}

		lines[i] = envVarPattern.ReplaceAllStringFunc(line, func(match string) string {
			varName := envVarPattern.FindStringSubmatch(match)[1]
			value := os.Getenv(varName)
			if value == "" {
				missingVars = append(missingVars, varName)
				return match
			}

			return value
		})
	}

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing environment variables: %v", missingVars)
	}

	return strings.Join(lines, "\n"), nil
}

// applyDefaults sets default values for configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Identity.Provider == "" {
		cfg.Identity.Provider = "static"
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = "file"
	}

	if cfg.Cache.Path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}

		cfg.Cache.Path = home + "/.store/cache.json"
	}

	if cfg.Observability.MetricsPort == 0 {
		cfg.Observability.MetricsPort = 9464
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return err
	}

	if err := c.Identity.Validate(); err != nil {
		return err
	}

	return c.Cache.Validate()
}
