package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/gookit/validate"
	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Crypto    CryptoConfig    `yaml:"crypto"`
	Liveness  LivenessConfig  `yaml:"liveness"`
	Cache     CacheConfig     `yaml:"cache"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	MCP       MCPConfig       `yaml:"mcp"`
}

type ServerConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|int|min:1|max:65535"`
}

type DBConfig struct {
	Path string `yaml:"path" validate:"required"`
}

type LogConfig struct {
	Level string `yaml:"level" validate:"required|in:debug,info,warn,error"`
}

type TransportConfig struct {
	Mode string `yaml:"mode" validate:"required|in:http,stdio"`
}

// AuthConfig holds the shared API key and the JWT signing secret. An empty
// API key disables the key check.
type AuthConfig struct {
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

// CryptoConfig supplies the structure encryption key, either as 64 hex
// characters or as a passphrase to derive it from. Key wins when both are set.
type CryptoConfig struct {
	Key        string `yaml:"key"`
	Passphrase string `yaml:"passphrase"`
}

type LivenessConfig struct {
	Interval  time.Duration `yaml:"interval"`
	Threshold time.Duration `yaml:"threshold"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	SizeMB  int           `yaml:"size_mb" validate:"int|min:0"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// MCPConfig names the user whose data the stdio MCP transport serves.
type MCPConfig struct {
	UserID string `yaml:"user_id"`
}

// Load reads configuration from an optional YAML file and environment
// variables, then validates the result.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("CODEPULSE_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "codepulse.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Liveness: LivenessConfig{
			Interval:  10 * time.Second,
			Threshold: 30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: true,
			SizeMB:  16,
			TTL:     5 * time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks field rules and cross-field requirements.
func (c *Config) Validate() error {
	sections := []any{&c.Server, &c.DB, &c.Log, &c.Transport, &c.Cache}
	for _, section := range sections {
		v := validate.Struct(section)
		if !v.Validate() {
			return fmt.Errorf("invalid config: %w", v.Errors)
		}
	}
	if c.Liveness.Interval < time.Second || c.Liveness.Threshold <= 0 {
		return errors.New("invalid config: liveness.interval must be at least 1s and liveness.threshold positive")
	}
	if c.Crypto.Key == "" && c.Crypto.Passphrase == "" {
		return errors.New("invalid config: crypto.key or crypto.passphrase is required")
	}
	if c.Crypto.Key != "" && len(c.Crypto.Key) != 64 {
		return errors.New("invalid config: crypto.key must be 64 hex characters")
	}
	if c.Transport.Mode == "stdio" && c.MCP.UserID == "" {
		return errors.New("invalid config: mcp.user_id is required in stdio mode")
	}
	return nil
}

func applyEnv(cfg *Config) error {
	texts := map[string]*string{
		"CODEPULSE_SERVER_HOST":       &cfg.Server.Host,
		"CODEPULSE_DB_PATH":           &cfg.DB.Path,
		"CODEPULSE_LOG_LEVEL":         &cfg.Log.Level,
		"CODEPULSE_TRANSPORT":         &cfg.Transport.Mode,
		"CODEPULSE_API_KEY":           &cfg.Auth.APIKey,
		"CODEPULSE_JWT_SECRET":        &cfg.Auth.JWTSecret,
		"CODEPULSE_CRYPTO_KEY":        &cfg.Crypto.Key,
		"CODEPULSE_CRYPTO_PASSPHRASE": &cfg.Crypto.Passphrase,
		"CODEPULSE_MCP_USER_ID":       &cfg.MCP.UserID,
	}
	for name, dst := range texts {
		if val := os.Getenv(name); val != "" {
			*dst = val
		}
	}

	ints := map[string]*int{
		"CODEPULSE_SERVER_PORT":   &cfg.Server.Port,
		"CODEPULSE_CACHE_SIZE_MB": &cfg.Cache.SizeMB,
	}
	for name, dst := range ints {
		if val := os.Getenv(name); val != "" {
			n, err := strconv.Atoi(val)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"CODEPULSE_LIVENESS_INTERVAL":  &cfg.Liveness.Interval,
		"CODEPULSE_LIVENESS_THRESHOLD": &cfg.Liveness.Threshold,
		"CODEPULSE_CACHE_TTL":          &cfg.Cache.TTL,
	}
	for name, dst := range durations {
		if val := os.Getenv(name); val != "" {
			d, err := time.ParseDuration(val)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = d
		}
	}

	bools := map[string]*bool{
		"CODEPULSE_CACHE_ENABLED":   &cfg.Cache.Enabled,
		"CODEPULSE_METRICS_ENABLED": &cfg.Metrics.Enabled,
	}
	for name, dst := range bools {
		if val := os.Getenv(name); val != "" {
			b, err := strconv.ParseBool(val)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", name, err)
			}
			*dst = b
		}
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
