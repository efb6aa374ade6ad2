package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YAMLConfig represents the top-level showcase configuration file. The same
// structure is decoded from viper (mapstructure tags) and from yaml.v3.
type YAMLConfig struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Reviews  ReviewsConfig  `yaml:"reviews" mapstructure:"reviews"`
	Log      LoggingConfig  `yaml:"log" mapstructure:"log"`
	Site     SiteConfig     `yaml:"site" mapstructure:"site"`
}

// ServerConfig controls the HTTP server behavior.
type ServerConfig struct {
	Host            string   `yaml:"host" mapstructure:"host"`
	Port            int      `yaml:"port" mapstructure:"port"`
	ShutdownTimeout string   `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	CORSOrigins     []string `yaml:"cors_origins" mapstructure:"cors_origins"`

	RateLimitPerMinute int `yaml:"rate_limit_per_minute" mapstructure:"rate_limit_per_minute"`
}

// AuthConfig controls admin sign-in and session cookies.
type AuthConfig struct {
	Secret             string `yaml:"secret" mapstructure:"secret"`
	MaxAge             string `yaml:"max_age" mapstructure:"max_age"`
	CookieName         string `yaml:"cookie_name" mapstructure:"cookie_name"`
	SecureCookies      bool   `yaml:"secure_cookies" mapstructure:"secure_cookies"`
	BcryptCost         int    `yaml:"bcrypt_cost" mapstructure:"bcrypt_cost"`
	LoginRatePerMinute int    `yaml:"login_rate_per_minute" mapstructure:"login_rate_per_minute"`
}

// DatabaseConfig selects the content store. An empty DSN with the sqlite
// driver means a file under the data directory.
type DatabaseConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"`
	DSN    string `yaml:"dsn" mapstructure:"dsn"`
}

// CacheConfig controls the rendered page cache.
type CacheConfig struct {
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
	PageTTL  string `yaml:"page_ttl" mapstructure:"page_ttl"`
}

// ReviewsConfig points at the external reviews feed.
type ReviewsConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	APIKey     string `yaml:"api_key" mapstructure:"api_key"`
	Revalidate string `yaml:"revalidate" mapstructure:"revalidate"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// SiteConfig carries presentation settings for the public pages.
type SiteConfig struct {
	Name      string   `yaml:"name" mapstructure:"name"`
	Languages []string `yaml:"languages" mapstructure:"languages"`
}

// LoadYAMLConfig reads and parses a YAML configuration file. Environment
// variables referenced as ${VAR_NAME} in the file are expanded before parsing.
func LoadYAMLConfig(path string) (*YAMLConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := DefaultYAMLConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return cfg, nil
}

// DefaultYAMLConfig returns a YAMLConfig pre-filled with sensible defaults.
// The secret is intentionally left empty: serving without one is refused.
func DefaultYAMLConfig() *YAMLConfig {
	return &YAMLConfig{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			CORSOrigins:     []string{"*"},

			RateLimitPerMinute: 300,
		},
		Auth: AuthConfig{
			MaxAge:             "24h",
			CookieName:         "showcase.session-token",
			SecureCookies:      false,
			BcryptCost:         12,
			LoginRatePerMinute: 10,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
		},
		Cache: CacheConfig{
			PageTTL: "5m",
		},
		Reviews: ReviewsConfig{
			Revalidate: "1h",
		},
		Log: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Site: SiteConfig{
			Name:      "Showcase",
			Languages: []string{"en", "de", "fr"},
		},
	}
}

// WriteDefaultConfig writes the default configuration to a YAML file.
func WriteDefaultConfig(path string) error {
	cfg := DefaultYAMLConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
