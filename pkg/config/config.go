// Package config loads filedrop configuration from defaults, an optional
// YAML file, and environment variable overrides, in that order of
// precedence (env highest).
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultAPIKey is the placeholder admin key used when none is configured.
// Startup warns loudly when it is still in effect.
const DefaultAPIKey = "changeme"

// Config holds the complete application configuration.
type Config struct {
	Files   FilesConfig   `yaml:"files"`
	Public  PublicConfig  `yaml:"public"`
	Admin   AdminConfig   `yaml:"admin"`
	Logging LoggingConfig `yaml:"logging"`
}

// FilesConfig locates the shared directory both servers operate on.
type FilesConfig struct {
	Dir string `yaml:"dir"`
}

// PublicConfig holds the read-only public file server settings.
type PublicConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// AdminConfig holds the authenticated admin API settings.
type AdminConfig struct {
	Host               string   `yaml:"host"`
	Port               int      `yaml:"port"`
	APIKey             string   `yaml:"apiKey"`
	MaxUploadSize      int64    `yaml:"maxUploadSize"`
	MaxClients         int      `yaml:"maxClients"`
	RateLimitPerMinute int      `yaml:"rateLimitPerMinute"`
	CORSOrigins        []string `yaml:"corsOrigins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig is the baseline every other source layers on top of.
var DefaultConfig = Config{
	Files: FilesConfig{
		Dir: "./files",
	},
	Public: PublicConfig{
		Host: "127.0.0.1",
		Port: 4848,
	},
	Admin: AdminConfig{
		Host:               "127.0.0.1",
		Port:               4849,
		APIKey:             DefaultAPIKey,
		MaxUploadSize:      10 * 1024 * 1024 * 1024, // 10GB
		MaxClients:         1024,
		RateLimitPerMinute: 60,
		CORSOrigins:        []string{"http://localhost:3000", "http://127.0.0.1:3000"},
	},
	Logging: LoggingConfig{
		Level: "INFO",
	},
}

// LoadConfig loads configuration from multiple sources in order of
// precedence:
//  1. Environment variables (highest precedence)
//  2. Configuration file (explicit path, or the search list)
//  3. Default values (lowest precedence)
//
// Returns the config and the description of the file source used.
func LoadConfig(explicitPath string) (*Config, string, error) {
	config := DefaultConfig

	path, err := loadFromFile(&config, explicitPath)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config file: %w", err)
	}

	loadFromEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, "", fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, path, nil
}

func loadFromFile(config *Config, explicitPath string) (string, error) {
	configPaths := []string{
		explicitPath,
		os.Getenv("FILEDROP_CONFIG_PATH"),
		"./config.yaml",
		"/etc/filedrop/config.yaml",
	}

	for _, path := range configPaths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			// an explicitly requested file must exist
			if path == explicitPath {
				return "", fmt.Errorf("config file does not exist: %s", path)
			}
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return "", fmt.Errorf("failed to parse config file %s: %w", path, err)
		}

		return path, nil
	}

	return "built-in defaults (no config file found)", nil
}

func loadFromEnv(config *Config) {
	if val := os.Getenv("FILEDROP_FILES_DIR"); val != "" {
		config.Files.Dir = val
	}

	if val := os.Getenv("FILEDROP_PUBLIC_HOST"); val != "" {
		config.Public.Host = val
	}
	if val := os.Getenv("FILEDROP_PUBLIC_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Public.Port = port
		}
	}

	if val := os.Getenv("FILEDROP_ADMIN_HOST"); val != "" {
		config.Admin.Host = val
	}
	if val := os.Getenv("FILEDROP_ADMIN_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			config.Admin.Port = port
		}
	}
	if val := os.Getenv("FILEDROP_ADMIN_API_KEY"); val != "" {
		config.Admin.APIKey = val
	}
	if val := os.Getenv("FILEDROP_MAX_UPLOAD_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			config.Admin.MaxUploadSize = size
		}
	}
	if val := os.Getenv("FILEDROP_MAX_CLIENTS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Admin.MaxClients = n
		}
	}
	if val := os.Getenv("FILEDROP_RATE_LIMIT_PER_MINUTE"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			config.Admin.RateLimitPerMinute = n
		}
	}
	if val := os.Getenv("FILEDROP_CORS_ORIGINS"); val != "" {
		origins := make([]string, 0)
		for _, origin := range strings.Split(val, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
		config.Admin.CORSOrigins = origins
	}

	if val := os.Getenv("FILEDROP_LOG_LEVEL"); val != "" {
		config.Logging.Level = val
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Files.Dir == "" {
		return fmt.Errorf("files dir must not be empty")
	}
	if c.Public.Port <= 0 || c.Public.Port > 65535 {
		return fmt.Errorf("invalid public port: %d", c.Public.Port)
	}
	if c.Admin.Port <= 0 || c.Admin.Port > 65535 {
		return fmt.Errorf("invalid admin port: %d", c.Admin.Port)
	}
	if c.Public.Host == c.Admin.Host && c.Public.Port == c.Admin.Port {
		return fmt.Errorf("public and admin servers cannot share %s:%d", c.Admin.Host, c.Admin.Port)
	}
	if c.Admin.APIKey == "" {
		return fmt.Errorf("admin API key must not be empty")
	}
	if c.Admin.MaxUploadSize <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.Admin.MaxUploadSize)
	}
	if c.Admin.MaxClients <= 0 {
		return fmt.Errorf("max clients must be positive, got %d", c.Admin.MaxClients)
	}
	if c.Admin.RateLimitPerMinute <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d", c.Admin.RateLimitPerMinute)
	}
	return nil
}

// APIKeyHash returns the SHA-256 hex digest of the configured admin key.
// Only the hash is ever compared against incoming requests.
func (c *Config) APIKeyHash() string {
	return HashAPIKey(c.Admin.APIKey)
}

// HashAPIKey hashes an API key for comparison.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
