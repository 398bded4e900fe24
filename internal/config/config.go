package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the vectorizer service
type Config struct {
	Vectorizer VectorizerConfig `yaml:"vectorizer"`
	Fetch      FetchConfig      `yaml:"fetch"`
	Storage    StorageConfig    `yaml:"storage"`
	Server     ServerConfig     `yaml:"server"`
	Search     SearchConfig     `yaml:"search"`
	LogLevel   string           `yaml:"log_level"`
}

// VectorizerConfig holds tokenizer and weighting defaults
type VectorizerConfig struct {
	Lowercase bool `yaml:"lowercase"`
	Normalize bool `yaml:"normalize"`
}

// FetchConfig holds settings for URL corpus sources
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	UserAgent     string        `yaml:"user_agent"`
	RespectRobots bool          `yaml:"respect_robots"`
	MaxBodyBytes  int           `yaml:"max_body_bytes"`
}

// StorageConfig holds report storage configuration
type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type SearchConfig struct {
	TopK int `yaml:"top_k"`
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

// LoadFile reads a YAML file on top of the defaults, then applies environment
// overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Vectorizer: VectorizerConfig{
			Lowercase: true,
			Normalize: false,
		},
		Fetch: FetchConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "textvec/1.0",
			RespectRobots: true,
			MaxBodyBytes:  5 << 20,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Search: SearchConfig{
			TopK: 5,
		},
		LogLevel: "info",
	}
}

func applyEnv(cfg *Config) {
	cfg.Vectorizer.Lowercase = GetBoolEnv("VECTORIZER_LOWERCASE", cfg.Vectorizer.Lowercase)
	cfg.Vectorizer.Normalize = GetBoolEnv("VECTORIZER_NORMALIZE", cfg.Vectorizer.Normalize)
	cfg.Fetch.Timeout = GetDurationEnv("FETCH_TIMEOUT", cfg.Fetch.Timeout)
	cfg.Fetch.UserAgent = GetStringEnv("FETCH_USER_AGENT", cfg.Fetch.UserAgent)
	cfg.Fetch.RespectRobots = GetBoolEnv("FETCH_RESPECT_ROBOTS", cfg.Fetch.RespectRobots)
	cfg.Fetch.MaxBodyBytes = GetIntEnv("FETCH_MAX_BODY_BYTES", cfg.Fetch.MaxBodyBytes)
	cfg.Storage.DataDir = GetStringEnv("STORAGE_DATA_DIR", cfg.Storage.DataDir)
	cfg.Server.Addr = GetStringEnv("SERVER_ADDR", cfg.Server.Addr)
	cfg.Search.TopK = GetIntEnv("SEARCH_TOP_K", cfg.Search.TopK)
	cfg.LogLevel = GetStringEnv("LOG_LEVEL", cfg.LogLevel)
}

func GetStringEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func GetIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func GetBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func GetDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
