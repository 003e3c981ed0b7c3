package config

import (
	"fmt"
	"net"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

// AnalysisConfig holds the threshold heuristic and overlay rendering parameters
type AnalysisConfig struct {
	// StdFactor is k in threshold = mean + k*std
	StdFactor float64 `yaml:"stdFactor"`

	// TintColor is the highlight colour as "#RRGGBB"
	TintColor string `yaml:"tintColor"`

	// TintAlpha is the highlight opacity, 0-255
	TintAlpha int `yaml:"tintAlpha"`

	// MaxPixels caps decoded image size (width*height)
	MaxPixels int `yaml:"maxPixels"`

	// PreviewMaxSize downscales returned artifacts so neither side exceeds it; 0 disables
	PreviewMaxSize int `yaml:"previewMaxSize"`
}

// AzureConfig holds optional shared-key credentials for blob sources
type AzureConfig struct {
	AccountName string `yaml:"accountName"`
	AccountKey  string `yaml:"accountKey"`
}

// Enabled reports whether blob credentials are present
func (a AzureConfig) Enabled() bool {
	return a.AccountName != "" && a.AccountKey != ""
}

type Config struct {
	Host                  string         `yaml:"host"`
	Port                  string         `yaml:"port"`
	LogLevel              string         `yaml:"logLevel"`
	RequestTimeout        time.Duration  `yaml:"requestTimeout"`
	ImageFetchTimeout     time.Duration  `yaml:"imageFetchTimeout"`
	AnalysisTimeout       time.Duration  `yaml:"analysisTimeout"`
	MaxRequestBodySize    int64          `yaml:"maxRequestBodySize"`
	MaxConcurrentAnalyses int            `yaml:"maxConcurrentAnalyses"`
	AllowedHosts          []string       `yaml:"allowedHosts"`
	Analysis              AnalysisConfig `yaml:"analysis"`
	Azure                 AzureConfig    `yaml:"azure"`
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// Default returns the configuration used when neither a file nor env overrides are present
func Default() *Config {
	return &Config{
		Host:                  "0.0.0.0",
		Port:                  "8080",
		LogLevel:              "info",
		RequestTimeout:        30 * time.Second,
		ImageFetchTimeout:     15 * time.Second,
		AnalysisTimeout:       20 * time.Second,
		MaxRequestBodySize:    20 * 1024 * 1024, // 20MB
		MaxConcurrentAnalyses: runtime.NumCPU(),
		Analysis: AnalysisConfig{
			StdFactor:      0.5,
			TintColor:      "#FF0000",
			TintAlpha:      180,
			MaxPixels:      40_000_000,
			PreviewMaxSize: 0,
		},
	}
}

// LoadFile reads a YAML file on top of the defaults.
// A missing file is not an error; the defaults are returned.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}
	return cfg, nil
}

// LoadFromEnv builds the configuration from CONFIG_FILE (optional) and environment
// overrides, then validates it.
func LoadFromEnv() (*Config, error) {
	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		fileCfg, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	cfg.Host = getEnvOrDefault("HOST", cfg.Host)
	cfg.Port = getEnvOrDefault("PORT", cfg.Port)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.RequestTimeout = parseDurationOrDefault("REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.ImageFetchTimeout = parseDurationOrDefault("IMAGE_FETCH_TIMEOUT", cfg.ImageFetchTimeout)
	cfg.AnalysisTimeout = parseDurationOrDefault("ANALYSIS_TIMEOUT", cfg.AnalysisTimeout)
	cfg.MaxRequestBodySize = parseIntOrDefault("MAX_REQUEST_BODY_SIZE", cfg.MaxRequestBodySize)
	cfg.MaxConcurrentAnalyses = int(parseIntOrDefault("MAX_CONCURRENT_ANALYSES", int64(cfg.MaxConcurrentAnalyses)))
	if hosts := os.Getenv("ALLOWED_HOSTS"); hosts != "" {
		cfg.AllowedHosts = splitList(hosts)
	}

	cfg.Analysis.StdFactor = parseFloatOrDefault("ANALYSIS_STD_FACTOR", cfg.Analysis.StdFactor)
	cfg.Analysis.TintColor = getEnvOrDefault("ANALYSIS_TINT_COLOR", cfg.Analysis.TintColor)
	cfg.Analysis.TintAlpha = int(parseIntOrDefault("ANALYSIS_TINT_ALPHA", int64(cfg.Analysis.TintAlpha)))
	cfg.Analysis.MaxPixels = int(parseIntOrDefault("ANALYSIS_MAX_PIXELS", int64(cfg.Analysis.MaxPixels)))
	cfg.Analysis.PreviewMaxSize = int(parseIntOrDefault("ANALYSIS_PREVIEW_MAX_SIZE", int64(cfg.Analysis.PreviewMaxSize)))

	cfg.Azure.AccountName = getEnvOrDefault("AZURE_STORAGE_ACCOUNT", cfg.Azure.AccountName)
	cfg.Azure.AccountKey = getEnvOrDefault("AZURE_STORAGE_KEY", cfg.Azure.AccountKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and formats of every field
func (c *Config) Validate() error {
	// Validate port is numeric and in range
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.ImageFetchTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, fetch=%s, analysis=%s)",
			c.RequestTimeout, c.ImageFetchTimeout, c.AnalysisTimeout)
	}
	if c.MaxConcurrentAnalyses <= 0 {
		return fmt.Errorf("MAX_CONCURRENT_ANALYSES must be > 0 (got %d)", c.MaxConcurrentAnalyses)
	}
	if c.Analysis.StdFactor < 0 {
		return fmt.Errorf("ANALYSIS_STD_FACTOR must be >= 0 (got %g)", c.Analysis.StdFactor)
	}
	if c.Analysis.TintAlpha < 0 || c.Analysis.TintAlpha > 255 {
		return fmt.Errorf("ANALYSIS_TINT_ALPHA must be within 0-255 (got %d)", c.Analysis.TintAlpha)
	}
	if _, err := colorful.Hex(c.Analysis.TintColor); err != nil {
		return fmt.Errorf("invalid ANALYSIS_TINT_COLOR %q: %w", c.Analysis.TintColor, err)
	}
	if c.Analysis.MaxPixels <= 0 {
		return fmt.Errorf("ANALYSIS_MAX_PIXELS must be > 0 (got %d)", c.Analysis.MaxPixels)
	}
	if c.Analysis.PreviewMaxSize < 0 {
		return fmt.Errorf("ANALYSIS_PREVIEW_MAX_SIZE must be >= 0 (got %d)", c.Analysis.PreviewMaxSize)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
