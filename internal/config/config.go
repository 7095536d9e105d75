package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultLogLevel       = "info"
	defaultMaxCapacity    = 5_000_000
)

// Container describes one of the two containers an allocation splits into.
type Container struct {
	Name     string `yaml:"name"`
	Capacity int    `yaml:"capacity"`
	Tare     int    `yaml:"tare"`
}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
	LogLevel             string        `yaml:"log_level"`
	ItemsFile            string        `yaml:"items_file"`
	ItemsSheet           string        `yaml:"items_sheet"`
	MaxCapacity          int           `yaml:"max_capacity"`
	Containers           [2]Container  `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	LogLevel             string        `yaml:"log_level"`
	ItemsFile            string        `yaml:"items_file"`
	ItemsSheet           string        `yaml:"items_sheet"`
	MaxCapacity          int           `yaml:"max_capacity"`
	Containers           []Container   `yaml:"containers"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	ItemsFile      *string
	ItemsSheet     *string
	ContainersStr  *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Apply environment variables
	applyEnvConfig(&cfg)

	// Load from YAML file if specified (overrides environment)
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, err
		}
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// DefaultContainers returns the two transporters of the original equipment
// run: 1,100,000 g gross each, carrying drivers of 72,400 g and 85,700 g.
func DefaultContainers() [2]Container {
	return [2]Container{
		{Name: "Transporter 1", Capacity: 1_100_000, Tare: 72_400},
		{Name: "Transporter 2", Capacity: 1_100_000, Tare: 85_700},
	}
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         60 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		MaxCapacity:          defaultMaxCapacity,
		Containers:           DefaultContainers(),
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	durations := []struct {
		raw    string
		target *time.Duration
	}{
		{yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{yamlCfg.IdleTimeout, &cfg.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		if parsed, err := time.ParseDuration(d.raw); err == nil {
			*d.target = parsed
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit.RPS != nil && *yamlCfg.RateLimit.RPS >= 0 {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}

	if yamlCfg.RateLimit.Burst != nil && *yamlCfg.RateLimit.Burst >= 0 {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}

	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	if yamlCfg.ItemsFile != "" {
		cfg.ItemsFile = yamlCfg.ItemsFile
	}

	if yamlCfg.ItemsSheet != "" {
		cfg.ItemsSheet = yamlCfg.ItemsSheet
	}

	if yamlCfg.MaxCapacity > 0 {
		cfg.MaxCapacity = yamlCfg.MaxCapacity
	}

	if len(yamlCfg.Containers) > 0 {
		if len(yamlCfg.Containers) != 2 {
			return fmt.Errorf("containers: expected exactly 2, got %d", len(yamlCfg.Containers))
		}
		cfg.Containers = [2]Container{yamlCfg.Containers[0], yamlCfg.Containers[1]}
	}

	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.LogLevel = level
	}

	if path := strings.TrimSpace(os.Getenv("ITEMS_FILE")); path != "" {
		cfg.ItemsFile = path
	}

	if limit := strings.TrimSpace(os.Getenv("MAX_CAPACITY")); limit != "" {
		if value, err := strconv.Atoi(limit); err == nil && value > 0 {
			cfg.MaxCapacity = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("CONTAINERS")); raw != "" {
		if containers, err := parseContainers(raw); err == nil {
			cfg.Containers = containers
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.ItemsFile != nil && *overrides.ItemsFile != "" {
		cfg.ItemsFile = *overrides.ItemsFile
	}

	if overrides.ItemsSheet != nil && *overrides.ItemsSheet != "" {
		cfg.ItemsSheet = *overrides.ItemsSheet
	}

	if overrides.ContainersStr != nil && *overrides.ContainersStr != "" {
		containers, err := parseContainers(*overrides.ContainersStr)
		if err != nil {
			return fmt.Errorf("parse containers: %w", err)
		}
		cfg.Containers = containers
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxCapacity <= 0 {
		return fmt.Errorf("max capacity must be positive")
	}
	combined := 0
	for _, c := range cfg.Containers {
		if c.Capacity <= 0 {
			return fmt.Errorf("container %q: capacity must be positive", c.Name)
		}
		if c.Tare < 0 || c.Tare > c.Capacity {
			return fmt.Errorf("container %q: tare must be between 0 and capacity", c.Name)
		}
		combined += c.Capacity - c.Tare
	}
	if combined > cfg.MaxCapacity {
		return fmt.Errorf("combined container capacity %d exceeds max capacity %d", combined, cfg.MaxCapacity)
	}
	return nil
}

// parseContainers parses "name:capacity:tare,name:capacity:tare". The tare
// segment is optional.
func parseContainers(raw string) ([2]Container, error) {
	var out [2]Container

	parts := strings.Split(raw, ",")
	if len(parts) != 2 {
		return out, fmt.Errorf("expected exactly 2 containers, got %d", len(parts))
	}

	for i, part := range parts {
		fields := strings.Split(strings.TrimSpace(part), ":")
		if len(fields) < 2 || len(fields) > 3 {
			return out, fmt.Errorf("invalid container %q, want name:capacity[:tare]", part)
		}

		capacity, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || capacity <= 0 {
			return out, fmt.Errorf("invalid capacity %q", fields[1])
		}

		tare := 0
		if len(fields) == 3 {
			tare, err = strconv.Atoi(strings.TrimSpace(fields[2]))
			if err != nil || tare < 0 {
				return out, fmt.Errorf("invalid tare %q", fields[2])
			}
		}

		out[i] = Container{
			Name:     strings.TrimSpace(fields[0]),
			Capacity: capacity,
			Tare:     tare,
		}
	}
	return out, nil
}
