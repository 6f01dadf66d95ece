package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/resting/packages/core/runner"
	"github.com/abdul-hamid-achik/resting/packages/logger"
	"gopkg.in/yaml.v3"
)

// Config represents the resting configuration
type Config struct {
	Timeout         int               `yaml:"timeout,omitempty" json:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool             `yaml:"followRedirects,omitempty" json:"followRedirects,omitempty"`
	MaxRedirects    int               `yaml:"maxRedirects,omitempty" json:"maxRedirects,omitempty"`
	ValidateSSL     *bool             `yaml:"validateSSL,omitempty" json:"validateSSL,omitempty"`
	Proxy           string            `yaml:"proxy,omitempty" json:"proxy,omitempty"`
	Headers         map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	// Rate caps requests per second; zero disables the limit.
	Rate            float64           `yaml:"rate,omitempty" json:"rate,omitempty"`
	EnvFile         string            `yaml:"envFile,omitempty" json:"envFile,omitempty"`
	EnvPrefix       string            `yaml:"envPrefix,omitempty" json:"envPrefix,omitempty"`
	Output          string            `yaml:"output,omitempty" json:"output,omitempty"`
	Verbose         int               `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	NoColor         *bool             `yaml:"noColor,omitempty" json:"noColor,omitempty"`
	LogLevel        string            `yaml:"logLevel,omitempty" json:"logLevel,omitempty"`
	LogFormat       string            `yaml:"logFormat,omitempty" json:"logFormat,omitempty"`
	LogOutput       string            `yaml:"logOutput,omitempty" json:"logOutput,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// ConfigFilenames contains the possible config file names, in lookup order.
// JSON is valid YAML so every file goes through the same decoder.
var ConfigFilenames = []string{
	".resting.yaml",
	".resting.yml",
	".resting.json",
	"resting.yaml",
}

// LoadConfig loads configuration from the specified path or searches for
// config files in the working directory.
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	return DefaultConfig(), nil
}

func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c

	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.Rate > 0 {
		result.Rate = other.Rate
	}
	if other.EnvFile != "" {
		result.EnvFile = other.EnvFile
	}
	if other.EnvPrefix != "" {
		result.EnvPrefix = other.EnvPrefix
	}
	if other.Output != "" {
		result.Output = other.Output
	}
	if other.Verbose > 0 {
		result.Verbose = other.Verbose
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}
	if other.LogOutput != "" {
		result.LogOutput = other.LogOutput
	}

	// Boolean flags - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(c.Headers)+len(other.Headers))
		for k, v := range c.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// RunnerConfig converts the settings the runner needs.
func (c *Config) RunnerConfig() *runner.Config {
	return &runner.Config{
		Timeout:         time.Duration(c.Timeout) * time.Millisecond,
		FollowRedirects: c.GetFollowRedirects(),
		MaxRedirects:    c.MaxRedirects,
		ValidateSSL:     c.GetValidateSSL(),
		Proxy:           c.Proxy,
		Headers:         c.Headers,
		Rate:            c.Rate,
		EnvFile:         c.EnvFile,
		EnvPrefix:       c.EnvPrefix,
	}
}

// LoggerConfig converts the log settings.
func (c *Config) LoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.LogLevel != "" {
		cfg.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Format = c.LogFormat
	}
	if c.LogOutput != "" {
		cfg.Output = c.LogOutput
	}
	return cfg
}

// SaveConfig writes the configuration as YAML.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
