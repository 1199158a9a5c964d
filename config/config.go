package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	appDir = ".pdfsum"

	defaultBaseURL       = "http://localhost:8089"
	defaultTimeout       = 30 * time.Second
	defaultUploadDelay   = 40 * time.Second
	defaultLogLevel      = "info"
	defaultMockAddr      = ":8089"
	defaultExtractDelay  = 5 * time.Second
	defaultSummarizeTime = 3 * time.Second
)

// Environment variables that override the file
const (
	EnvBaseURL   = "PDFSUM_API_BASE_URL"
	EnvToken     = "PDFSUM_TOKEN"
	EnvTokenFile = "PDFSUM_TOKEN_FILE"
	EnvLogLevel  = "PDFSUM_LOG_LEVEL"
)

// Config holds application configuration
type Config struct {
	API struct {
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"api"`
	Auth struct {
		Token     string `yaml:"token,omitempty"`
		TokenFile string `yaml:"token_file"`
	} `yaml:"auth"`
	Refresh struct {
		UploadDelay time.Duration `yaml:"upload_delay"`
	} `yaml:"refresh"`
	Log struct {
		File  string `yaml:"file"`
		Level string `yaml:"level"`
	} `yaml:"log"`
	Mock struct {
		Addr           string        `yaml:"addr"`
		Token          string        `yaml:"token,omitempty"`
		ExtractDelay   time.Duration `yaml:"extract_delay"`
		SummarizeDelay time.Duration `yaml:"summarize_delay"`
	} `yaml:"mock"`
}

// Dir is where config, token and log live by default
func Dir() string {
	return filepath.Join(os.Getenv("HOME"), appDir)
}

// Path is the default config file location
func Path() string {
	return filepath.Join(Dir(), "config.yaml")
}

// Load loads configuration from the default path, then applies .env and environment overrides
func Load() (*Config, error) {
	return LoadFrom(Path())
}

// LoadFrom loads configuration from path. A missing or empty file yields defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	// .env is optional; a missing file is the common case
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Save saves configuration to the default path
func (c *Config) Save() error {
	return c.SaveTo(Path())
}

// SaveTo writes the configuration to path. The file may hold a token, so it is private.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("api.base_url is required")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api.base_url: %q", c.API.BaseURL)
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("invalid api.timeout: %s (must be > 0)", c.API.Timeout)
	}
	if c.Refresh.UploadDelay <= 0 {
		return fmt.Errorf("invalid refresh.upload_delay: %s (must be > 0)", c.Refresh.UploadDelay)
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	if c.Mock.ExtractDelay < 0 || c.Mock.SummarizeDelay < 0 {
		return errors.New("mock delays must not be negative")
	}
	return nil
}

// LogLevel returns the parsed log level, falling back to info
func (c *Config) LogLevel() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Auth.Token = v
	}
	if v := os.Getenv(EnvTokenFile); v != "" {
		c.Auth.TokenFile = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) normalize() {
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	c.Auth.Token = strings.TrimSpace(c.Auth.Token)
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	if c.Log.Level == "" {
		c.Log.Level = defaultLogLevel
	}
	if c.Auth.TokenFile == "" {
		c.Auth.TokenFile = filepath.Join(Dir(), "token")
	}
	if c.Mock.Addr == "" {
		c.Mock.Addr = defaultMockAddr
	}
}

// Default returns default configuration
func Default() *Config {
	cfg := &Config{}

	cfg.API.BaseURL = defaultBaseURL
	cfg.API.Timeout = defaultTimeout
	cfg.Auth.TokenFile = filepath.Join(Dir(), "token")
	cfg.Refresh.UploadDelay = defaultUploadDelay
	cfg.Log.File = filepath.Join(Dir(), "pdfsum.log")
	cfg.Log.Level = defaultLogLevel
	cfg.Mock.Addr = defaultMockAddr
	cfg.Mock.ExtractDelay = defaultExtractDelay
	cfg.Mock.SummarizeDelay = defaultSummarizeTime

	return cfg
}
