package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tanq16/guardl/internal/downloader"
	"github.com/tanq16/guardl/internal/utils"
)

// Config holds CLI defaults. Flags explicitly set on the command line
// take precedence over values loaded from a file.
type Config struct {
	Timeout   time.Duration
	MaxSize   int64
	Retries   int
	Backoff   time.Duration
	LimitRate int64
	UserAgent string
	Headers   map[string]string
	Workers   int
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		Timeout:   downloader.DefaultTimeout,
		MaxSize:   downloader.DefaultMaxSizeBytes,
		Retries:   downloader.DefaultMaxRetries,
		Backoff:   downloader.DefaultBackoff,
		UserAgent: utils.ToolUserAgent,
		Headers:   map[string]string{},
		Workers:   4,
	}
}

// yamlConfig keeps sizes and durations as strings so the file can say
// "2GiB" and "1.5s".
type yamlConfig struct {
	Timeout   string            `yaml:"timeout"`
	MaxSize   string            `yaml:"max_size"`
	Retries   *int              `yaml:"retries"`
	Backoff   string            `yaml:"backoff"`
	LimitRate string            `yaml:"limit_rate"`
	UserAgent string            `yaml:"user_agent"`
	Headers   map[string]string `yaml:"headers"`
	Workers   int               `yaml:"workers"`
}

// DefaultPath is $HOME/.config/guardl/config.yaml, or "" without a home.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "guardl", "config.yaml")
}

// Load reads path when it is set. A missing file at the default path is
// not an error; a missing explicitly requested file is.
func Load(path string, explicit bool) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	cfg, err := LoadFromFile(path)
	if err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()
	if yc.Timeout != "" {
		d, err := time.ParseDuration(yc.Timeout)
		if err != nil {
			return Config{}, fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if yc.MaxSize != "" {
		n, err := utils.ParseBytes(yc.MaxSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse max_size: %w", err)
		}
		cfg.MaxSize = n
	}
	if yc.Retries != nil {
		cfg.Retries = *yc.Retries
	}
	if yc.Backoff != "" {
		d, err := time.ParseDuration(yc.Backoff)
		if err != nil {
			return Config{}, fmt.Errorf("parse backoff: %w", err)
		}
		cfg.Backoff = d
	}
	if yc.LimitRate != "" {
		n, err := utils.ParseBytes(yc.LimitRate)
		if err != nil {
			return Config{}, fmt.Errorf("parse limit_rate: %w", err)
		}
		cfg.LimitRate = n
	}
	if yc.UserAgent != "" {
		cfg.UserAgent = yc.UserAgent
	}
	for k, v := range yc.Headers {
		cfg.Headers[k] = v
	}
	if yc.Workers != 0 {
		cfg.Workers = yc.Workers
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, errors.New("timeout must not be negative"))
	}
	if c.MaxSize <= 0 {
		errs = append(errs, errors.New("max_size must be positive"))
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if c.Backoff < 0 {
		errs = append(errs, errors.New("backoff must not be negative"))
	}
	if c.LimitRate < 0 {
		errs = append(errs, errors.New("limit_rate must not be negative"))
	}
	if c.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	return errors.Join(errs...)
}

// RequestOptions maps the config onto downloader request options.
func (c Config) RequestOptions() []downloader.RequestOption {
	return []downloader.RequestOption{
		downloader.WithTimeout(c.Timeout),
		downloader.WithMaxSize(c.MaxSize),
		downloader.WithMaxRetries(c.Retries),
		downloader.WithBackoff(c.Backoff),
		downloader.WithRateLimit(c.LimitRate),
	}
}

func (c Config) HTTPClientConfig() utils.HTTPClientConfig {
	return utils.HTTPClientConfig{
		UserAgent: c.UserAgent,
		Headers:   c.Headers,
	}
}
