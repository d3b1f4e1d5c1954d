package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kdimtricp/deepscan/internal/analysis"
	"github.com/kdimtricp/deepscan/internal/logger"
)

// DefaultPath is read when no config file is named and it exists.
const DefaultPath = "./deepscan.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type AnalysisConfig struct {
	Mode    string        `yaml:"mode"`     // stub|http
	BaseURL string        `yaml:"base_url"` // detection service, used in http mode
	Delay   time.Duration `yaml:"delay"`    // stub delay
	Timeout time.Duration `yaml:"timeout"`  // 0 disables
}

type StorageConfig struct {
	UploadDir string `yaml:"upload_dir"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // auto|text|json
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Analysis: AnalysisConfig{
			Mode:    analysis.ModeStub,
			BaseURL: analysis.DefaultBaseURL,
			Delay:   analysis.DefaultStubDelay,
		},
		Storage: StorageConfig{UploadDir: "./uploads"},
		Log:     LogConfig{Level: "info", Format: logger.FormatAuto},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (or DefaultPath if present), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultPath); err == nil {
			path = DefaultPath
		}
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	mappings := map[string]func(string) error{
		"PORT":              func(v string) error { c.Server.Port = v; return nil },
		"UPLOAD_DIR":        func(v string) error { c.Storage.UploadDir = v; return nil },
		"ANALYSIS_MODE":     func(v string) error { c.Analysis.Mode = v; return nil },
		"ANALYSIS_BASE_URL": func(v string) error { c.Analysis.BaseURL = v; return nil },
		"ANALYSIS_DELAY":    func(v string) error { return parseDuration(v, &c.Analysis.Delay) },
		"ANALYSIS_TIMEOUT":  func(v string) error { return parseDuration(v, &c.Analysis.Timeout) },
		"LOG_LEVEL":         func(v string) error { c.Log.Level = v; return nil },
		"LOG_FORMAT":        func(v string) error { c.Log.Format = v; return nil },
	}

	for key, apply := range mappings {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		if err := apply(v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	} else if _, err := strconv.ParseUint(c.Server.Port, 10, 16); err != nil {
		errs = append(errs, fmt.Errorf("invalid server port %q", c.Server.Port))
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, errors.New("upload directory is required"))
	}
	switch c.Analysis.Mode {
	case analysis.ModeStub:
	case analysis.ModeHTTP:
		if c.Analysis.BaseURL == "" {
			errs = append(errs, errors.New("analysis base URL is required in http mode"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown analysis mode %q", c.Analysis.Mode))
	}
	if c.Analysis.Delay < 0 || c.Analysis.Timeout < 0 {
		errs = append(errs, errors.New("analysis durations must not be negative"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// AnalysisClient returns the client settings for the analysis package.
func (c *Config) AnalysisClient() *analysis.Config {
	return &analysis.Config{
		Mode:    c.Analysis.Mode,
		BaseURL: c.Analysis.BaseURL,
		Delay:   c.Analysis.Delay,
		Timeout: c.Analysis.Timeout,
	}
}

func parseDuration(v string, out *time.Duration) error {
	d, err := time.ParseDuration(v)
	if err != nil {
		return err
	}
	*out = d
	return nil
}
