package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the analysis service
type Config struct {
	General    GeneralConfig    `mapstructure:"general"`
	Server     ServerConfig     `mapstructure:"server"`
	Renderer   RendererConfig   `mapstructure:"renderer"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// Address returns the listen address in host:port form.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", s.Port)
	}
	return nil
}

// RendererConfig selects and tunes the page renderer.
type RendererConfig struct {
	Type              string        `mapstructure:"type"` // chromedp or static
	UserAgent         string        `mapstructure:"user_agent"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	Headless          bool          `mapstructure:"headless"`
	NoSandbox         bool          `mapstructure:"no_sandbox"`
	ExecPath          string        `mapstructure:"exec_path"`
}

// Normalize applies defaults for unset renderer values.
func (r RendererConfig) Normalize() RendererConfig {
	r.Type = strings.ToLower(strings.TrimSpace(r.Type))
	if r.Type == "" {
		r.Type = "chromedp"
	}
	if strings.TrimSpace(r.UserAgent) == "" {
		r.UserAgent = "Mozilla/5.0"
	}
	if r.NavigationTimeout <= 0 {
		r.NavigationTimeout = 60 * time.Second
	}
	return r
}

func (r RendererConfig) Validate() error {
	switch r.Type {
	case "chromedp", "static":
	default:
		return fmt.Errorf("renderer.type must be chromedp or static, got %q", r.Type)
	}
	return nil
}

// ExtractionConfig tunes progressive revealing and strategy selection.
type ExtractionConfig struct {
	ScrollPause    time.Duration `mapstructure:"scroll_pause"`
	MaxScrollSteps int           `mapstructure:"max_scroll_steps"`
	SitePatterns   []string      `mapstructure:"site_patterns"`
}

// Normalize applies defaults and cleans site patterns.
func (e ExtractionConfig) Normalize() ExtractionConfig {
	if e.ScrollPause <= 0 {
		e.ScrollPause = 1500 * time.Millisecond
	}
	if e.MaxScrollSteps <= 0 {
		e.MaxScrollSteps = 30
	}
	e.SitePatterns = sanitizeHostList(e.SitePatterns)
	return e
}

func (e ExtractionConfig) Validate() error {
	if e.MaxScrollSteps > 1000 {
		return fmt.Errorf("extraction.max_scroll_steps must be <= 1000")
	}
	return nil
}

// ClassifierConfig points at the text-classification inference endpoint.
type ClassifierConfig struct {
	Endpoint  string        `mapstructure:"endpoint"`
	Model     string        `mapstructure:"model"`
	APIToken  string        `mapstructure:"api_token"`
	BatchSize int           `mapstructure:"batch_size"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// Normalize applies defaults for unset classifier values.
func (c ClassifierConfig) Normalize() ClassifierConfig {
	c.Endpoint = strings.TrimRight(strings.TrimSpace(c.Endpoint), "/")
	if strings.TrimSpace(c.Model) == "" {
		c.Model = "unitary/toxic-bert"
	}
	if c.Endpoint == "" {
		c.Endpoint = "https://api-inference.huggingface.co/models/" + c.Model
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	return c
}

func (c ClassifierConfig) Validate() error {
	if !strings.HasPrefix(c.Endpoint, "http://") && !strings.HasPrefix(c.Endpoint, "https://") {
		return fmt.Errorf("classifier.endpoint must be an http(s) url, got %q", c.Endpoint)
	}
	return nil
}

// TelemetryConfig contains metrics settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// Normalize applies defaults for unset telemetry values.
func (t TelemetryConfig) Normalize() TelemetryConfig {
	if strings.TrimSpace(t.MetricsPath) == "" {
		t.MetricsPath = "/metrics"
	}
	if !strings.HasPrefix(t.MetricsPath, "/") {
		t.MetricsPath = "/" + t.MetricsPath
	}
	return t
}

// Normalize applies defaults to every section.
func (c Config) Normalize() Config {
	if strings.TrimSpace(c.General.LogLevel) == "" {
		c.General.LogLevel = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 5000
	}
	c.Renderer = c.Renderer.Normalize()
	c.Extraction = c.Extraction.Normalize()
	c.Classifier = c.Classifier.Normalize()
	c.Telemetry = c.Telemetry.Normalize()
	return c
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if err := c.Renderer.Validate(); err != nil {
		return err
	}
	if err := c.Extraction.Validate(); err != nil {
		return err
	}
	return c.Classifier.Validate()
}

// Default returns a normalized configuration without reading any file.
func Default() *Config {
	cfg := Config{
		Server:     ServerConfig{Host: "0.0.0.0", Port: 5000},
		Renderer:   RendererConfig{Headless: true, NoSandbox: true},
		Extraction: ExtractionConfig{SitePatterns: DefaultSitePatterns},
		Telemetry:  TelemetryConfig{Enabled: true},
	}
	cfg = cfg.Normalize()
	return &cfg
}

// LoadConfig loads config from file and environment. A missing config file
// is not an error; defaults and TOXSCORE_* variables apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.SetDefault("general.log_level", "info")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("renderer.type", "chromedp")
	v.SetDefault("renderer.user_agent", "Mozilla/5.0")
	v.SetDefault("renderer.navigation_timeout", "60s")
	v.SetDefault("renderer.headless", true)
	v.SetDefault("renderer.no_sandbox", true)
	v.SetDefault("extraction.scroll_pause", "1500ms")
	v.SetDefault("extraction.max_scroll_steps", 30)
	v.SetDefault("extraction.site_patterns", DefaultSitePatterns)
	v.SetDefault("classifier.model", "unitary/toxic-bert")
	v.SetDefault("classifier.batch_size", 4)
	v.SetDefault("classifier.timeout", "60s")
	v.SetDefault("telemetry.enabled", true)
	v.SetDefault("telemetry.metrics_path", "/metrics")

	if path == "" {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		v.AddConfigPath(exeDir)
		v.AddConfigPath(filepath.Join(exeDir, "..", "config"))
	} else {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("TOXSCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// hosting platforms hand the listening port over as plain PORT
	if err := v.BindEnv("server.port", "TOXSCORE_SERVER_PORT", "PORT"); err != nil {
		return nil, fmt.Errorf("bind port env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg = cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
