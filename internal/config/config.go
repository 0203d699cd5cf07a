package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/milhonews/milho/internal/types"
)

// Theme names understood by the page renderer
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// Config holds all application configuration
type Config struct {
	Version  int             `toml:"version"`
	Server   ServerConfig    `toml:"server"`
	Upstream UpstreamConfig  `toml:"upstream"`
	Sections []types.Section `toml:"sections"`
	KeepWarm KeepWarmConfig  `toml:"keepwarm"`
	Log      LogConfig       `toml:"log"`
}

type ServerConfig struct {
	Addr         string `toml:"addr"`
	BaseURL      string `toml:"base_url"`
	SiteTitle    string `toml:"site_title"`
	DefaultTheme string `toml:"default_theme"`
}

type UpstreamConfig struct {
	PostsBaseURL   string   `toml:"posts_base_url"`
	SummaryBaseURL string   `toml:"summary_base_url"`
	SummaryPath    string   `toml:"summary_path"`
	Timeout        Duration `toml:"timeout"`
}

type KeepWarmConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"`
	Timezone string `toml:"timezone"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// Duration is a time.Duration that reads and writes as "15s" in TOML
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns a Config with sensible defaults
func Default() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:         ":8080",
			BaseURL:      "http://localhost:8080",
			SiteTitle:    "Milho News",
			DefaultTheme: ThemeLight,
		},
		Upstream: UpstreamConfig{
			PostsBaseURL:   "https://milharal-news.onrender.com",
			SummaryBaseURL: "https://clientgemini.onrender.com",
			SummaryPath:    "/summarize_posts",
			Timeout:        Duration{20 * time.Second},
		},
		Sections: []types.Section{
			{Name: "news", Title: "News", Path: "/service/RelevantPotopsts", Summary: true},
			{Name: "opensource", Title: "Open Source", Path: "/post/github"},
		},
		KeepWarm: KeepWarmConfig{
			Enabled:  true,
			Schedule: "*/10 * * * *",
			Timezone: "America/Sao_Paulo",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ConfigDir returns the platform-appropriate config directory
func ConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "milho"), nil
}

// ConfigPath returns the full path to the config file.
// MILHO_CONFIG overrides the platform default.
func ConfigPath() (string, error) {
	if p := os.Getenv("MILHO_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from the default path and applies environment overrides
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads config from path. Keys missing from the file keep their defaults.
// A [[sections]] list in the file replaces the default sections entirely.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	cfg.Sections = nil
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if !md.IsDefined("sections") {
		cfg.Sections = Default().Sections
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns defaults with environment overrides, for runs without a config file
func FromEnv() (*Config, error) {
	cfg := Default()
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("MILHO_ADDR", c.Server.Addr)
	c.Server.BaseURL = getEnv("MILHO_BASE_URL", c.Server.BaseURL)
	c.Upstream.PostsBaseURL = getEnv("MILHO_POSTS_URL", c.Upstream.PostsBaseURL)
	c.Upstream.SummaryBaseURL = getEnv("MILHO_SUMMARY_URL", c.Upstream.SummaryBaseURL)
	c.Log.Level = getEnv("MILHO_LOG_LEVEL", c.Log.Level)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	for _, raw := range []string{c.Upstream.PostsBaseURL, c.Upstream.SummaryBaseURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("invalid upstream url %q", raw)
		}
	}
	if c.Upstream.Timeout.Duration < 0 {
		return errors.New("upstream.timeout must not be negative")
	}
	switch c.Server.DefaultTheme {
	case ThemeLight, ThemeDark:
	default:
		return fmt.Errorf("server.default_theme must be %q or %q", ThemeLight, ThemeDark)
	}
	if len(c.Sections) == 0 {
		return errors.New("at least one section is required")
	}
	seen := make(map[string]bool, len(c.Sections))
	for _, s := range c.Sections {
		if s.Name == "" || s.Path == "" {
			return errors.New("sections need a name and a path")
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate section %q", s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}

// Save writes config to the default path
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveFile(path)
}

// SaveFile writes config to path, creating the parent directory
func (c *Config) SaveFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// getEnv retrieves an environment variable or returns a fallback value
func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}
