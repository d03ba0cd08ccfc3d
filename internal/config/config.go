// Package config holds all folio configuration. Configuration lives in
// .folio/config.yaml under the site root; environment variables override
// a small set of fields for CI use.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all folio configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Site layout on disk and on the web
	Site SiteConfig `yaml:"site"`

	// Build pipeline settings
	Build BuildConfig `yaml:"build"`

	// Essays feed pipeline
	Feed FeedConfig `yaml:"feed"`

	// Publications pipeline
	Bib BibConfig `yaml:"bib"`

	// Dev server
	Serve ServeConfig `yaml:"serve"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// SiteConfig describes where content lives and where the site is rooted.
type SiteConfig struct {
	BaseURL    string `yaml:"base_url"`
	ContentDir string `yaml:"content_dir"`
	AssetsDir  string `yaml:"assets_dir"`
	LayoutsDir string `yaml:"layouts_dir"` // optional; embedded layouts used when empty
	OutputDir  string `yaml:"output_dir"`
}

// BuildConfig configures the page builder.
type BuildConfig struct {
	Workers      int    `yaml:"workers"`
	Incremental  bool   `yaml:"incremental"`
	DatabasePath string `yaml:"database_path"`
}

// FeedConfig configures the essays feed updater.
type FeedConfig struct {
	URL          string `yaml:"url"`
	TargetPage   string `yaml:"target_page"` // content file carrying the marker region
	ThumbnailCDN string `yaml:"thumbnail_cdn"`
	Timeout      string `yaml:"timeout"`
	FetchDelay   string `yaml:"fetch_delay"` // politeness delay between per-post fetches
	UserAgent    string `yaml:"user_agent"`
}

// BibConfig configures the publications pipeline.
type BibConfig struct {
	Path         string `yaml:"path"`
	FragmentPath string `yaml:"fragment_path"`

	// HighlightAuthor is the site owner's name; it is collapsed to
	// highlighted initials in rendered author lists when set.
	HighlightAuthor string `yaml:"highlight_author"`
}

// ServeConfig configures the dev server.
type ServeConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Level      string          `yaml:"level"`  // debug, info, warn, error
	Format     string          `yaml:"format"` // json, text
	Categories map[string]bool `yaml:"categories,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "folio",
		Version: "0.3.0",

		Site: SiteConfig{
			BaseURL:    "",
			ContentDir: "content",
			AssetsDir:  "assets",
			OutputDir:  "_site",
		},

		Build: BuildConfig{
			Workers:      4,
			Incremental:  true,
			DatabasePath: filepath.Join(".folio", "folio.db"),
		},

		Feed: FeedConfig{
			ThumbnailCDN: "https://substackcdn.com/image/fetch/w_320,h_213,c_fill,f_auto,q_auto:good,fl_progressive:steep,g_center/",
			TargetPage:   "essays.html",
			Timeout:      "10s",
			FetchDelay:   "300ms",
			UserAgent:    "Mozilla/5.0",
		},

		Bib: BibConfig{
			Path:         "papers.bib",
			FragmentPath: filepath.Join("_includes", "publications.html"),
		},

		Serve: ServeConfig{
			Addr: "localhost:4000",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides lets CI override the paths and feed URL without
// editing the config file.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("FOLIO_CONTENT_DIR"); v != "" {
		c.Site.ContentDir = v
	}
	if v := os.Getenv("FOLIO_OUTPUT_DIR"); v != "" {
		c.Site.OutputDir = v
	}
	if v := os.Getenv("FOLIO_BASE_URL"); v != "" {
		c.Site.BaseURL = v
	}
	if v := os.Getenv("FOLIO_FEED_URL"); v != "" {
		c.Feed.URL = v
	}
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if c.Site.ContentDir == "" {
		return fmt.Errorf("site.content_dir must not be empty")
	}
	if c.Site.OutputDir == "" {
		return fmt.Errorf("site.output_dir must not be empty")
	}
	if c.Site.ContentDir == c.Site.OutputDir {
		return fmt.Errorf("site.output_dir must differ from site.content_dir")
	}
	if c.Build.Workers < 1 {
		return fmt.Errorf("build.workers must be at least 1, got %d", c.Build.Workers)
	}
	return nil
}

// DefaultPath returns the conventional config location under root.
func DefaultPath(root string) string {
	return filepath.Join(root, ".folio", "config.yaml")
}
