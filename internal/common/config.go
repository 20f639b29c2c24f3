package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig                 `toml:"server"`
	Content    ContentConfig                `toml:"content"`
	Search     SearchConfig                 `toml:"search"`
	Logging    LoggingConfig                `toml:"logging"`
	Categories map[string]map[string]string `toml:"categories"` // Extra/overriding category labels: locale -> segment -> label
}

type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ShutdownTimeout string `toml:"shutdown_timeout"` // e.g. "10s"
}

// ContentConfig describes the documentation tree on disk (content/docs/<locale>/...)
type ContentConfig struct {
	Dir            string   `toml:"dir"`             // Root of the per-locale trees (default: "content/docs")
	DefaultLocale  string   `toml:"default_locale"`  // Locale used when a request does not name one (default: "fr")
	FallbackLocale string   `toml:"fallback_locale"` // Category table used for unknown locales (default: "en")
	Extensions     []string `toml:"extensions"`      // Document extensions (default: [".md", ".mdx"])
	ExcerptLength  int      `toml:"excerpt_length"`  // Runes of body kept for content matching (default: 500)
}

// SearchConfig controls how the catalog builds and reuses indexes
type SearchConfig struct {
	Strategy   string `toml:"strategy"`    // "per_request" (default) or "cached"
	Timeout    string `toml:"timeout"`     // Upper bound for one build-and-score, e.g. "5s"
	MaxResults int    `toml:"max_results"` // Result cap (default: 10)
	Watch      bool   `toml:"watch"`       // Invalidate cached snapshots when the content tree changes
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
	File   string   `toml:"file"`   // Log file path when "file" output is enabled
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			ShutdownTimeout: "10s",
		},
		Content: ContentConfig{
			Dir:            "content/docs",
			DefaultLocale:  "fr",
			FallbackLocale: "en",
			Extensions:     []string{".md", ".mdx"},
			ExcerptLength:  500,
		},
		Search: SearchConfig{
			Strategy:   "per_request",
			Timeout:    "5s",
			MaxResults: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
			File:   "logs/docsearch.log",
		},
	}
}

// LoadFromFiles loads configuration from TOML files in order, later files overriding earlier ones.
// Environment variables are applied last.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies DOCSEARCH_* environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if host := os.Getenv("DOCSEARCH_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("DOCSEARCH_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if dir := os.Getenv("DOCSEARCH_CONTENT_DIR"); dir != "" {
		config.Content.Dir = dir
	}
	if locale := os.Getenv("DOCSEARCH_DEFAULT_LOCALE"); locale != "" {
		config.Content.DefaultLocale = locale
	}

	if strategy := os.Getenv("DOCSEARCH_SEARCH_STRATEGY"); strategy != "" {
		config.Search.Strategy = strategy
	}
	if timeout := os.Getenv("DOCSEARCH_SEARCH_TIMEOUT"); timeout != "" {
		config.Search.Timeout = timeout
	}
	if watch := os.Getenv("DOCSEARCH_SEARCH_WATCH"); watch != "" {
		if b, err := strconv.ParseBool(watch); err == nil {
			config.Search.Watch = b
		}
	}

	if level := os.Getenv("DOCSEARCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("DOCSEARCH_LOG_OUTPUT"); output != "" {
		var outputs []string
		for _, o := range strings.Split(output, ",") {
			if o = strings.TrimSpace(o); o != "" {
				outputs = append(outputs, o)
			}
		}
		config.Logging.Output = outputs
	}
}

// ApplyFlagOverrides applies command line flags (highest priority). Zero values are ignored.
func ApplyFlagOverrides(config *Config, port int, host string, contentDir string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if contentDir != "" {
		config.Content.Dir = contentDir
	}
}

// Validate checks values that would otherwise fail much later at request time
func (c *Config) Validate() error {
	switch c.Search.Strategy {
	case "per_request", "cached":
	default:
		return fmt.Errorf("invalid search strategy %q: must be \"per_request\" or \"cached\"", c.Search.Strategy)
	}

	if _, err := c.SearchTimeout(); err != nil {
		return err
	}
	if _, err := c.ShutdownTimeout(); err != nil {
		return err
	}

	if c.Search.MaxResults <= 0 {
		return fmt.Errorf("search.max_results must be positive, got %d", c.Search.MaxResults)
	}
	if c.Content.ExcerptLength <= 0 {
		return fmt.Errorf("content.excerpt_length must be positive, got %d", c.Content.ExcerptLength)
	}
	if c.Content.DefaultLocale == "" {
		return fmt.Errorf("content.default_locale must not be empty")
	}

	return nil
}

// SearchTimeout returns the parsed search timeout. An empty value disables the timeout.
func (c *Config) SearchTimeout() (time.Duration, error) {
	if c.Search.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Search.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid search.timeout %q: %w", c.Search.Timeout, err)
	}
	return d, nil
}

// ShutdownTimeout returns the parsed server shutdown timeout (default 10s when empty).
func (c *Config) ShutdownTimeout() (time.Duration, error) {
	if c.Server.ShutdownTimeout == "" {
		return 10 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid server.shutdown_timeout %q: %w", c.Server.ShutdownTimeout, err)
	}
	return d, nil
}

// Address returns host:port for the HTTP listener
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
