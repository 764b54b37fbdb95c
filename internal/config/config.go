// Package config handles configuration file loading and parsing for notid and notidd.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Client defaults.
const (
	DefaultFormat        = "plain"
	DefaultClientTimeout = 5 * time.Second

	DefaultDmenuTmpl = "{{.ID}} | {{.AppName}} | {{.Summary}} - {{.BodyTruncated 50}} | {{.RelativeTime}}"
	DefaultFullTmpl  = "[{{.ID}}] {{.Timestamp | formatTime}} {{urgencyIcon .Urgency}} {{.AppName}}: {{.Summary}}\n{{.PlainBody}}"
	DefaultBodyTmpl  = "{{.PlainBody}}"
)

// Formats lists the output formats notid understands.
var Formats = []string{"plain", "dmenu", "json", "jsonl", "yaml", "ids", "keys"}

// Config is the notid client configuration.
// Loaded from ~/.config/notid/config.toml
type Config struct {
	Daemon    ClientDaemonConfig `toml:"daemon"`
	Output    OutputConfig       `toml:"output"`
	List      ListConfig         `toml:"list"`
	Templates TemplatesConfig    `toml:"templates"`
}

// ClientDaemonConfig controls how notid reaches notidd.
type ClientDaemonConfig struct {
	Timeout Duration `toml:"timeout"` // Per-command deadline
}

// OutputConfig holds default output options.
type OutputConfig struct {
	Format string `toml:"format"` // plain, dmenu, json, jsonl, yaml, ids, keys
	Limit  int    `toml:"limit"`  // Max notifications listed (0 = unlimited)
}

// ListConfig holds defaults for notid list flags.
type ListConfig struct {
	Sort  string `toml:"sort"`  // timestamp, app, urgency, id
	Order string `toml:"order"` // asc, desc
	Since string `toml:"since"` // e.g. "1d"; empty lists everything
}

// TemplatesConfig holds named output templates. Custom entries shadow the built-in names.
type TemplatesConfig struct {
	Dmenu  string            `toml:"dmenu"`
	Full   string            `toml:"full"`
	Body   string            `toml:"body"`
	Custom map[string]string `toml:"custom"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Daemon: ClientDaemonConfig{
			Timeout: Duration(DefaultClientTimeout),
		},
		Output: OutputConfig{
			Format: DefaultFormat,
		},
		Templates: TemplatesConfig{
			Dmenu:  DefaultDmenuTmpl,
			Full:   DefaultFullTmpl,
			Body:   DefaultBodyTmpl,
			Custom: make(map[string]string),
		},
	}
}

// ConfigPath returns the path to the client config file, under XDG_CONFIG_HOME when set.
func ConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "notid", "config.toml")
}

// LoadConfig loads the client configuration from path, or from ConfigPath when path is
// empty. A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Templates.Custom == nil {
		cfg.Templates.Custom = make(map[string]string)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that would otherwise fail on every command.
func (c *Config) Validate() error {
	if c.Output.Format != "" && !slices.Contains(Formats, c.Output.Format) {
		return fmt.Errorf("output format must be one of %v, got %q", Formats, c.Output.Format)
	}
	if c.Output.Limit < 0 {
		return fmt.Errorf("output limit must not be negative, got %d", c.Output.Limit)
	}
	if c.Daemon.Timeout < 0 {
		return fmt.Errorf("daemon timeout must not be negative, got %s", c.Daemon.Timeout.Duration())
	}
	return nil
}

// Save writes the configuration to path, or to ConfigPath when path is empty.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// GetTemplate returns the named template, or "" when there is none.
func (c *Config) GetTemplate(name string) string {
	if tmpl, ok := c.Templates.Custom[name]; ok {
		return tmpl
	}

	switch name {
	case "dmenu":
		return c.Templates.Dmenu
	case "full":
		return c.Templates.Full
	case "body":
		return c.Templates.Body
	default:
		return ""
	}
}
