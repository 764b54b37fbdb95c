package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "5s", "250ms", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '5s', '250ms', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// Daemon defaults.
const (
	DefaultMaxNotifications = 50
	DefaultTimeout          = 5 * time.Second
	DefaultMaxVisible       = 3
	DefaultPopupDuration    = 5 * time.Second
	DefaultAnimation        = 250 * time.Millisecond
	DefaultEntryHeight      = 80
	DefaultPadding          = 16
	DefaultInternalInterval = 5 * time.Second

	MaxNotificationsLimit = 1000
	MaxVisibleLimit       = 20
	MaxAnimation          = 5 * time.Second
)

// DaemonConfig is the configuration for notidd.
// Loaded from ~/.config/notid/notidd.toml
type DaemonConfig struct {
	Notifications NotificationsConfig `toml:"notifications"`
	Popup         PopupConfig         `toml:"popup"`
	Internal      InternalConfig      `toml:"internal"`
}

// NotificationsConfig controls the retained list and expiry.
type NotificationsConfig struct {
	MaxNotifications int      `toml:"max_notifications"` // Retained list bound
	DefaultTimeout   Duration `toml:"default_timeout"`   // Used when a client asks for the server default
}

// PopupConfig controls transient popups.
type PopupConfig struct {
	Enabled     bool     `toml:"enabled"`
	MaxVisible  int      `toml:"max_visible"`  // Popups shown before the oldest is pushed out
	Duration    Duration `toml:"duration"`     // Time fully shown
	Animation   Duration `toml:"animation"`    // Slide in and slide out time
	EntryHeight int      `toml:"entry_height"` // Pixels per popup
	Padding     int      `toml:"padding"`      // Pixels added to the surface height
}

// InternalConfig controls notifications raised by notidd itself.
type InternalConfig struct {
	Enabled  bool     `toml:"enabled"`
	Startup  bool     `toml:"startup"`  // Announce each new bus connection
	Interval Duration `toml:"interval"` // Minimum gap between notices of one kind
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Notifications: NotificationsConfig{
			MaxNotifications: DefaultMaxNotifications,
			DefaultTimeout:   Duration(DefaultTimeout),
		},
		Popup: PopupConfig{
			Enabled:     true,
			MaxVisible:  DefaultMaxVisible,
			Duration:    Duration(DefaultPopupDuration),
			Animation:   Duration(DefaultAnimation),
			EntryHeight: DefaultEntryHeight,
			Padding:     DefaultPadding,
		},
		Internal: InternalConfig{
			Enabled:  true,
			Interval: Duration(DefaultInternalInterval),
		},
	}
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "notid", "notidd.toml"), nil
}

// LoadDaemonConfig loads the daemon configuration from path, or from the default
// location when path is empty. A missing file yields the defaults.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		var err error
		path, err = DaemonConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDaemonConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseDaemonConfig(data)
}

// ParseDaemonConfig overlays TOML data on the defaults and validates the result.
func ParseDaemonConfig(data []byte) (*DaemonConfig, error) {
	config := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// SaveDaemonConfig writes config to path, creating parent directories.
func SaveDaemonConfig(path string, config *DaemonConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *DaemonConfig) Validate() error {
	n := c.Notifications
	if n.MaxNotifications < 1 || n.MaxNotifications > MaxNotificationsLimit {
		return fmt.Errorf("max_notifications must be between 1 and %d, got %d", MaxNotificationsLimit, n.MaxNotifications)
	}
	if n.DefaultTimeout < 0 {
		return fmt.Errorf("default_timeout must not be negative, got %s", n.DefaultTimeout.Duration())
	}

	p := c.Popup
	if p.MaxVisible < 1 || p.MaxVisible > MaxVisibleLimit {
		return fmt.Errorf("max_visible must be between 1 and %d, got %d", MaxVisibleLimit, p.MaxVisible)
	}
	if p.Duration < 0 {
		return fmt.Errorf("duration must not be negative, got %s", p.Duration.Duration())
	}
	if p.Animation <= 0 || p.Animation.Duration() > MaxAnimation {
		return fmt.Errorf("animation must be greater than 0 and at most %s, got %s", MaxAnimation, p.Animation.Duration())
	}
	if p.EntryHeight <= 0 {
		return fmt.Errorf("entry_height must be positive, got %d", p.EntryHeight)
	}
	if p.Padding < 0 {
		return fmt.Errorf("padding must not be negative, got %d", p.Padding)
	}

	if c.Internal.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", c.Internal.Interval.Duration())
	}

	return nil
}
