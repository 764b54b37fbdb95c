package daemon

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jmylchreest/notid/internal/config"
)

// DefaultReloadDebounce groups the burst of events an editor produces on save.
const DefaultReloadDebounce = 100 * time.Millisecond

// ReloadHandler receives the outcome of every config file change.
type ReloadHandler interface {
	ConfigReloaded(cfg *config.DaemonConfig)
	ConfigFailed(err error)
}

// ConfigWatcher reloads the daemon config file when it changes on disk. A file that
// fails to parse or validate leaves the current config in place.
type ConfigWatcher struct {
	path     string
	handler  ReloadHandler
	logger   *slog.Logger
	debounce time.Duration

	mu      sync.RWMutex
	current *config.DaemonConfig
	applied []byte
	fsw     *fsnotify.Watcher
}

// NewConfigWatcher creates a watcher for the config at path, or the default location when
// path is empty. current is the config the daemon started with.
func NewConfigWatcher(path string, current *config.DaemonConfig, handler ReloadHandler, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		var err error
		if path, err = config.DaemonConfigPath(); err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
	}
	if current == nil {
		current = config.DefaultDaemonConfig()
	}

	// Unreadable is the same as empty here; the first real write still differs.
	applied, _ := os.ReadFile(path)

	return &ConfigWatcher{
		path:     path,
		handler:  handler,
		logger:   logger,
		debounce: DefaultReloadDebounce,
		current:  current,
		applied:  applied,
	}, nil
}

// Path returns the watched file.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// SetDebounce sets how long to wait for the events of one save to settle. Call it before Run.
func (w *ConfigWatcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Current returns the config most recently applied.
func (w *ConfigWatcher) Current() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Open starts watching the directory holding the config file, creating it if needed.
// Watching the directory catches editors that save by renaming a temp file into place.
// Run calls Open when it has not been called.
func (w *ConfigWatcher) Open() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw != nil {
		return nil
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	w.fsw = fsw
	w.logger.Debug("watching config", "path", w.path)
	return nil
}

// Run reloads the config on every settled change until ctx ends. The watch is closed on
// return, after which Run may be called again.
func (w *ConfigWatcher) Run(ctx context.Context) error {
	if err := w.Open(); err != nil {
		return err
	}

	w.mu.Lock()
	fsw := w.fsw
	w.mu.Unlock()
	defer func() {
		w.mu.Lock()
		w.fsw = nil
		w.mu.Unlock()
		_ = fsw.Close()
	}()

	name := filepath.Base(w.path)
	var settle <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) == name && (event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				settle = time.After(w.debounce)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("config watch error", "error", err)

		case <-settle:
			settle = nil
			w.reload()
		}
	}
}

func (w *ConfigWatcher) reload() {
	data, err := os.ReadFile(w.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Renamed away mid-save; the Create of the replacement follows.
		return
	case err != nil:
		w.fail(fmt.Errorf("failed to read config file: %w", err))
		return
	}

	w.mu.RLock()
	unchanged := bytes.Equal(data, w.applied)
	w.mu.RUnlock()
	if unchanged {
		w.logger.Debug("config file touched without changes", "path", w.path)
		return
	}

	cfg, err := config.ParseDaemonConfig(data)
	if err != nil {
		w.fail(err)
		return
	}

	w.mu.Lock()
	w.current = cfg
	w.applied = data
	w.mu.Unlock()

	w.logger.Info("config reloaded", "path", w.path)
	if w.handler != nil {
		w.handler.ConfigReloaded(cfg)
	}
}

func (w *ConfigWatcher) fail(err error) {
	w.logger.Warn("config change rejected, keeping previous config", "path", w.path, "error", err)
	if w.handler != nil {
		w.handler.ConfigFailed(err)
	}
}
