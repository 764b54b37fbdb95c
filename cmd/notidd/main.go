// Package main is the entry point for the notidd notification daemon.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/notid/internal/config"
	"github.com/jmylchreest/notid/internal/daemon"
	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/service"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

var opts struct {
	verbose        bool
	configPath     string
	reconnect      bool
	reconnectDelay time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "notidd",
	Short: "Desktop notification daemon",
	Long: `notidd owns org.freedesktop.Notifications on the session bus.

It retains recent notifications, expires them, shows popups and answers
the notid control interface. The configuration file is reloaded when it
changes.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runDaemon,
}

func init() {
	rootCmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.Flags().StringVar(&opts.configPath, "config", "",
		"Path to config file (default: ~/.config/notid/notidd.toml)")
	rootCmd.Flags().BoolVar(&opts.reconnect, "reconnect", false,
		"Start a new connection after the bus connection fails instead of exiting")
	rootCmd.Flags().DurationVar(&opts.reconnectDelay, "reconnect-delay", 2*time.Second,
		"Delay before reconnecting")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogger configures the global slog logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

func runDaemon(cmd *cobra.Command, args []string) error {
	logger := setupLogger()
	logger.Info("starting notidd", "version", version)

	cfg, err := config.LoadDaemonConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	notifier := daemon.NewInternalNotifier(logger)
	notifier.SetEnabled(cfg.Internal.Enabled)
	notifier.SetMinInterval(cfg.Internal.Interval.Duration())

	hostOpts := daemon.OptionsFromConfig(cfg)
	hostOpts.Version = version
	host := daemon.NewHost(hostOpts, notifier, logger)
	host.SetRenderCallback(newSurfaceLogger(logger).frame)

	watcher, err := daemon.NewConfigWatcher(opts.configPath, cfg, host, logger)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := watcher.Run(ctx); err != nil {
			// The daemon works without hot reload.
			logger.Warn("config hot reload disabled", "path", watcher.Path(), "error", err)
		}
		return nil
	})
	g.Go(func() error {
		return serve(ctx, host, watcher, logger)
	})

	err = g.Wait()
	logger.Info("notidd stopped")
	return err
}

// serve runs subscriptions until ctx ends. Without --reconnect the first failure is fatal.
func serve(ctx context.Context, host *daemon.Host, watcher *daemon.ConfigWatcher, logger *slog.Logger) error {
	for {
		err := runSubscription(ctx, host, watcher.Current(), logger)
		if err == nil || ctx.Err() != nil {
			return nil
		}
		if !opts.reconnect {
			return err
		}

		logger.Warn("notification service failed, reconnecting", "error", err, "delay", opts.reconnectDelay)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(opts.reconnectDelay):
		}
	}
}

// runSubscription serves one bus connection and returns its terminal error.
func runSubscription(ctx context.Context, host *daemon.Host, cfg *config.DaemonConfig, logger *slog.Logger) error {
	sub := service.NewSubscription(service.Config{
		Daemon: dbus.DaemonConfig{
			DefaultTimeout: cfg.Notifications.DefaultTimeout.Duration(),
			ServerInfo:     dbus.DefaultServerInfo(version),
		},
		MaxNotifications: cfg.Notifications.MaxNotifications,
		Control:          host,
	}, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sub.Run(ctx) })
	g.Go(func() error { return host.Run(ctx, sub.Messages()) })
	return g.Wait()
}
