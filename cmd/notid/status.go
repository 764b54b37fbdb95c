package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/model"
)

var statusOpts struct {
	waybar bool
	follow bool
}

// followRefresh re-queries in follow mode even without announcements, which keeps
// relative times fresh and picks up a restarted daemon.
const followRefresh = 30 * time.Second

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text       string `json:"text"`
	Alt        string `json:"alt,omitempty"`
	Tooltip    string `json:"tooltip,omitempty"`
	Class      string `json:"class,omitempty"`
	Percentage int    `json:"percentage,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long: `Show the daemon status: retained and unread counts, menu and popup state.

With --waybar the output is Waybar's custom module JSON format:

  "custom/notifications": {
    "exec": "notid status --waybar --follow",
    "return-type": "json",
    "on-click": "notid menu open"
  }

With --follow, notid keeps running and prints a new status every time the
daemon announces a change.`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusOpts.waybar, "waybar", false,
		"Output Waybar-compatible JSON")
	statusCmd.Flags().BoolVarP(&statusOpts.follow, "follow", "f", false,
		"Keep running and print the status after every change")
}

// statusSnapshot is what one status query returns.
type statusSnapshot struct {
	status        dbus.Status
	notifications []model.Notification
}

func runStatus(cmd *cobra.Command, args []string) error {
	if statusOpts.follow {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return followStatus(ctx, os.Stdout)
	}

	var snap statusSnapshot
	err := withClient(func(ctx context.Context, client *dbus.Client) error {
		var err error
		snap, err = queryStatus(ctx, client)
		return err
	})
	return writeStatus(os.Stdout, snap, err)
}

func queryStatus(ctx context.Context, client *dbus.Client) (statusSnapshot, error) {
	status, err := client.Status(ctx)
	if err != nil {
		return statusSnapshot{}, err
	}
	notifications, err := client.List(ctx)
	if err != nil {
		return statusSnapshot{}, err
	}
	return statusSnapshot{status: status, notifications: notifications}, nil
}

// writeStatus prints a snapshot, or the query error. Waybar output turns the error into
// an error state so the bar module keeps rendering.
func writeStatus(w io.Writer, snap statusSnapshot, err error) error {
	if statusOpts.waybar {
		if err != nil {
			logger.Debug("daemon unavailable", "error", err)
			return outputWaybar(w, WaybarStatus{Alt: "error", Class: "error", Tooltip: "notidd is not running"})
		}
		return outputWaybar(w, waybarStatus(snap.status, snap.notifications))
	}
	if err != nil {
		return err
	}
	return printStatus(w, snap.status, snap.notifications)
}

// followStatus prints the status now and again after every announced change until ctx ends.
func followStatus(ctx context.Context, w io.Writer) error {
	client, err := dbus.NewClient()
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Debug("failed to close bus connection", "error", err)
		}
	}()

	changes, err := client.Changes(ctx)
	if err != nil {
		return err
	}

	refresh := time.NewTicker(followRefresh)
	defer refresh.Stop()

	for {
		qctx, cancel := context.WithTimeout(ctx, clientTimeout())
		snap, qerr := queryStatus(qctx, client)
		cancel()

		if err := writeStatus(w, snap, qerr); err != nil {
			logger.Warn("failed to query status", "error", err)
		}
		if !statusOpts.waybar {
			_, _ = fmt.Fprintln(w)
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
		case <-refresh.C:
		}
	}
}

// waybarStatus builds the Waybar module state. The class reflects the most urgent
// retained notification, and unread counts drive the text.
func waybarStatus(status dbus.Status, notifications []model.Notification) WaybarStatus {
	if status.Count == 0 {
		return WaybarStatus{Alt: "empty", Class: "empty", Tooltip: "No notifications"}
	}

	class := "read"
	if status.Unread > 0 {
		class = "unread"
		for _, n := range notifications {
			if n.IsCritical() {
				class = "critical"
				break
			}
		}
	}

	text := ""
	if status.Unread > 0 {
		text = fmt.Sprintf("%d", status.Unread)
	}

	return WaybarStatus{
		Text:       text,
		Alt:        class,
		Tooltip:    buildTooltip(status, notifications),
		Class:      class,
		Percentage: min(status.Count, 100),
	}
}

// buildTooltip lists the newest notifications under a count header.
func buildTooltip(status dbus.Status, notifications []model.Notification) string {
	const maxLines = 5

	lines := []string{fmt.Sprintf("%d notifications, %d unread", status.Count, status.Unread)}
	for i, n := range notifications {
		if i == maxLines {
			lines = append(lines, fmt.Sprintf("and %d more", len(notifications)-maxLines))
			break
		}
		lines = append(lines, fmt.Sprintf("%s: %s (%s)", n.AppName, n.Summary, humanize.Time(n.Timestamp)))
	}
	return strings.Join(lines, "\n")
}

func printStatus(w io.Writer, status dbus.Status, notifications []model.Notification) error {
	newest := "never"
	if len(notifications) > 0 {
		newest = humanize.Time(notifications[0].Timestamp)
	}

	_, err := fmt.Fprintf(w,
		"state:          %s\nnotifications:  %d (%d unread)\nnewest:         %s\nmenu open:      %t\npopups:         %d active, surface %.0fpx\n",
		status.State, status.Count, status.Unread, newest, status.MenuOpen,
		status.PopupEntries, status.SurfaceHeight,
	)
	return err
}

// outputWaybar writes the status as JSON.
func outputWaybar(w io.Writer, status WaybarStatus) error {
	return json.NewEncoder(w).Encode(status)
}
