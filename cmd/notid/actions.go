package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/dbus"
)

var dismissCmd = &cobra.Command{
	Use:   "dismiss <id>...",
	Short: "Dismiss notifications",
	Long: `Dismiss one or more notifications. Their clients are told the user
dismissed them.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]uint32, 0, len(args))
		for _, arg := range args {
			id, err := parseID(arg)
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}

		return withClient(func(ctx context.Context, client *dbus.Client) error {
			for _, id := range ids {
				if err := client.Dismiss(ctx, id); err != nil {
					return err
				}
			}
			return nil
		})
	},
}

var actionCmd = &cobra.Command{
	Use:   "action <id> [key]",
	Short: "Invoke a notification action",
	Long: `Invoke an action of a notification. The key defaults to "default".

Resident notifications stay in the list after their action is invoked.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		key := "default"
		if len(args) == 2 {
			key = args[1]
		}

		return withClient(func(ctx context.Context, client *dbus.Client) error {
			return client.InvokeAction(ctx, id, key)
		})
	},
}

var clickCmd = &cobra.Command{
	Use:   "click <id>",
	Short: "Click a popup",
	Long: `Behave as if the popup of a notification was clicked. Notifications
without a default action are left alone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		return withClient(func(ctx context.Context, client *dbus.Client) error {
			return client.PopupClicked(ctx, id)
		})
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Dismiss every notification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *dbus.Client) error {
			return client.ClearAll(ctx)
		})
	},
}

var menuCmd = &cobra.Command{
	Use:       "menu <open|close>",
	Short:     "Tell notidd the notification menu opened or closed",
	Long:      `Opening the menu marks everything read and hides popups until it is closed.`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"open", "close"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *dbus.Client) error {
			if args[0] == "open" {
				return client.OpenMenu(ctx)
			}
			return client.CloseMenu(ctx)
		})
	},
}

func init() {
	rootCmd.AddCommand(dismissCmd, actionCmd, clickCmd, clearCmd, menuCmd)
}
