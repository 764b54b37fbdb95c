package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/dbus"
	"github.com/jmylchreest/notid/internal/model"
)

var sendOpts struct {
	appName   string
	icon      string
	urgency   string
	timeout   int32
	replaces  uint32
	transient bool
	actions   []string
}

var sendCmd = &cobra.Command{
	Use:   "send <summary> [body]",
	Short: "Send a notification",
	Long: `Send a notification through the standard notification interface and
print the id it was given.

Examples:
  notid send "Build finished" "All tests passed"
  notid send --urgency critical --action default=Open "Disk almost full"`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().StringVarP(&sendOpts.appName, "app-name", "a", "notid", "Application name")
	sendCmd.Flags().StringVarP(&sendOpts.icon, "icon", "i", "", "Icon name or path")
	sendCmd.Flags().StringVarP(&sendOpts.urgency, "urgency", "u", "normal", "Urgency (low, normal, critical)")
	sendCmd.Flags().Int32VarP(&sendOpts.timeout, "expire-time", "t", -1,
		"Expiry in milliseconds (-1 = server default, 0 = never)")
	sendCmd.Flags().Uint32VarP(&sendOpts.replaces, "replace-id", "r", 0, "Id of the notification to replace")
	sendCmd.Flags().BoolVarP(&sendOpts.transient, "transient", "e", false, "Do not retain the notification")
	sendCmd.Flags().StringArrayVarP(&sendOpts.actions, "action", "A", nil, "Action as key=label (repeatable)")
}

func runSend(cmd *cobra.Command, args []string) error {
	var urgency model.Urgency
	if err := urgency.UnmarshalText([]byte(sendOpts.urgency)); err != nil {
		return err
	}

	actions, err := parseActions(sendOpts.actions)
	if err != nil {
		return err
	}

	req := dbus.NotifyRequest{
		AppName:       sendOpts.appName,
		ReplacesID:    sendOpts.replaces,
		AppIcon:       sendOpts.icon,
		Summary:       args[0],
		Urgency:       urgency,
		Transient:     sendOpts.transient,
		ExpireTimeout: sendOpts.timeout,
		Actions:       actions,
	}
	if len(args) == 2 {
		req.Body = args[1]
	}

	return withClient(func(ctx context.Context, client *dbus.Client) error {
		id, err := client.Notify(ctx, req)
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	})
}

func parseActions(args []string) ([]model.Action, error) {
	actions := make([]model.Action, 0, len(args))
	for _, s := range args {
		key, label, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid action %q: expected key=label", s)
		}
		actions = append(actions, model.Action{Key: key, Label: label})
	}
	return actions, nil
}
