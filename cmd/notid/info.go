package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/dbus"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the notification server identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, client *dbus.Client) error {
			info, err := client.ServerInformation(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("%s %s (%s), protocol %s\n", info.Name, info.Version, info.Vendor, info.SpecVersion)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
