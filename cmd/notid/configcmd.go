package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/config"
)

var configOpts struct {
	daemon bool
	force  bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Long: `Write the default notid config, or with --daemon the default notidd
config. Existing files are kept unless --force is given. notidd picks up
changes to its config file without a restart.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configPathCmd, configInitCmd)

	configCmd.PersistentFlags().BoolVar(&configOpts.daemon, "daemon", false,
		"Use the notidd config instead of the notid config")
	configInitCmd.Flags().BoolVar(&configOpts.force, "force", false,
		"Overwrite an existing file")
}

func configTarget() (string, error) {
	if configOpts.daemon {
		return config.DaemonConfigPath()
	}
	if globalOpts.configPath != "" {
		return globalOpts.configPath, nil
	}
	return config.ConfigPath(), nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path, err := configTarget()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	if !configOpts.force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	if configOpts.daemon {
		err = config.SaveDaemonConfig(path, config.DefaultDaemonConfig())
	} else {
		err = config.DefaultConfig().Save(path)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
	return nil
}
