package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"devaudience/pkg/auth"
	"devaudience/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage devaudience configuration files.

Configuration is loaded from (highest priority first):
  - Command line flags
  - Environment variables (DEV_KEY, GITHUB_TOKEN, DEVAUDIENCE_*)
  - .env files in the working directory and the config directory
  - Configuration file
  - Default values`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the default values",
	Long: `Write the default configuration to --config, or to
$XDG_CONFIG_HOME/devaudience/config.yaml. Credentials are never written.`,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  `Show the configuration merged from every source. Credentials are masked.`,
	RunE:  runConfigShow,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	p := printer()
	p.Success("Configuration file created: " + path)
	fmt.Fprintln(cmd.OutOrStdout(), "\nNext steps:")
	fmt.Fprintln(cmd.OutOrStdout(), "1. Store your DEV API key with 'devaudience auth login'")
	fmt.Fprintln(cmd.OutOrStdout(), "2. Run 'devaudience analyze --extended'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	auth.NewManager().Resolve(cfg)

	display := *cfg
	if display.DevTo.APIKey != "" {
		display.DevTo.APIKey = auth.MaskSecret(display.DevTo.APIKey)
	}
	if display.GitHub.Token != "" {
		display.GitHub.Token = auth.MaskSecret(display.GitHub.Token)
	}

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	printer().Highlight("Current Configuration")
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}
