package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"

	"devaudience/pkg/config"
	"devaudience/pkg/logger"
	"devaudience/pkg/ui"
)

var (
	// Version information
	version   = "0.1.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	noColor    bool
	quiet      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "devaudience",
	Short: "Audience analytics for a DEV account",
	Long: `devaudience fetches the articles and followers of your DEV account,
optionally enriches followers that link a GitHub account, caches both tables
on disk and prints descriptive statistics:

  - activity tiers and profile completeness
  - follower gain per article within an engagement window
  - new followers per day
  - an advisory bot-likelihood flag

Credentials come from flags, the environment (DEV_KEY, GITHUB_TOKEN), the
config file or the system keychain ('devaudience auth login').`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		printer().Error("Error", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $XDG_CONFIG_HOME/devaudience/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress all output except errors and reports")

	rootCmd.SetVersionTemplate(`devaudience {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "devaudience %s\n", rootCmd.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Go Version: %s\nOS/Arch: %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	},
}

func printer() *ui.Printer {
	p := ui.Stdout(noColor)
	p.SetQuiet(quiet)
	return p
}

// loadConfig loads the configuration with the flags the user changed and
// initializes the global logger
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := changedFlags(cmd)
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if noColor {
		flags["no-color"] = true
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.WithField("version", version).Debug("devaudience starting")
	return cfg, nil
}

// changedFlags collects the configuration flags set on the command line
func changedFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	fs := cmd.Flags()

	for _, name := range []string{"api-key", "github-token", "cache-dir"} {
		if fs.Changed(name) {
			v, _ := fs.GetString(name)
			flags[name] = v
		}
	}
	for _, name := range []string{"page-size", "window-days", "workers"} {
		if fs.Changed(name) {
			v, _ := fs.GetInt(name)
			flags[name] = v
		}
	}
	for _, name := range []string{"no-enrich", "no-cache"} {
		if fs.Changed(name) {
			v, _ := fs.GetBool(name)
			flags[name] = v
		}
	}
	if fs.Changed("cache-ttl") {
		v, _ := fs.GetDuration("cache-ttl")
		flags["cache-ttl"] = v
	}
	return flags
}
