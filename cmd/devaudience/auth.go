package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"devaudience/pkg/auth"
	"devaudience/pkg/ui"
)

var logoutGitHubOnly bool

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage API credentials",
	Long: `Manage the DEV API key and the optional GitHub token.

Credentials are looked up in this order:
  - Command line flags and the config file
  - System keychain (when available)
  - Environment variables (DEV_KEY, GITHUB_TOKEN, DEVAUDIENCE_*)

Never share your credentials or config files!`,
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store credentials in the system keychain",
	Long: `Prompt for the DEV API key and, optionally, a GitHub token and store them
in the system keychain. Input is hidden when reading from a terminal.`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove stored credentials",
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where each credential comes from",
	RunE:  runAuthStatus,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(statusCmd)

	logoutCmd.Flags().BoolVar(&logoutGitHubOnly, "github", false, "only remove the GitHub token")
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()
	p := printer()
	reader := bufio.NewReader(os.Stdin)

	auth.ShowTokenGuide(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout())

	key, err := prompt(cmd.OutOrStdout(), reader, "DEV API key: ")
	if err != nil {
		return fmt.Errorf("failed to read API key: %w", err)
	}
	if key == "" {
		return errors.New("an API key is required")
	}

	source, err := manager.Store(auth.APIKey, key)
	if err != nil {
		return fmt.Errorf("failed to store API key: %w", err)
	}
	p.Success(fmt.Sprintf("API key %s stored (%s)", auth.MaskSecret(key), source))

	token, err := prompt(cmd.OutOrStdout(), reader, "GitHub token (Enter to skip): ")
	if err != nil {
		return fmt.Errorf("failed to read GitHub token: %w", err)
	}
	if token == "" {
		p.Info("GitHub token", "skipped, follower enrichment stays disabled")
		return nil
	}

	source, err = manager.Store(auth.GitHubToken, token)
	if err != nil {
		return fmt.Errorf("failed to store GitHub token: %w", err)
	}
	p.Success(fmt.Sprintf("GitHub token %s stored (%s)", auth.MaskSecret(token), source))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager := auth.NewManager()
	p := printer()

	names := auth.Credentials
	if logoutGitHubOnly {
		names = []auth.Credential{auth.GitHubToken}
	}

	removed := 0
	for _, name := range names {
		err := manager.Delete(name)
		switch {
		case err == nil:
			removed++
			p.Success(fmt.Sprintf("Removed %s", name))
		case errors.Is(err, auth.ErrCredentialsNotFound):
			p.Info(string(name), "not stored")
		default:
			return err
		}
	}
	if removed == 0 {
		p.Warning("Nothing to remove. Environment variables must be unset in your shell.")
	}
	return nil
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	t := ui.NewTable(cmd.OutOrStdout(), "Credentials", noColor)
	t.AppendHeader(table.Row{"Credential", "Source", "Value"})
	for _, st := range auth.NewManager().Status() {
		source, value := st.Source, st.Masked
		if source == "" {
			source, value = "missing", "-"
		}
		t.AppendRow(table.Row{string(st.Name), source, value})
	}
	t.Render()
	return nil
}

// prompt reads one line, without echo when stdin is a terminal
func prompt(out io.Writer, reader *bufio.Reader, label string) (string, error) {
	fmt.Fprint(out, label)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
