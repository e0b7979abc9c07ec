package cmd

import (
	"fmt"
	"os"

	"github.com/oliversimiyu/support-defmis/internal"
	"github.com/spf13/cobra"
)

var (
	verbose  bool
	baseURL  string
	stateDir string
	version  string = "dev"
	commit   string = "unknown"
	date     string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "defmis-chat",
	Short: "Customer support chat widget for the terminal",
	Long: `An embeddable customer-support chat client.

The widget establishes a per-customer chat session against a remote
support service, exchanges messages over a persistent websocket with an
HTTP fallback, and keeps the conversation and unread state intact across
connection drops.

Quick Start:
  defmis-chat run                        # Launch the chat widget
  defmis-chat profile set "Jane" jane@x.com
  defmis-chat history                    # Print the conversation
  defmis-chat export --format md         # Export the transcript`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Support service base URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&stateDir, "state-dir", "", "Custom state directory (identity database and config)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// resolveStateDir returns the effective state directory.
func resolveStateDir() (string, error) {
	if stateDir != "" {
		if err := os.MkdirAll(stateDir, 0755); err != nil {
			return "", fmt.Errorf("failed to create state directory: %w", err)
		}
		return stateDir, nil
	}
	return internal.DefaultStateDir()
}

// loadClientConfig loads the client config and applies flag overrides.
func loadClientConfig(dir string) (*internal.Config, error) {
	cfg, err := internal.LoadConfig(internal.ConfigPath(dir))
	if err != nil {
		return nil, err
	}
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return cfg, nil
}

// openIdentity opens the identity store in the state directory.
func openIdentity(dir string) (*internal.IdentityStore, error) {
	return internal.OpenIdentityStore(internal.IdentityDBPath(dir))
}
