package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/oliversimiyu/support-defmis/internal"
	"github.com/oliversimiyu/support-defmis/internal/tui"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the interactive chat widget",
	Long: `Launch the chat widget in the terminal.

Returning customers with a stored profile go straight to the
conversation; first-time customers are asked for a name and email
before the session starts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveStateDir()
		if err != nil {
			return err
		}
		cfg, err := loadClientConfig(dir)
		if err != nil {
			return err
		}
		ids, err := openIdentity(dir)
		if err != nil {
			return err
		}
		defer func() { _ = ids.Close() }()

		api := internal.NewAPIClient(cfg.BaseURL)
		notifier := internal.NewNotifier(func(senderName, text string) {
			// Terminal bell is the only external notification available here.
			fmt.Fprint(os.Stderr, "\a")
		})
		ctrl := internal.NewController(cfg, api, ids, notifier)
		defer ctrl.Teardown()

		program := tea.NewProgram(tui.New(ctrl), tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("widget terminated: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
