package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetYes bool

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard the stored identity and start a new conversation",
	Long: `Discard the stored customer id and profile.

The next run of the widget generates a fresh customer id and asks for a
profile again, starting a brand-new conversation on the support side.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !resetYes {
			return fmt.Errorf("refusing to discard identity without --yes")
		}

		dir, err := resolveStateDir()
		if err != nil {
			return err
		}
		ids, err := openIdentity(dir)
		if err != nil {
			return err
		}
		defer func() { _ = ids.Close() }()

		customerID, err := ids.ResetIdentity()
		if err != nil {
			return err
		}
		fmt.Printf("Identity reset. New customer ID: %s\n", customerID)
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetYes, "yes", false, "Confirm discarding the stored identity")
	rootCmd.AddCommand(resetCmd)
}
