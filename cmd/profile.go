package cmd

import (
	"fmt"

	"github.com/oliversimiyu/support-defmis/internal"
	"github.com/spf13/cobra"
)

// profileCmd represents the profile command
var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or update the stored customer profile",
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored customer id and profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveStateDir()
		if err != nil {
			return err
		}
		ids, err := openIdentity(dir)
		if err != nil {
			return err
		}
		defer func() { _ = ids.Close() }()

		customerID, err := ids.GetOrCreateCustomerID()
		if err != nil {
			return err
		}
		fmt.Printf("Customer ID: %s\n", customerID)

		profile, err := ids.Profile()
		if err != nil {
			return err
		}
		if profile == nil {
			fmt.Println("Profile:     (not set)")
			return nil
		}
		fmt.Printf("Name:        %s\n", profile.Name)
		fmt.Printf("Email:       %s\n", profile.Email)
		return nil
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name> <email>",
	Short: "Store the customer profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, email := args[0], args[1]
		if name == "" {
			return &internal.ValidationError{Field: "name", Reason: "name is required"}
		}
		if !internal.ValidEmail(email) {
			return &internal.ValidationError{Field: "email", Reason: "malformed email address"}
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

		if err := ids.SetProfile(name, email); err != nil {
			return err
		}
		fmt.Println("Profile saved")
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	rootCmd.AddCommand(profileCmd)
}
