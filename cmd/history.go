package cmd

import (
	"fmt"

	"github.com/oliversimiyu/support-defmis/internal"
	"github.com/spf13/cobra"
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Print the conversation history",
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

		customerID, err := ids.GetOrCreateCustomerID()
		if err != nil {
			return err
		}

		api := internal.NewAPIClient(cfg.BaseURL)
		messages, err := api.History(customerID)
		if err != nil {
			return err
		}
		if len(messages) == 0 {
			fmt.Println("No messages yet")
			return nil
		}

		for _, msg := range messages {
			sender := msg.SenderName
			if sender == "" {
				sender = string(msg.SenderType)
			}
			if msg.Timestamp != "" {
				fmt.Printf("[%s] %s: %s\n", msg.Timestamp, sender, msg.Content)
			} else {
				fmt.Printf("%s: %s\n", sender, msg.Content)
			}
			if msg.AttachmentURL != "" {
				fmt.Printf("    attachment: %s\n", msg.AttachmentURL)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
