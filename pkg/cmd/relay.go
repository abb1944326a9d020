package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/relay"
)

var (
	relayCmd = &cobra.Command{
		Use:   "relay",
		Short: "Telegram relay related commands",
	}

	relayUpdatesCmd = &cobra.Command{
		Use:   "updates",
		Short: "print pending bot updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			raw, err := relay.New(cfg.Relay).GetUpdates(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), raw)

			return nil
		},
	}
)

// registerRelayCommands 注册中继相关命令.
func registerRelayCommands() {
	rootCmd.AddCommand(relayCmd)
	relayCmd.AddCommand(relayUpdatesCmd)
}
