package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/tgvault/pkg/configs"
	mq "github.com/yeisme/tgvault/pkg/internal/storage/mq"
	"github.com/yeisme/tgvault/pkg/queue"
)

var (
	mqCmd = &cobra.Command{
		Use:     "mq",
		Short:   "Inspect the event bus carrying file lifecycle events",
		Aliases: []string{"events"},
	}

	mqListCmd = &cobra.Command{
		Use:     "list",
		Short:   "List registered event bus backends, the configured one marked with *",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			cfg := configs.GetConfig()
			current := cfg.MQ.Type

			fmt.Fprintf(cmd.OutOrStdout(), "Registered mq types (events enabled: %t):\n", cfg.Events.Enabled)
			for _, t := range mq.GetRegisteredMQTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   "+marker(t == current)+" "+string(t))
			}
		},
	}

	mqTopicsCmd = &cobra.Command{
		Use:   "topics",
		Short: "List the topics tgvault publishes to",
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range queue.Topics() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
)

// registerMQCommands 注册事件总线相关命令.
func registerMQCommands() {
	rootCmd.AddCommand(mqCmd)
	mqCmd.AddCommand(mqListCmd, mqTopicsCmd)
}
