package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/tgvault/pkg/cache"
	"github.com/yeisme/tgvault/pkg/configs"
	kv "github.com/yeisme/tgvault/pkg/internal/storage/kv"
)

// recordCachePatterns 记录缓存与删除墓碑使用的键.
var recordCachePatterns = []string{"file:*", "gone:file:*"}

var (
	kvCmd = &cobra.Command{
		Use:     "kv",
		Short:   "Inspect the record cache backing /find lookups",
		Aliases: []string{"cache"},
	}

	kvListCmd = &cobra.Command{
		Use:     "list",
		Short:   "List registered cache backends, the configured one marked with *",
		Aliases: []string{"ls", "l"},
		Run: func(cmd *cobra.Command, args []string) {
			current := kv.KVType(configs.GetConfig().KV.Type)

			fmt.Fprintln(cmd.OutOrStdout(), "Registered kv types:")
			for _, t := range kv.GetRegisteredKVTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), "   "+marker(t == current)+" "+string(t))
			}
		},
	}

	kvKeysCmd = &cobra.Command{
		Use:   "keys [pattern]",
		Short: "List cached record keys (default file:*)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "file:*"
			if len(args) == 1 {
				pattern = args[0]
			}

			client, err := kv.NewKVClient(cmd.Context(), configs.GetConfig().KV)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			keys, err := client.Keys(cmd.Context(), pattern)
			if err != nil {
				return err
			}

			for _, k := range keys {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d keys (%s)\n", len(keys), client.Type())

			return nil
		},
	}

	kvPurgeCmd = &cobra.Command{
		Use:   "purge",
		Short: "Drop every cached record and delete tombstone",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := kv.NewKVClient(cmd.Context(), configs.GetConfig().KV)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			c := cache.NewCache(client)
			for _, p := range recordCachePatterns {
				if err := c.Clear(cmd.Context(), p); err != nil {
					return fmt.Errorf("purge %s: %w", p, err)
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), "record cache purged")

			return nil
		},
	}
)

func marker(current bool) string {
	if current {
		return "*"
	}

	return "-"
}

// registerKVCommands 注册记录缓存相关命令.
func registerKVCommands() {
	rootCmd.AddCommand(kvCmd)
	kvCmd.AddCommand(kvListCmd, kvKeysCmd, kvPurgeCmd)
}
