package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/storage/db"
	"github.com/yeisme/tgvault/pkg/internal/store"
)

var (
	dbCmd = &cobra.Command{
		Use:   "db",
		Short: "Database related commands",
	}

	dbListCmd = &cobra.Command{
		Use:   "ls",
		Short: "list all registered database types",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "Registered database types:")

			for _, dbType := range db.GetRegisteredDBTypes() {
				fmt.Fprintln(cmd.OutOrStdout(), " - "+dbType)
			}
		},
	}

	dbInitCmd = &cobra.Command{
		Use:   "init",
		Short: "create the metadata tables if they do not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configs.GetConfig()

			client, err := db.New(cmd.Context(), cfg.DB, false)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			if err := store.New(client).Init(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "metadata store ready (%s)\n", client.Type())

			return nil
		},
	}
)

// registerDBCommands 注册数据库相关命令.
func registerDBCommands() {
	rootCmd.AddCommand(dbCmd)

	dbCmd.AddCommand(dbListCmd)
	dbCmd.AddCommand(dbInitCmd)
}
