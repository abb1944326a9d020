package cmd

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/yeisme/tgvault/pkg/configs"
	"github.com/yeisme/tgvault/pkg/internal/service"
	"github.com/yeisme/tgvault/pkg/internal/storage"
)

var (
	filesCmd = &cobra.Command{
		Use:   "files",
		Short: "File record related commands",
	}

	filesListCmd = &cobra.Command{
		Use:     "list",
		Short:   "print all file records as JSON",
		Aliases: []string{"ls", "l"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := storage.Init(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = mgr.Close() }()

			svc := service.New(mgr, service.OptionsFromConfig(configs.GetConfig()))

			files, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}

			b, err := sonic.ConfigStd.MarshalIndent(files, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerFilesCommands 注册文件记录相关命令.
func registerFilesCommands() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd)
}
