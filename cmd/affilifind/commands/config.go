package commands

import (
	"github.com/spf13/cobra"

	"github.com/affilifind/backend/internal/domain"
)

var (
	setAPIBase    string
	setAPIKey     string
	setAutoInject bool
)

func init() {
	configSetCmd.Flags().StringVar(&setAPIBase, "api-base", "", "affiliate API base URL")
	configSetCmd.Flags().StringVar(&setAPIKey, "api-key", "", "affiliate API key")
	configSetCmd.Flags().BoolVar(&setAutoInject, "auto-inject", true, "show deals as soon as they are found")

	configCmd.AddCommand(configGetCmd, configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Reads or changes the extension configuration.",
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Prints the current configuration.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := client.Config(cmd.Context())
		if err != nil {
			return err
		}
		renderConfig(cfg)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Changes the flags given; everything else is left alone.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var update domain.ConfigUpdate
		if cmd.Flags().Changed("api-base") {
			update.APIBase = &setAPIBase
		}
		if cmd.Flags().Changed("api-key") {
			update.APIKey = &setAPIKey
		}
		if cmd.Flags().Changed("auto-inject") {
			update.AutoInject = &setAutoInject
		}

		if err := client.SetConfig(cmd.Context(), update); err != nil {
			return err
		}
		cfg, err := client.Config(cmd.Context())
		if err != nil {
			return err
		}
		renderConfig(cfg)
		return nil
	},
}
