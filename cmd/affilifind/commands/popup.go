package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/affilifind/backend/internal/domain"
)

func init() {
	rootCmd.AddCommand(popupCmd)
}

var popupCmd = &cobra.Command{
	Use:   "popup",
	Short: "Shows what the popup would show for the tab given with --tab.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := client.PopupData(cmd.Context())
		if err != nil {
			return err
		}

		renderProduct(data.Product)
		if data.Product != nil && data.Deal.Usable() {
			deal := domain.DealFromMatch(data.Deal, data.Product, "")
			(&tablePresenter{}).Show(data.Product, deal)
		} else if data.Product != nil {
			fmt.Println("No deal available.")
		}
		if data.Similar != nil && len(data.Similar.Items) > 0 {
			renderSimilar(data.Similar.Items)
		}
		if data.Config != nil {
			renderConfig(data.Config)
		}
		return nil
	},
}
