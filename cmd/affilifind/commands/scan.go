package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/affilifind/backend/internal/detect"
	"github.com/affilifind/backend/internal/extract"
)

var (
	scanBaseURL      string
	scanApply        bool
	scanSimilar      bool
	scanSimilarLimit int
	scanContext      bool
)

func init() {
	scanCmd.Flags().StringVar(&scanBaseURL, "base-url", "", "page URL to report for a local file")
	scanCmd.Flags().Int("snapshot-budget", extract.DefaultSnapshotBudget, "byte budget of the DOM snapshot sent for remote intel (overrides detection.snapshot_budget)")
	scanCmd.Flags().BoolVar(&scanApply, "apply", false, "apply the deal and record it in the history")
	scanCmd.Flags().BoolVar(&scanSimilar, "similar", false, "also list similar products")
	scanCmd.Flags().IntVar(&scanSimilarLimit, "limit", 6, "number of similar products")
	scanCmd.Flags().BoolVar(&scanContext, "context", false, "print the page context (product, DOM snippet, selector hints) as JSON")
	rootCmd.AddCommand(scanCmd)
}

var scanCmd = &cobra.Command{
	Use:   "scan <file|url>",
	Short: "Detects the product on a page once and looks up a deal for it.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		source, err := openSource(args[0], scanBaseURL)
		if err != nil {
			return err
		}
		presenter := &tablePresenter{}
		rt := detect.NewRuntime(source, client, presenter, runtimeOptions(cmd, detection))
		rt.ScanOnce(ctx)

		product := rt.Product()
		renderProduct(product)
		if product != nil && rt.Deal() == nil {
			fmt.Println("No deal available.")
		}

		if scanSimilar && product != nil {
			similar, err := client.SimilarProducts(ctx, product, scanSimilarLimit)
			if err != nil {
				return err
			}
			renderSimilar(similar.Items)
		}

		if scanContext {
			pageContext, err := rt.PageContext(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(pageContext); err != nil {
				return err
			}
		}

		if scanApply {
			record, err := rt.Apply(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Applied %s deal: %s\n", record.Deal.Merchant, record.Deal.AffiliateURL)
		}
		return nil
	},
}
