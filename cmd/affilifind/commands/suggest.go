package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/affilifind/backend/internal/detect"
	"github.com/affilifind/backend/internal/domain"
)

var (
	suggestBaseURL string
	suggestContext string
)

func init() {
	suggestCmd.Flags().StringVar(&suggestBaseURL, "base-url", "", "page URL to report for a local file")
	suggestCmd.Flags().StringVar(&suggestContext, "context", "", "search context (defaults to the product brand)")
	rootCmd.AddCommand(suggestCmd)
}

var suggestCmd = &cobra.Command{
	Use:   "suggest <file|url> [query...]",
	Short: "Asks for search suggestions about the product on a page.",
	Long:  "Asks for search suggestions about the product on a page. Without a query the product title is used.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		source, err := openSource(args[0], suggestBaseURL)
		if err != nil {
			return err
		}
		rt := detect.NewRuntime(source, client, &tablePresenter{}, runtimeOptions(cmd, detection))
		rt.ScanOnce(ctx)

		pageContext, err := rt.PageContext(ctx)
		if err != nil {
			return err
		}

		result, err := client.SearchSuggestions(ctx, &domain.SuggestionRequest{
			Query:         strings.Join(args[1:], " "),
			Context:       suggestContext,
			Product:       pageContext.Product,
			DomSnippet:    pageContext.DomSnippet,
			SelectorHints: pageContext.Selectors,
		})
		if err != nil {
			return err
		}
		if len(result.Items) == 0 {
			fmt.Println("No suggestions.")
			return nil
		}
		renderSuggestions(result.Items)
		return nil
	},
}
