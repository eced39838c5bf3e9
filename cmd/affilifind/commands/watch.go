package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/affilifind/backend/internal/detect"
	"github.com/affilifind/backend/internal/infrastructure/page"
)

var (
	watchBaseURL      string
	watchPollInterval time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchBaseURL, "base-url", "", "page URL to report for a local file")
	watchCmd.Flags().DurationVar(&watchPollInterval, "interval", page.DefaultPollInterval, "poll interval for remote pages")
	watchCmd.Flags().Duration("mutation-debounce", detect.DefaultMutationDebounce, "quiet period before a change triggers a rescan (overrides detection.mutation_debounce)")
	watchCmd.Flags().Duration("navigation-debounce", detect.DefaultNavigationDebounce, "quiet period before a navigation triggers a rescan (overrides detection.navigation_debounce)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch <file|url>",
	Short: "Keeps detecting the product while the page changes, until interrupted.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		target := args[0]

		opts := runtimeOptions(cmd, detection)

		var (
			source detect.PageSource
			follow func(ctx context.Context, rt *detect.Runtime) error
		)
		if isRemote(target) {
			httpSource := page.NewHTTPSource(target)
			source = httpSource
			follow = func(ctx context.Context, rt *detect.Runtime) error {
				httpSource.Poll(ctx, watchPollInterval, rt)
				return nil
			}
		} else {
			fileSource, err := page.NewFileSource(target, watchBaseURL)
			if err != nil {
				return err
			}
			source = fileSource
			follow = func(ctx context.Context, rt *detect.Runtime) error {
				return fileSource.Watch(ctx, rt)
			}
		}

		rt := detect.NewRuntime(source, client, &tablePresenter{}, opts)
		defer func() {
			rt.Stop()
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.CloseTab(closeCtx); err != nil {
				slog.Warn("close tab failed", "tab", client.TabID(), "err", err)
			}
		}()

		slog.Info("watching page", "target", target, "tab", client.TabID())
		rt.Start(ctx)
		return follow(ctx, rt)
	},
}
