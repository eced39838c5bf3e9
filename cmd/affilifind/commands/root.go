// Package commands is the content-side CLI: it detects products on a page
// file or URL and talks to the background service over HTTP.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/affilifind/backend/config"
	"github.com/affilifind/backend/internal/detect"
	"github.com/affilifind/backend/internal/infrastructure/messenger"
	"github.com/affilifind/backend/internal/infrastructure/page"
)

var (
	backendURL string
	tabID      string
	verbose    bool

	client    *messenger.Client
	detection config.DetectionConfig
)

var rootCmd = &cobra.Command{
	Use:   "affilifind",
	Short: "affilifind detects products on a page and finds affiliate deals for them.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initSlog(verbose)
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		detection = cfg.Detection
		if tabID == "" {
			tabID = uuid.NewString()
		}
		client = messenger.NewClient(backendURL, tabID)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	defaultBackend := os.Getenv("AFFILIFIND_BACKGROUND")
	if defaultBackend == "" {
		defaultBackend = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&backendURL, "background", defaultBackend, "background service base URL")
	rootCmd.PersistentFlags().StringVar(&tabID, "tab", "", "tab id to report as (random when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

// ExecuteContext runs the CLI
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initSlog(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// isRemote reports whether target is fetched over HTTP rather than read from disk
func isRemote(target string) bool {
	return strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://")
}

// openSource returns the page source for target. baseURL is the page URL
// reported for local files.
func openSource(target, baseURL string) (detect.PageSource, error) {
	if isRemote(target) {
		return page.NewHTTPSource(target), nil
	}
	return page.NewFileSource(target, baseURL)
}

// runtimeOptions starts from the detection config and lets the command's
// own flags override it when they were given
func runtimeOptions(cmd *cobra.Command, cfg config.DetectionConfig) detect.RuntimeOptions {
	opts := detect.RuntimeOptions{
		MutationDebounce:   cfg.MutationDebounce,
		NavigationDebounce: cfg.NavigationDebounce,
		SnapshotBudget:     cfg.SnapshotBudget,
	}
	flags := cmd.Flags()
	if flags.Changed("mutation-debounce") {
		opts.MutationDebounce, _ = flags.GetDuration("mutation-debounce")
	}
	if flags.Changed("navigation-debounce") {
		opts.NavigationDebounce, _ = flags.GetDuration("navigation-debounce")
	}
	if flags.Changed("snapshot-budget") {
		opts.SnapshotBudget, _ = flags.GetInt("snapshot-budget")
	}
	return opts
}
