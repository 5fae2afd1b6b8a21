package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/user/bookmark-service/internal/adapter/bookmarkfile"
	"github.com/user/bookmark-service/internal/adapter/memory"
	"github.com/user/bookmark-service/internal/bootstrap"
	"github.com/user/bookmark-service/internal/entity"
	"github.com/user/bookmark-service/internal/usecase"
	"github.com/user/bookmark-service/pkg/config"
	"github.com/user/bookmark-service/pkg/logger"
)

const (
	outputJSON  = "json"
	outputTable = "table"
)

var errNoBookmarksFile = errors.New("no bookmarks file given: pass a path or set BOOKMARKS_FILE")

func newRootCmd() *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)
	v.SetDefault("LOG_LEVEL", "warn")
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "analyze [bookmarks-file]",
		Short: "Find duplicate and broken bookmarks",
		Long: `Analyze reads a Chrome Bookmarks file or a chrome.bookmarks.getTree JSON dump,
marks every bookmark whose URL was already seen as a duplicate, and fetches the
rest to collect title, description and keywords or flag them as broken.

Examples:
  # Analyze the default Chrome profile and print a table
  analyze ~/.config/google-chrome/Default/Bookmarks

  # Render pages in headless Chrome and emit JSON
  analyze tree.json --mode browser --output json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, v, args)
		},
	}

	flags := cmd.Flags()
	flags.IntP("concurrency", "c", 8, "Maximum number of pages fetched at once")
	flags.IntP("timeout", "t", 15, "Per-page fetch timeout in seconds")
	flags.StringP("mode", "m", config.FetchModeHTTP, "Fetch mode: http or browser")
	flags.StringP("output", "o", outputTable, "Output format: table or json")
	flags.String("user-agent", "", "User-Agent header sent with each fetch")
	flags.Float64("rate", 0, "Maximum requests per second to a single host (0 = unlimited)")
	flags.String("log-level", "warn", "Log level written to stderr")

	for key, flag := range map[string]string{
		"MAX_CONCURRENCY":       "concurrency",
		"FETCH_TIMEOUT_SECONDS": "timeout",
		"FETCH_MODE":            "mode",
		"USER_AGENT":            "user-agent",
		"PER_HOST_RATE":         "rate",
		"LOG_LEVEL":             "log-level",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	return cmd
}

func runAnalyze(cmd *cobra.Command, v *viper.Viper, args []string) error {
	output, _ := cmd.Flags().GetString("output")
	if output != outputJSON && output != outputTable {
		return fmt.Errorf("invalid output format %q: want %q or %q", output, outputTable, outputJSON)
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	path := cfg.BookmarksFile
	if len(args) == 1 {
		path = args[0]
	}
	if path == "" {
		return errNoBookmarksFile
	}

	log, err := logger.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	root, err := bookmarkfile.NewProvider(path).GetTree(ctx)
	if err != nil {
		return err
	}

	fetcher, release, err := bootstrap.NewFetcher(cfg, log)
	if err != nil {
		return fmt.Errorf("create %s fetcher: %w", cfg.FetchMode, err)
	}
	defer release()

	seen := memory.NewSeenSet()
	defer seen.Close(ctx)

	results, err := usecase.NewAnalyzer(fetcher, cfg.MaxConcurrency, log).Analyze(ctx, root, seen)
	if err != nil {
		return err
	}
	summary := entity.Summarize(results)

	if output == outputJSON {
		if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), summaryLine(summary))
		return nil
	}
	writeTable(cmd.OutOrStdout(), results, summary)
	return nil
}

func writeJSON(w io.Writer, results []entity.AnalysisResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func summaryLine(s entity.RunSummary) string {
	return fmt.Sprintf("%d bookmarks: %d unique, %d duplicate, %d broken", s.Leaves, s.Unique, s.Duplicates, s.Broken)
}
