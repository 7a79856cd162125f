package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"devaudience/pkg/auth"
	"devaudience/pkg/cache"
	"devaudience/pkg/config"
	errs "devaudience/pkg/errors"
	"devaudience/pkg/export"
	"devaudience/pkg/loader"
	"devaudience/pkg/logger"
	"devaudience/pkg/pipeline"
	"devaudience/pkg/ui"
)

var (
	// Run flags shared by fetch, analyze and export
	extended bool
	enrich   bool
	refresh  bool

	// analyze flags
	dailyDays int
	topTags   int

	// export flags
	exportPath string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch articles and followers into the cache",
	Long: `Fetch the account's articles (drafts included) and followers and store
them as snapshots in the cache directory. Later runs reuse the snapshots until
they expire or are cleared.`,
	Example: `  # Basic follower listing
  devaudience fetch

  # Detail profiles and GitHub enrichment, ignoring existing snapshots
  devaudience fetch --enrich --refresh`,
	RunE: runFetch,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Print the audience report",
	Long: `Load both tables (from the cache when possible) and print activity tiers,
profile completeness, follower gain per article, the daily follower series and
advisory bot flags.`,
	Example: `  devaudience analyze --extended
  devaudience analyze --enrich --window-days 7 --days 30`,
	RunE: runAnalyze,
}

var exportCmd = &cobra.Command{
	Use:     "export",
	Short:   "Write the tables and analysis to a SQLite database",
	Example: `  devaudience export --extended --output audience.db`,
	RunE:    runExport,
}

func init() {
	for _, cmd := range []*cobra.Command{fetchCmd, analyzeCmd, exportCmd} {
		f := cmd.Flags()
		f.BoolVar(&extended, "extended", false, "fetch the detail profile of every follower")
		f.BoolVar(&enrich, "enrich", false, "look up linked GitHub accounts (implies --extended)")
		f.BoolVar(&refresh, "refresh", false, "ignore existing snapshots")
		f.String("api-key", "", "DEV API key")
		f.String("github-token", "", "GitHub token for enrichment")
		f.Bool("no-enrich", false, "disable enrichment even with a token")
		f.Int("page-size", 0, "records per listing page (max 1000)")
		f.Int("workers", 0, "concurrent detail lookups")
		f.String("cache-dir", "", "snapshot directory")
		f.Bool("no-cache", false, "neither read nor write snapshots")
		f.Duration("cache-ttl", 0, "expire snapshots older than this")
		f.Int("window-days", -1, "engagement window in days")
		rootCmd.AddCommand(cmd)
	}

	analyzeCmd.Flags().IntVar(&dailyDays, "days", 30, "most recent days of the daily series to print (0 for all)")
	analyzeCmd.Flags().IntVar(&topTags, "top-tags", 10, "number of tags to print (0 for all)")
	exportCmd.Flags().StringVarP(&exportPath, "output", "o", "", "database path (default: devaudience.db in the cache directory)")
}

// runPipeline loads the configuration and runs one pipeline. After a cache
// write failure the result is still returned with a non-nil error; callers
// finish their output and then return that error.
func runPipeline(cmd *cobra.Command) (*config.Config, *pipeline.Result, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	p := printer()
	p.Banner()

	opts := pipeline.Options{
		Config:      cfg,
		Followers:   loader.FollowerOptions{Extended: extended, Enrich: enrich},
		Refresh:     refresh,
		Credentials: auth.NewManager(),
		Logger:      logger.GetLogger(),
	}
	if extended || enrich {
		opts.Progress = ui.NewStatusTracker(p, "DETAILS").Update
	}

	res, err := pipeline.Run(cmd.Context(), opts)
	switch {
	case errors.Is(err, errs.ErrAuthentication) && res == nil:
		return nil, nil, fmt.Errorf("%w\n\nStore a key with 'devaudience auth login' or set DEV_KEY", err)
	case errors.Is(err, errs.ErrCacheWrite) && res != nil:
		logger.WithError(err).Warn("snapshots not saved")
		return cfg, res, fmt.Errorf("snapshots not saved: %w", err)
	case err != nil:
		return nil, nil, err
	}
	return cfg, res, nil
}

func runFetch(cmd *cobra.Command, args []string) error {
	_, res, err := runPipeline(cmd)
	if res == nil {
		return err
	}

	p := printer()
	p.Info("Articles", fmt.Sprintf("%d (%s)", len(res.Articles), res.Sources[cache.KeyArticles]))
	p.Info("Followers", fmt.Sprintf("%d (%s, %s)", len(res.Followers), res.Sources[cache.KeyFollowers], res.Variant))
	p.Info("Degraded", fmt.Sprint(res.Report.Degraded))
	p.Info("Enriched", fmt.Sprint(res.Report.Enriched))
	for _, w := range res.Warnings {
		p.Warning(w.String())
	}
	if err != nil {
		return err
	}
	p.Success("Fetch complete")
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	_, res, err := runPipeline(cmd)
	if res == nil {
		return err
	}

	warnings := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		warnings = append(warnings, w.String())
	}
	ui.RenderReport(cmd.OutOrStdout(), res.Report, ui.ReportOptions{
		DailyDays: dailyDays,
		TopTags:   topTags,
		NoColor:   noColor,
		Warnings:  warnings,
	})
	return err
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, res, runErr := runPipeline(cmd)
	if res == nil {
		return runErr
	}

	path := exportPath
	if path == "" {
		path = filepath.Join(cfg.Cache.Directory, "devaudience.db")
	}

	store, err := export.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Write(cmd.Context(), res.Articles, res.Followers, res.Report); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}

	printer().Success(fmt.Sprintf("Exported %d articles and %d followers to %s", len(res.Articles), len(res.Followers), path))
	return runErr
}
