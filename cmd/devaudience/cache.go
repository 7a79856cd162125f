package main

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"devaudience/pkg/cache"
	"devaudience/pkg/logger"
	"devaudience/pkg/ui"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the snapshot cache",
}

var cacheClearCmd = &cobra.Command{
	Use:       "clear [articles|followers]...",
	Short:     "Remove snapshots so the next run fetches again",
	ValidArgs: []string{string(cache.KeyArticles), string(cache.KeyFollowers)},
	Args:      cobra.OnlyValidArgs,
	RunE:      runCacheClear,
}

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the snapshot files",
	RunE:  runCacheStatus,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	keys := make([]cache.Key, 0, len(args))
	for _, a := range args {
		keys = append(keys, cache.Key(a))
	}

	removed, err := cache.NewManagerFromConfig(cfg, logger.GetLogger()).Invalidate(keys...)
	if err != nil {
		return err
	}

	p := printer()
	if len(removed) == 0 {
		p.Info("Cache", "nothing to clear")
		return nil
	}
	for _, path := range removed {
		p.Success("Removed " + path)
	}
	return nil
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m := cache.NewManagerFromConfig(cfg, logger.GetLogger())

	now := time.Now()
	t := ui.NewTable(cmd.OutOrStdout(), "Snapshots", noColor)
	t.AppendHeader(table.Row{"Table", "Path", "Updated", "Size", "State"})
	for _, key := range m.Keys() {
		st, err := m.Stat(key)
		if err != nil {
			return err
		}
		if !st.Exists {
			t.AppendRow(table.Row{string(key), st.Path, "-", "-", "missing"})
			continue
		}
		state := "fresh"
		if st.Expired {
			state = "expired"
		}
		t.AppendRow(table.Row{string(key), st.Path, ui.FormatAge(now, st.ModTime), fmt.Sprintf("%.1f KiB", float64(st.Size)/1024), state})
	}
	t.Render()
	return nil
}
