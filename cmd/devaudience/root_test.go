package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunCmd(t *testing.T) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	f := cmd.Flags()
	f.String("api-key", "", "")
	f.String("cache-dir", "", "")
	f.Int("page-size", 0, "")
	f.Int("window-days", -1, "")
	f.Bool("no-cache", false, "")
	f.Duration("cache-ttl", 0, "")
	return cmd
}

func TestChangedFlagsOnlyReportsSetFlags(t *testing.T) {
	cmd := newRunCmd(t)
	require.NoError(t, cmd.Flags().Set("page-size", "50"))
	require.NoError(t, cmd.Flags().Set("no-cache", "true"))
	require.NoError(t, cmd.Flags().Set("cache-ttl", "2h"))

	flags := changedFlags(cmd)

	assert.Equal(t, map[string]interface{}{
		"page-size": 50,
		"no-cache":  true,
		"cache-ttl": 2 * time.Hour,
	}, flags)
}

func TestLoadConfigAppliesFlags(t *testing.T) {
	dir := t.TempDir()
	configFile = filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("analysis:\n  window_days: 3\n"), 0o600))
	t.Cleanup(func() { configFile = "" })

	cmd := newRunCmd(t)
	require.NoError(t, cmd.Flags().Set("cache-dir", dir))
	require.NoError(t, cmd.Flags().Set("window-days", "7"))

	cfg, err := loadConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.Cache.Directory)
	assert.Equal(t, 7, cfg.Analysis.WindowDays)
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)

	assert.Contains(t, buf.String(), "devaudience "+version)
}
