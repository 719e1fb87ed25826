package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEnsureUserConfigBootstrapsOnce(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 8000, cfg.App.Port)
	require.Len(t, cfg.Sources, 3)

	normalized, res := NormalizeAndValidate(cfg)
	require.True(t, res.OK(), "the shipped default must validate clean: %v", res.Errors)
	require.Empty(t, res.Warnings)
	for _, s := range normalized.Sources {
		require.True(t, s.Enabled)
	}

	// a user edit must survive subsequent calls
	require.NoError(t, os.WriteFile(path, []byte("app:\n  port: 9999\n"), 0o644))
	path2, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	require.Equal(t, path, path2)

	cfg, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, 9999, cfg.App.Port)
}

func TestDurationGettersFallBack(t *testing.T) {
	var cfg Config
	require.Equal(t, 30*time.Second, cfg.RequestTimeout())
	require.Equal(t, 5*time.Minute, cfg.SourceTimeout())
	require.Equal(t, 30*time.Minute, cfg.StaleRunAfter())
	require.Equal(t, 3, cfg.MaxParallelSources())

	cfg.Crawler.RequestTimeout = "10s"
	cfg.Crawler.MaxParallelSources = 8
	require.Equal(t, 10*time.Second, cfg.RequestTimeout())
	require.Equal(t, 8, cfg.MaxParallelSources())

	cfg.Crawler.RequestTimeout = "junk"
	require.Equal(t, 30*time.Second, cfg.RequestTimeout())
}
