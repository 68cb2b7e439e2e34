package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 2, c.TopK)
	assert.Equal(t, 30, c.Bins)
	assert.Equal(t, "md", c.Format)
	assert.Equal(t, 60, c.CacheTTLMin)
	assert.Equal(t, ":8080", c.ServeAddr)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".tabsight", "projects"), c.ProjectsDir)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".tabsight", "cache"), c.CacheDir)
}

func TestSaveLoadRoundTripAndEnv(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	c, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, c.Set("top_k", "5"))
	require.NoError(t, c.Set("min_corr", "0.3"))
	require.NoError(t, c.Set("format", "JSON"))
	require.NoError(t, Save(c, path))

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5, again.TopK)
	assert.Equal(t, 0.3, again.MinCorr)
	assert.Equal(t, "json", again.Format)

	t.Setenv("TABSIGHT_TOP_K", "9")
	env, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, env.TopK)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: [unterminated"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}

func TestSetValidation(t *testing.T) {
	c := &Global{}
	require.Error(t, c.Set("top_k", "-1"))
	require.Error(t, c.Set("min_corr", "1.5"))
	require.Error(t, c.Set("format", "pdf"))
	require.Error(t, c.Set("log_level", "loud"))
	require.Error(t, c.Set("bins", "0"))
	require.Error(t, c.Set("nope", "1"))

	require.NoError(t, c.Set("log_level", "DEBUG"))
	v, err := c.Get("log_level")
	require.NoError(t, err)
	assert.Equal(t, "debug", v)

	for _, k := range Keys {
		_, err := c.Get(k)
		assert.NoError(t, err, k)
	}
}
