package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsOnFileChange(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECURELOGIN_CONFIG_PATH", dir)
	path := filepath.Join(dir, ConfigFileName)
	require.NoError(t, os.WriteFile(path, []byte("log_level: info\n"), 0o644))
	require.NoError(t, Reload())

	reloaded := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config, err error) {
		if err != nil {
			return
		}
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("log_level: debug\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "file", cfg.Source("log_level"))
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after config file write")
	}
}

func TestWatchSurfacesBrokenFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("SECURELOGIN_CONFIG_PATH", dir)
	path := filepath.Join(dir, ConfigFileName)

	failures := make(chan error, 1)
	w, err := Watch(path, func(_ *Config, err error) {
		if err == nil {
			return
		}
		select {
		case failures <- err:
		default:
		}
	})
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	require.NoError(t, os.WriteFile(path, []byte("log_level: [unclosed\n"), 0o644))

	select {
	case err := <-failures:
		assert.Contains(t, err.Error(), "parse config file")
	case <-time.After(5 * time.Second):
		t.Fatal("no reload failure observed after writing a broken file")
	}
}
