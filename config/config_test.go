package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
env: test
log:
  level: warn
  format: json
app:
  name: tubeup-test
  address: ":9090"
  publicUrl: http://uploads.test
upload:
  partSize: 1048576
  maxParts: 100
  requestTimeout: 5s
objectstore:
  type: local
  local:
    root: /tmp/tubeup
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test", cfg.Env)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, ":9090", cfg.App.Address)
	assert.Equal(t, "http://uploads.test", cfg.App.PublicURL)
	assert.Equal(t, int64(1048576), cfg.Upload.PartSize)
	assert.Equal(t, 100, cfg.Upload.MaxParts)
	assert.Equal(t, 5*time.Second, cfg.Upload.RequestTimeout)
	assert.Equal(t, "videos/video", cfg.Upload.KeyPrefix, "default applies")
	assert.Equal(t, "/tmp/tubeup", cfg.Objectstore.Local.Root)
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "env: test\n")
	t.Setenv("TUBEUP_APP_ADDRESS", ":7070")
	t.Setenv("TUBEUP_UPLOAD_MAXPARTS", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.App.Address)
	assert.Equal(t, 42, cfg.Upload.MaxParts)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown store":  "env: test\nobjectstore:\n  type: s3\n",
		"bad log level":  "env: test\nlog:\n  level: loud\n",
		"part limit":     "env: test\nupload:\n  maxParts: 20000\n",
		"storj no grant": "env: test\nobjectstore:\n  type: storj\n",
		"bad public url": "env: test\napp:\n  publicUrl: not a url\n",
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
