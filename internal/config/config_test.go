package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kioskcart/storeskema/batch"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "storeskema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = cfg.BatchPolicy()
	assert.ErrorIs(t, err, batch.ErrPolicyRequired)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := writeFile(t, `
policy: skip-invalid
workers: 4
log:
  level: debug
  format: json
db:
  driver: postgres
  dsn: postgres://localhost/store
`)
	t.Setenv("STORESKEMA_WORKERS", "8")
	t.Setenv("STORESKEMA_DB_DSN", "postgres://replica/store")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "postgres://replica/store", cfg.DB.DSN)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "en", cfg.Lang)

	p, err := cfg.BatchPolicy()
	require.NoError(t, err)
	assert.Equal(t, batch.SkipInvalid, p)

	lv, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lv)
}

func TestLoadRejectsUnknownFileKeys(t *testing.T) {
	path := writeFile(t, "polcy: fail-fast\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode config")
}

func TestLoadEnvError(t *testing.T) {
	t.Setenv("STORESKEMA_WORKERS", "many")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Workers = 0
	cfg.Policy = "sometimes"
	cfg.Log.Format = "xml"
	cfg.DB.Driver = "mysql"

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, batch.ErrPolicyRequired))
	for _, want := range []string{"workers", "log format", "db driver"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
