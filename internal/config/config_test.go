package config_test

import (
	"embed"
	"os"
	"path/filepath"
	"testing"

	appconfig "github.com/kadirbelkuyu/dyntables/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/*.yaml
var configSamples embed.FS

func writeSample(t *testing.T, name string) string {
	t.Helper()

	data, err := configSamples.ReadFile("testdata/" + name)
	require.NoErrorf(t, err, "failed to read embedded sample %s", name)

	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

func TestLoadPostgresConfigDefaults(t *testing.T) {
	path := writeSample(t, "postgres.yaml")

	cfg, err := appconfig.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Type, "default database type should be postgres")
	assert.Equal(t, "disable", cfg.Database.SSLMode, "SSL should default to disable for postgres")
	assert.Equal(t, "public", cfg.Database.Schema)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "definitions", cfg.Definitions.Dir)
	assert.False(t, cfg.JournalEnabled())

	conn := cfg.GetConnectionString()
	assert.Contains(t, conn, "host=localhost")
	assert.Contains(t, conn, "port=5432")
	assert.Contains(t, conn, "user=sample")
	assert.Contains(t, conn, "dbname=sampledb")
}

func TestLoadFullConfig(t *testing.T) {
	path := writeSample(t, "full.yaml")

	cfg, err := appconfig.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "require", cfg.Database.SSLMode)
	assert.Equal(t, "dynamic", cfg.Database.Schema)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	require.True(t, cfg.JournalEnabled())
	assert.Equal(t, "catalog", cfg.Journal.Database, "journal database should default to the catalog database")
	assert.Equal(t, "changes", cfg.Journal.Collection)
	assert.Equal(t, "/etc/dyntables/definitions", cfg.Definitions.Dir)

	assert.Contains(t, cfg.GetConnectionString(), "port=6543")
}

func TestLoadRejectsUnsupportedType(t *testing.T) {
	path := writeSample(t, "mongo.yaml")

	_, err := appconfig.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type: mongo")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := appconfig.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}
