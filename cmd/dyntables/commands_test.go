package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirbelkuyu/dyntables/internal/definitions"
	"github.com/kadirbelkuyu/dyntables/internal/domain"
)

func useConfig(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	defsDir := filepath.Join(dir, "defs")
	path := filepath.Join(dir, "dyntables.yaml")
	content := "database:\n  database: shop\ndefinitions:\n  dir: " + defsDir + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	previous := configPath
	configPath = path
	t.Cleanup(func() { configPath = previous })
	return defsDir
}

func TestDefinitionsListAndDelete(t *testing.T) {
	defsDir := useConfig(t)

	require.NoError(t, runDefinitionsList(definitionsListCmd, nil), "missing directory lists nothing")

	manager := definitions.NewManager(defsDir)
	entry, err := manager.Save("", domain.CreateTableRequest{Name: "Products"})
	require.NoError(t, err)

	require.NoError(t, runDefinitionsList(definitionsListCmd, nil))
	require.NoError(t, runDefinitionsDelete(definitionsDeleteCmd, []string{"Products"}))

	_, err = os.Stat(entry.Path)
	assert.True(t, os.IsNotExist(err))
	assert.Error(t, runDefinitionsDelete(definitionsDeleteCmd, []string{"Products"}))
}

func TestDefinitionsNeedValidConfig(t *testing.T) {
	previous := configPath
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	t.Cleanup(func() { configPath = previous })

	assert.Error(t, runDefinitionsList(definitionsListCmd, nil))
}
