package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateLegacyKeys(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, `# migrated from the old tool
accessToken: legacy-token
remoteRepos:
  - owner: acme
    repo: widgets
name: Jane
`)

	migrated, err := MigrateLegacyKeys(dir)

	require.NoError(t, err)
	assert.True(t, migrated)

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(content), "# migrated from the old tool")
	assert.NotContains(t, string(content), "accessToken")
	assert.NotContains(t, string(content), "remoteRepos")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "legacy-token", cfg.AccessToken)
	assert.True(t, cfg.IsCloned("acme", "widgets"))
}

func TestMigrateLegacyKeys_CurrentKeyWins(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	writeConfig(t, dir, "accessToken: old\naccess_token: new\n")

	migrated, err := MigrateLegacyKeys(dir)
	require.NoError(t, err)
	assert.True(t, migrated)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "new", cfg.AccessToken)
}

func TestMigrateLegacyKeys_NothingToDo(t *testing.T) {
	dir := t.TempDir()

	migrated, err := MigrateLegacyKeys(dir)
	require.NoError(t, err)
	assert.False(t, migrated)

	writeConfig(t, dir, "access_token: tok\n")
	migrated, err = MigrateLegacyKeys(dir)
	require.NoError(t, err)
	assert.False(t, migrated)
}
