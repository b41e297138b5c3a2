package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfigHasSaneBaseline(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "APA (7th ed.)", config.Style)
	assert.Equal(t, 4, config.Resolver.FanOutWorkers)
	assert.Equal(t, 10, config.Workers.NoteRewriteConcurrency)
	assert.True(t, config.Providers.Crossref.Enabled)
	assert.False(t, config.Providers.WebIndex.Enabled)
	assert.False(t, config.Oracle.Enabled)
}

func TestLoadFromFilesMergesInOrder(t *testing.T) {
	dir := t.TempDir()

	first := filepath.Join(dir, "first.toml")
	require.NoError(t, os.WriteFile(first, []byte(`
style = "MLA"

[workers]
note_rewrite_concurrency = 20
`), 0644))

	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(second, []byte(`
style = "Chicago"
`), 0644))

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)

	// second.toml's style overrides first.toml's.
	assert.Equal(t, "Chicago", config.Style)
	// first.toml's setting survives since second.toml doesn't touch it.
	assert.Equal(t, 20, config.Workers.NoteRewriteConcurrency)
	// untouched sections keep their defaults.
	assert.Equal(t, 10.0, config.Resolver.Timeout.Seconds())
}

func TestLoadFromFilesRejectsUnreadableFile(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestApplyEnvOverridesTakesPriorityOverFiles(t *testing.T) {
	t.Setenv("CITEFLEX_STYLE", "Vancouver")
	t.Setenv("CITEFLEX_LOG_LEVEL", "debug")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`style = "APA (7th ed.)"`), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "Vancouver", config.Style)
	assert.Equal(t, "debug", config.Logging.Level)
}
