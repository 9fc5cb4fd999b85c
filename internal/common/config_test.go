package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	config := NewDefaultConfig()

	assert.Equal(t, "development", config.Environment)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, 4, config.Print.Workers)
	assert.Equal(t, 32, config.Print.QueueSize)
	assert.Equal(t, 5*time.Minute, config.Print.RenderTimeout)
	assert.Equal(t, time.Hour, config.Retention.JobTTL)
	assert.Equal(t, "./layouts", config.Layouts.Dir)
	assert.False(t, config.IsProduction())
}

func TestLoadFromFiles_Overrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "charta.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment = "production"

[server]
port = 9090

[print]
workers = 2
queue_size = 8
`), 0644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, "production", config.Environment)
	assert.True(t, config.IsProduction())
	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, 2, config.Print.Workers)
	assert.Equal(t, 8, config.Print.QueueSize)

	// Values not in the file keep their defaults.
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, "./layouts", config.Layouts.Dir)
}

func TestLoadFromFiles_EnvOverrides(t *testing.T) {
	t.Setenv("CHARTA_SERVER_PORT", "7070")
	t.Setenv("CHARTA_PRINT_WORKERS", "6")
	t.Setenv("CHARTA_LOG_LEVEL", "debug")
	t.Setenv("CHARTA_LOG_OUTPUT", "stdout, file")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, config.Server.Port)
	assert.Equal(t, 6, config.Print.Workers)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.Equal(t, []string{"stdout", "file"}, config.Logging.Output)
}

func TestLoadFromFiles_MissingFile(t *testing.T) {
	_, err := LoadFromFiles("/nonexistent/charta.toml")
	assert.Error(t, err)
}

func TestLoadFromFiles_RejectsInvalidValues(t *testing.T) {
	t.Setenv("CHARTA_PRINT_WORKERS", "0")

	_, err := LoadFromFiles()
	assert.Error(t, err)
}

func TestApplyFlagOverrides(t *testing.T) {
	config := NewDefaultConfig()

	ApplyFlagOverrides(config, 9999, "0.0.0.0")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)

	// Zero values leave the config untouched.
	ApplyFlagOverrides(config, 0, "")
	assert.Equal(t, 9999, config.Server.Port)
	assert.Equal(t, "0.0.0.0", config.Server.Host)
}
