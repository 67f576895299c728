package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8188), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, int64(DefaultMaxUploadBytes), cfg.Import.MaxUploadBytes)
	assert.Equal(t, "Imported bookmarks", cfg.Import.DefaultWrapFolder)
	assert.Equal(t, 30*time.Minute, cfg.Import.StaleAfter)
	assert.Equal(t, AuthModeNone, cfg.Auth.Mode)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, 168*time.Hour, cfg.Redis.CanonicalTTL)
	assert.Equal(t, 90, cfg.Audit.RetentionDays)
	assert.True(t, cfg.Tasks.Enabled)
	assert.Equal(t, "30 3 * * *", cfg.Tasks.TagCleanupSchedule)
	assert.Equal(t, "*/5 * * * *", cfg.Import.ReaperSchedule)
}

func TestNewConfig_FromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("AUTH_MODE", "token")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("IMPORT_MAX_UPLOAD_BYTES", "1024")
	t.Setenv("IMPORT_STALE_AFTER", "2h")
	t.Setenv("TASKS_ENABLED", "false")
	t.Setenv("LOG_PRETTY", "true")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, AuthModeToken, cfg.Auth.Mode)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, int64(1024), cfg.Import.MaxUploadBytes)
	assert.Equal(t, 2*time.Hour, cfg.Import.StaleAfter)
	assert.False(t, cfg.Tasks.Enabled)
	assert.True(t, cfg.Log.Pretty)
}

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), ".env")))
	})

	t.Run("loads values without overriding", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("MARKED_TEST_DOTENV=from-file\nMARKED_TEST_PRESET=from-file\n"), 0o600))

		t.Setenv("MARKED_TEST_PRESET", "from-env")
		t.Cleanup(func() { os.Unsetenv("MARKED_TEST_DOTENV") })

		require.NoError(t, LoadDotEnv(path))
		assert.Equal(t, "from-file", os.Getenv("MARKED_TEST_DOTENV"))
		assert.Equal(t, "from-env", os.Getenv("MARKED_TEST_PRESET"))
	})
}
