package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 2*time.Second, cfg.Database.LockTimeout)
	assert.Equal(t, 3, cfg.Engine.MaxRetries)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.MinBackoff)
	assert.Equal(t, 500*time.Millisecond, cfg.Engine.MaxBackoff)
	assert.Equal(t, int64(3), cfg.Engine.SnapDareVetoPenalty)
	assert.Equal(t, "duel:timers", cfg.Redis.QueueKey)
	assert.Equal(t, 2*time.Second, cfg.Timers.PollInterval)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	yaml := []byte("database:\n  host: db.internal\n  port: 6543\nengine:\n  max_retries: 5\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), yaml, 0o600))

	t.Setenv("DATABASE_HOST", "from-env")
	t.Setenv("REDIS_ADDR", "redis:6380")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, 5, cfg.Engine.MaxRetries)
	assert.Equal(t, "redis:6380", cfg.Redis.Addr)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=dotenv-token\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("BOT_TOKEN") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-token", cfg.Bot.Token)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{User: "u", Password: "p", Host: "h", Port: 1, Name: "n"}
	assert.Equal(t, "postgres://u:p@h:1/n?sslmode=disable", d.DSN())
}

func TestConfig_IsAdmin(t *testing.T) {
	cfg := &Config{Admin: AdminConfig{IDs: []int64{7, 42}}}
	assert.True(t, cfg.IsAdmin(42))
	assert.False(t, cfg.IsAdmin(8))
}

func TestConfig_IsChatAllowed(t *testing.T) {
	open := &Config{}
	assert.True(t, open.IsChatAllowed(-100123), "empty whitelist allows every chat")

	closed := &Config{Whitelist: WhitelistConfig{Chats: []int64{-100123}}}
	assert.True(t, closed.IsChatAllowed(-100123))
	assert.False(t, closed.IsChatAllowed(-100999))
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir for Go < 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
