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
	t.Setenv("POSTGRES_CONN", "postgres://localhost/taskboard")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := NewConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10*time.Minute, cfg.BindingCodeTTL)
	assert.Equal(t, time.Minute, cfg.CleanupInterval)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestNewConfig_FlagsOverrideEnv(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://env/taskboard")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_ADDRESS", "127.0.0.1:9000")

	cfg, err := NewConfig([]string{"-a", ":8081", "-l", "debug"})
	require.NoError(t, err)

	assert.Equal(t, ":8081", cfg.ServerAddress)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "postgres://env/taskboard", cfg.PostgresConn)
}

func TestNewConfig_Required(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := NewConfig(nil)
	require.Error(t, err)
}

func TestValidateBot(t *testing.T) {
	cfg := Config{}
	require.Error(t, cfg.ValidateBot())

	cfg.BotToken = "123:abc"
	require.NoError(t, cfg.ValidateBot())
}

func TestNewConfig_DotEnv(t *testing.T) {
	t.Setenv("POSTGRES_CONN", "postgres://localhost/taskboard")
	t.Setenv("JWT_SECRET", "secret")

	t.Run("missing file is fine", func(t *testing.T) {
		chdir(t, t.TempDir())
		_, err := NewConfig(nil)
		require.NoError(t, err)
	})

	t.Run("malformed file fails", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("BOT_TOKEN=\"unterminated\n"), 0o600))
		chdir(t, dir)

		_, err := NewConfig(nil)
		require.ErrorContains(t, err, ".env")
	})
}

// chdir меняет рабочую директорию на время теста (аналог t.Chdir для go < 1.24)
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(prev)) })
}
