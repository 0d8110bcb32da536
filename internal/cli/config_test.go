package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hitolog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  path: /tmp/contacts.db\nlog:\n  level: debug\n"), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.NotNil(t, cfg)
		assert.Equal(t, "/tmp/contacts.db", cfg.Database.Path)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("missing log level defaults to info", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hitolog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database:\n  path: x.db\n"), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.Log.Level)
	})

	t.Run("malformed yaml fails", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hitolog.yaml")
		require.NoError(t, os.WriteFile(path, []byte("database: [broken"), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("unreadable explicit path fails", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Database.Path)
}
