package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutriguide/nutriload/internal/config"
	"github.com/nutriguide/nutriload/internal/logging"
	"github.com/nutriguide/nutriload/pkg/nutriload"
)

func TestLoadProjectConfig_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prod.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection:\n  database: nutrition\ntimeout: 5m\n"), 0644))

	cfg, err := loadProjectConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "nutrition", cfg.Connection.Database)
}

func TestLoadProjectConfig_MissingExplicitPath(t *testing.T) {
	_, err := loadProjectConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, nutriload.ErrInvalidConfig)
}

func TestLoadProjectConfig_MalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline: [unclosed"), 0644))

	_, err := loadProjectConfig(path)
	assert.ErrorIs(t, err, nutriload.ErrInvalidConfig)
}

func TestResolveEffectiveTimeout(t *testing.T) {
	newCmd := func() *cobra.Command {
		cmd := &cobra.Command{}
		cmd.Flags().Duration("timeout", time.Minute, "")
		return cmd
	}

	t.Run("flag default when no project config", func(t *testing.T) {
		got, err := resolveEffectiveTimeout(newCmd(), nil, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, time.Minute, got)
	})

	t.Run("project config when flag unset", func(t *testing.T) {
		got, err := resolveEffectiveTimeout(newCmd(), &config.ProjectConfig{Timeout: "10m"}, time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 10*time.Minute, got)
	})

	t.Run("explicit flag wins", func(t *testing.T) {
		cmd := newCmd()
		require.NoError(t, cmd.Flags().Set("timeout", "30s"))
		got, err := resolveEffectiveTimeout(cmd, &config.ProjectConfig{Timeout: "10m"}, 30*time.Second)
		require.NoError(t, err)
		assert.Equal(t, 30*time.Second, got)
	})

	t.Run("invalid project timeout", func(t *testing.T) {
		_, err := resolveEffectiveTimeout(newCmd(), &config.ProjectConfig{Timeout: "soon"}, time.Minute)
		assert.ErrorIs(t, err, nutriload.ErrInvalidConfig)
	})

	t.Run("non-positive flag", func(t *testing.T) {
		_, err := resolveEffectiveTimeout(newCmd(), nil, 0)
		assert.ErrorIs(t, err, nutriload.ErrInvalidConfig)
	})
}

func TestNewLogger(t *testing.T) {
	text, err := newLogger(logFormatText, false, "run-1")
	require.NoError(t, err)
	assert.IsType(t, &logging.ConsoleLogger{}, text.Logger)

	js, err := newLogger(logFormatJSON, true, "run-1")
	require.NoError(t, err)
	assert.IsType(t, &logging.ZapLogger{}, js.Logger)
	js.sync()

	_, err = newLogger("xml", false, "run-1")
	assert.ErrorIs(t, err, nutriload.ErrInvalidConfig)
}
