package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nbrowse/nbrowse/internal/util"
)

func TestNewConfig_WithNilOverride(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(nil)

	require.NotNil(t, cfg)
	assert.Equal(t, NewDefaultConfig(), cfg, "must use default values when no override provided")
}

func TestConfig_Merge(t *testing.T) {
	t.Parallel()

	cfg := NewConfig(&ConfigOverride{
		Color:          util.Pointer(false),
		LogLevel:       util.Pointer(4),
		FileTypes:      map[string]string{".rst": "text"},
		ContainerTypes: map[string]string{".rar": "rar"},
		Programs:       map[string]string{"pdf": "zathura"},
	})

	assert.False(t, cfg.Color)
	assert.Equal(t, 4, cfg.LogLevel)
	assert.Equal(t, "text", cfg.FileTypes[".rst"])
	assert.Equal(t, "rar", cfg.ContainerTypes[".rar"])
	assert.Equal(t, "zathura", cfg.Programs["pdf"])
}

func TestConfig_Merge_Partial(t *testing.T) {
	t.Parallel()

	cfg := NewDefaultConfig()
	cfg.Programs["pdf"] = "zathura"

	cfg.Merge(&ConfigOverride{Programs: map[string]string{"video": "mpv"}})

	assert.True(t, cfg.Color, "unset fields keep their values")
	assert.Equal(t, "zathura", cfg.Programs["pdf"], "map merges preserve existing entries")
	assert.Equal(t, "mpv", cfg.Programs["video"])
}

func TestLoadConfigOverrideFile_YAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "color: false\nlog_level: 1\nprograms:\n  pdf: zathura\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	override, err := LoadConfigOverrideFile(path)
	require.NoError(t, err)
	require.NotNil(t, override.Color)
	assert.False(t, *override.Color)
	require.NotNil(t, override.LogLevel)
	assert.Equal(t, 1, *override.LogLevel)
	assert.Equal(t, "zathura", override.Programs["pdf"])
}

func TestLoadConfigOverrideFile_JSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"file_types": {".rst": "text"}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	override, err := LoadConfigOverrideFile(path)
	require.NoError(t, err)
	assert.Equal(t, "text", override.FileTypes[".rst"])
	assert.Nil(t, override.Color)
}

func TestLoadConfigOverrideFile_UnknownExtension(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))

	_, err := LoadConfigOverrideFile(path)
	assert.ErrorContains(t, err, "unknown config file extension")
}

func TestNewConfigFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("color: false\n"), 0o644))

	cfg, err := NewConfigFromFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Color)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel, "unset fields fall back to defaults")
}
