package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[shell]
path = "/bin/sh"
login = true
env = { EDITOR = "vi" }

[terminal]
scrollback = 500
theme = "magpie"

[logging]
level = "debug"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/bin/sh", cfg.Shell.Path)
	assert.True(t, cfg.Shell.Login)
	assert.True(t, cfg.Shell.SourceRC)
	assert.Equal(t, map[string]string{"EDITOR": "vi"}, cfg.Shell.AdditionalEnv)
	assert.Equal(t, 500, cfg.Terminal.Scrollback)
	assert.Equal(t, 4096, cfg.Terminal.ReadBuffer)
	assert.Equal(t, "magpie", cfg.Terminal.Theme)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.OutputPaths)
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := map[string]string{
		"negative scrollback": "[terminal]\nscrollback = -1\n",
		"zero read buffer":    "[terminal]\nread_buffer = 0\n",
		"zero log entries":    "[terminal]\nlog_max_entries = 0\n",
		"zero selection cap":  "[terminal]\nselection_max_bytes = 0\n",
		"relative shell":      "[shell]\npath = \"bash\"\n",
		"unknown key":         "[terminal]\nscrolback = 10\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestLoadReportsSyntaxErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "[terminal\n"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalid)
}

func TestConfigPathHonorsXDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME is only consulted on linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	assert.Equal(t, filepath.Join(dir, "ravencore", "config.toml"), GetConfigPath())
}

func TestGetAvailableShells(t *testing.T) {
	seen := map[string]bool{}
	for _, shell := range GetAvailableShells() {
		_, err := os.Stat(shell)
		assert.NoError(t, err, shell)

		base := filepath.Base(shell)
		assert.False(t, seen[base], "duplicate %s", base)
		seen[base] = true
	}
}
