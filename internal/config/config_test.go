package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GDB", "")
	t.Setenv("CC", "")
	t.Setenv("MEMVIZ_TUI_DEBUG_KEYS", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gdb", cfg.GDBPath)
	assert.Equal(t, "cc", cfg.CCPath)
	assert.Equal(t, defaultHopLimit, cfg.DefaultHopLimit)
	assert.Equal(t, "debug-only", cfg.SymbolIndexMode)
	assert.False(t, cfg.TUIDebugKeys)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GDB", "/opt/gdb/bin/gdb")
	t.Setenv("CC", "clang")
	t.Setenv("MEMVIZ_TUI_DEBUG_KEYS", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/opt/gdb/bin/gdb", cfg.GDBPath)
	assert.Equal(t, "clang", cfg.CCPath)
	assert.True(t, cfg.TUIDebugKeys)
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("GDB", "")
	t.Setenv("CC", "")
	t.Setenv("MEMVIZ_TUI_DEBUG_KEYS", "")

	written := &Config{GDBPath: "/usr/bin/gdb", DefaultHopLimit: 16, SymbolIndexMode: "debug-and-nondebug"}
	require.NoError(t, Save(written))

	dir, err := UserConfigDir()
	require.NoError(t, err)
	_, statErr := os.Stat(dir)
	require.NoError(t, statErr)

	loaded, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/usr/bin/gdb", loaded.GDBPath)
	assert.Equal(t, 16, loaded.DefaultHopLimit)
	assert.Equal(t, "debug-and-nondebug", loaded.SymbolIndexMode)
}
