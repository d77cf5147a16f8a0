// Package config resolves memviz's runtime settings: the debugger and
// compiler binaries to invoke, default hop limit and symbol-index mode, and
// an optional on-disk override file at ~/.memviz/config.yaml.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultGDB      = "gdb"
	defaultCC       = "cc"
	defaultHopLimit = 8
)

// Config is memviz's resolved runtime settings. Zero values in the on-disk
// file mean "use the built-in default".
type Config struct {
	GDBPath         string `yaml:"gdb_path,omitempty"`
	CCPath          string `yaml:"cc_path,omitempty"`
	DefaultHopLimit int    `yaml:"default_hop_limit,omitempty"`
	SymbolIndexMode string `yaml:"symbol_index_mode,omitempty"`
	TUIDebugKeys    bool   `yaml:"tui_debug_keys,omitempty"`
}

// Load reads ~/.memviz/config.yaml if present (a missing file is not an
// error), then layers GDB/CC/MEMVIZ_TUI_DEBUG_KEYS environment overrides on
// top, then fills in built-in defaults for anything still unset.
func Load() (*Config, error) {
	cfg := &Config{}

	dir, err := UserConfigDir()
	if err == nil {
		path := filepath.Join(dir, "config.yaml")
		if data, readErr := os.ReadFile(path); readErr == nil {
			if yamlErr := yaml.Unmarshal(data, cfg); yamlErr != nil {
				return nil, yamlErr
			}
		}
	}

	if v := os.Getenv("GDB"); v != "" {
		cfg.GDBPath = v
	}
	if v := os.Getenv("CC"); v != "" {
		cfg.CCPath = v
	}
	if os.Getenv("MEMVIZ_TUI_DEBUG_KEYS") != "" {
		cfg.TUIDebugKeys = true
	}

	if cfg.GDBPath == "" {
		cfg.GDBPath = defaultGDB
	}
	if cfg.CCPath == "" {
		cfg.CCPath = defaultCC
	}
	if cfg.DefaultHopLimit <= 0 {
		cfg.DefaultHopLimit = defaultHopLimit
	}
	if cfg.SymbolIndexMode == "" {
		cfg.SymbolIndexMode = "debug-only"
	}
	return cfg, nil
}

// Save writes cfg to ~/.memviz/config.yaml, creating the directory if
// needed.
func Save(cfg *Config) error {
	dir, err := UserConfigDir()
	if err != nil {
		return err
	}
	if err := EnsureConfigDir(dir); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644)
}
