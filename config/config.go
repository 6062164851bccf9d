// Package config loads the compiler's optional TOML configuration file
// (ambient concern, not part of spec.md's core three subsystems).
//
// Grounded on lookbusy1344-arm_emulator/config/config.go: a nested-struct
// Config decoded with github.com/BurntSushi/toml, a Default() fallback
// used whenever the file is absent, and a platform-agnostic "look in the
// working directory, else use the default" resolution in place of that
// teacher's XDG-path lookup (this compiler has no per-user state to
// persist between runs, so there is nothing to justify a config
// directory under the user's home).
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultPath is the file Load looks for when no explicit path is given.
const DefaultPath = ".eecscfg.toml"

// Config is the compiler's full set of user-tunable settings.
type Config struct {
	Codegen struct {
		IndentWidth   int    `toml:"indent_width"`
		RuntimeHeader string `toml:"runtime_header"`
		EmitComments  bool   `toml:"emit_comments"`
	} `toml:"codegen"`

	Toolchain struct {
		GCC           string   `toml:"gcc"`
		RuntimeDir    string   `toml:"runtime_dir"`
		RuntimeSource string   `toml:"runtime_source"`
		ExtraFlags    []string `toml:"extra_flags"`
	} `toml:"toolchain"`
}

// Default returns the configuration used when no file is present or given.
func Default() *Config {
	cfg := &Config{}
	cfg.Codegen.IndentWidth = 4
	cfg.Codegen.RuntimeHeader = "runtime.h"
	cfg.Codegen.EmitComments = true

	cfg.Toolchain.GCC = "gcc"
	cfg.Toolchain.RuntimeDir = "runtime"
	cfg.Toolchain.RuntimeSource = "runtime/runtime.c"
	return cfg
}

// Load reads DefaultPath from the current working directory, falling
// back to Default() silently if it does not exist.
func Load() (*Config, error) {
	return LoadFrom(DefaultPath)
}

// LoadFrom reads path, merging its values onto Default(). A missing file
// is not an error: the defaults carry the compiler's whole behavior when
// no config is present, matching the teacher's forgiving flag defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}
	return cfg, nil
}
