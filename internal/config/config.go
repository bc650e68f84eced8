// SPDX-License-Identifier: MPL-2.0

// Package config loads user-level defaults for micropack flags: an optional
// .micropackrc.yaml in the package directory or the platform config
// directory, overridden by MICROPACK_* environment variables. CLI flags
// always win over anything loaded here; this layer only shifts flag
// defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

const (
	// AppName is the application name, used for the config directory.
	AppName = "micropack"
	// FileName is the rc file name without extension.
	FileName = ".micropackrc"
)

// Defaults are the user-configurable flag defaults.
type Defaults struct {
	// Formats is the comma-separated default format list.
	Formats string `mapstructure:"formats"`
	// Target is the default platform, node or web.
	Target string `mapstructure:"target"`
	// Sourcemap controls sourcemap emission by default.
	Sourcemap bool `mapstructure:"sourcemap"`
	// Compress controls minification by default.
	Compress bool `mapstructure:"compress"`
}

// Builtin returns the compiled-in defaults used when no rc file or
// environment override exists.
func Builtin() Defaults {
	return Defaults{
		Target:    "web",
		Sourcemap: true,
		Compress:  true,
	}
}

// Dir returns the micropack configuration directory using platform
// conventions: %APPDATA% on Windows, ~/Library/Application Support on macOS,
// $XDG_CONFIG_HOME (default ~/.config) elsewhere.
func Dir() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("APPDATA")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: determine home directory: %w", err)
		}
		base = filepath.Join(home, "Library", "Application Support")
	default:
		base = os.Getenv("XDG_CONFIG_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("config: determine home directory: %w", err)
			}
			base = filepath.Join(home, ".config")
		}
	}
	return filepath.Join(base, AppName), nil
}

// Load reads defaults for a package directory. Lookup order: built-in
// values, then the rc file (package directory first, then the user config
// directory), then MICROPACK_* environment variables. A missing rc file is
// not an error.
func Load(cwd string) (Defaults, error) {
	v := viper.New()

	builtin := Builtin()
	v.SetDefault("formats", builtin.Formats)
	v.SetDefault("target", builtin.Target)
	v.SetDefault("sourcemap", builtin.Sourcemap)
	v.SetDefault("compress", builtin.Compress)

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	if cwd != "" {
		v.AddConfigPath(cwd)
	}
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return builtin, fmt.Errorf("config: read %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var d Defaults
	if err := v.Unmarshal(&d); err != nil {
		return builtin, fmt.Errorf("config: decode defaults: %w", err)
	}
	return d, nil
}
