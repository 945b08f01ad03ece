// Package paths resolves the configuration, data and schema directories
// recordc works with. Each follows the same precedence: command-line flag,
// then config.yaml, then environment variable, then a default.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// appName names the per-user directories.
const appName = "records"

// Working-directory-relative defaults.
const (
	DefaultDataDirName   = ".records-db"
	DefaultSchemaDirName = "schemas"
)

// Environment variable overrides.
const (
	EnvConfigDir = "RECORDS_CONFIG_DIR"
	EnvDataDir   = "RECORDS_DATA_DIR"
	EnvSchemaDir = "RECORDS_SCHEMA_DIR"
)

// platformDir is swapped out in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
	getwd         func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
	getwd:         os.Getwd,
}

// DefaultConfigDir returns the per-user configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/records (fallback ~/.config/records)
// macOS:   ~/Library/Application Support/records
// Windows: %APPDATA%/records
func DefaultConfigDir() (string, error) {
	if runtime.GOOS != "linux" {
		dir, err := platformDir.userConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(dir, appName), nil
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}

// DefaultDataDir returns $(CWD)/.records-db. Record stores are per project,
// so the default follows the working directory rather than the user.
func DefaultDataDir() (string, error) {
	return cwdJoin(DefaultDataDirName)
}

// DefaultSchemaDir returns $(CWD)/schemas.
func DefaultSchemaDir() (string, error) {
	return cwdJoin(DefaultSchemaDirName)
}

func cwdJoin(name string) (string, error) {
	cwd, err := platformDir.getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, name), nil
}

// ResolveConfigDir returns flag, else $RECORDS_CONFIG_DIR, else
// DefaultConfigDir. config.yaml lives in this directory, so it has no
// config.yaml step.
func ResolveConfigDir(flag string) (string, error) {
	return resolve(flag, "", EnvConfigDir, DefaultConfigDir)
}

// ResolveDataDir returns flag, else the data_dir value from config.yaml,
// else $RECORDS_DATA_DIR, else DefaultDataDir.
func ResolveDataDir(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvDataDir, DefaultDataDir)
}

// ResolveSchemaDir returns flag, else the schema_dir value from
// config.yaml, else $RECORDS_SCHEMA_DIR, else DefaultSchemaDir.
func ResolveSchemaDir(flag, configValue string) (string, error) {
	return resolve(flag, configValue, EnvSchemaDir, DefaultSchemaDir)
}

// resolve walks the precedence chain. Explicit values are made absolute.
func resolve(flag, configValue, env string, fallback func() (string, error)) (string, error) {
	for _, v := range []string{flag, configValue, os.Getenv(env)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	return fallback()
}
