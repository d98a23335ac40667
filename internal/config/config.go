package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/bumpwright/bumpwright/internal/branding"
)

const (
	fileName = "config"
	fileType = "yaml"
)

// Keys understood by the CLI.
const (
	KeyWorkspace        = "workspace"
	KeyRegistry         = "registry"
	KeyManifestName     = "manifest_name"
	KeyLogLevel         = "log_level"
	KeyDependencyTables = "dependency_tables"
	KeyMasterBranch     = "master_branch"
	KeyCrateBranch      = "crate_branch"
)

var defaults = map[string]interface{}{
	KeyWorkspace:        ".",
	KeyRegistry:         "",
	KeyManifestName:     "Cargo.toml",
	KeyLogLevel:         "info",
	KeyDependencyTables: []string{"dependencies"},
	KeyMasterBranch:     "master-release-update",
	KeyCrateBranch:      "crate-release-update",
}

// Keys returns every known key, sorted.
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// IsKnown reports whether key is one of Keys.
func IsKnown(key string) bool {
	_, ok := defaults[key]
	return ok
}

// Dir returns the path to the config directory (~/.bumpwright/).
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", branding.HomeDir())
	}
	return filepath.Join(home, branding.HomeDir())
}

// FilePath returns the full path to the config file (~/.bumpwright/config.yaml).
func FilePath() string {
	return filepath.Join(Dir(), fileName+"."+fileType)
}

// EnsureDir creates the config directory if it does not exist.
func EnsureDir() error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return nil
}

// Load initializes Viper to read from the config file and environment.
func Load() {
	for k, v := range defaults {
		viper.SetDefault(k, v)
	}
	viper.SetConfigFile(FilePath())
	viper.SetConfigType(fileType)
	viper.SetEnvPrefix(branding.EnvPrefix())
	viper.AutomaticEnv()

	// Ignore error if config file doesn't exist yet.
	_ = viper.ReadInConfig()
}

// Get returns a config value by key. Returns empty string if not set.
// List values are joined with commas.
func Get(key string) string {
	if _, ok := defaults[key].([]string); ok {
		return strings.Join(GetStringSlice(key), ",")
	}
	return viper.GetString(key)
}

// GetStringSlice returns a list value. A single string is split on commas.
func GetStringSlice(key string) []string {
	var out []string
	for _, item := range viper.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Set writes a config key-value pair and saves the config file. Values of
// list keys are split on commas.
func Set(key, value string) error {
	if !IsKnown(key) {
		return fmt.Errorf("unknown config key %q, known keys: %s", key, strings.Join(Keys(), ", "))
	}
	if err := EnsureDir(); err != nil {
		return err
	}

	if _, ok := defaults[key].([]string); ok {
		var items []string
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		viper.Set(key, items)
	} else {
		viper.Set(key, value)
	}

	configFile := FilePath()

	// Create the file if it doesn't exist.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("creating config file %s: %w", configFile, err)
		}
		f.Close()
	}

	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
