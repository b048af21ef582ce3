// Package config resolves runtime settings from environment variables and
// any Viper-bound configuration source.
package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Environment variable names. Each may equally be set through a config file
// bound into Viper.
const (
	EnvDataDir      = "MEDIAINTEL_DATA_DIR"
	EnvMasterDir    = "MEDIAINTEL_MASTER_DIR"
	EnvStorePath    = "MEDIAINTEL_STORE"
	EnvMirrorPath   = "MEDIAINTEL_MIRROR"
	EnvBusinessUnit = "MEDIAINTEL_BUSINESS_UNIT"
)

// GetString returns the value for key, checking the OS environment first
// and falling back to Viper.
func GetString(key string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return viper.GetString(key)
}

// getStringDefault returns the configured value or fallback when unset.
func getStringDefault(key, fallback string) string {
	if value := GetString(key); value != "" {
		return value
	}
	return fallback
}

// Config carries the resolved file locations and defaults for one run.
type Config struct {
	// DataDir is the root under which everything else defaults.
	DataDir string
	// MasterDir holds the master taxonomy YAML files and the version log.
	MasterDir string
	// StorePath is the operational SQLite database.
	StorePath string
	// MirrorPath is the reporting mirror SQLite database.
	MirrorPath string
	// BusinessUnit scopes validation when the command line does not name one.
	BusinessUnit string
}

// Load resolves the configuration, applying defaults rooted at the data
// directory (./data unless overridden).
func Load() Config {
	dataDir := getStringDefault(EnvDataDir, "data")
	return Config{
		DataDir:      dataDir,
		MasterDir:    getStringDefault(EnvMasterDir, filepath.Join(dataDir, "master")),
		StorePath:    getStringDefault(EnvStorePath, filepath.Join(dataDir, "mediaintel.db")),
		MirrorPath:   getStringDefault(EnvMirrorPath, filepath.Join(dataDir, "mirror.db")),
		BusinessUnit: GetString(EnvBusinessUnit),
	}
}
