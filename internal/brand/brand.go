// Package brand provides centralized naming constants for dvr.
//
// The identity is loaded from brand.json at compile time via go:embed so that
// scripts and packaging read the same values as the binary.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name               string `json:"name"`
	LowerName          string `json:"lowerName"`
	Description        string `json:"description"`
	Tagline            string `json:"tagline"`
	ConfigEnvPrefix    string `json:"configEnvPrefix"`
	DefaultConfigDir   string `json:"defaultConfigDir"`
	DefaultStateDir    string `json:"defaultStateDir"`
	BinaryName         string `json:"binaryName"`
	ConfigFileName     string `json:"configFileName"`
	DefaultControlAddr string `json:"defaultControlAddr"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Description = b.Description
	Tagline = b.Tagline
	ConfigEnvPrefix = b.ConfigEnvPrefix
	DefaultConfigDir = b.DefaultConfigDir
	DefaultStateDir = b.DefaultStateDir
	BinaryName = b.BinaryName
	ConfigFileName = b.ConfigFileName
	DefaultControlAddr = b.DefaultControlAddr
}

var (
	Name               string
	LowerName          string
	Description        string
	Tagline            string
	ConfigEnvPrefix    string
	DefaultConfigDir   string
	DefaultStateDir    string
	BinaryName         string
	ConfigFileName     string
	DefaultControlAddr string

	// Version is set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// UserAgent returns a User-Agent string for HTTP requests
func UserAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return Name + "/" + version
}

// EnvKey returns the environment variable name for a setting, e.g. DVR_LISTEN.
func EnvKey(name string) string {
	return ConfigEnvPrefix + "_" + name
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: DVR_CONFIG_DIR > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(EnvKey("CONFIG_DIR")); dir != "" {
		return dir
	}
	return DefaultConfigDir
}

// DefaultConfigPath is the config file used when -c is not given.
func DefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}

// GetStateDir returns the state directory (audit journal), checking env vars first.
func GetStateDir() string {
	if dir := os.Getenv(EnvKey("STATE_DIR")); dir != "" {
		return dir
	}
	return DefaultStateDir
}
