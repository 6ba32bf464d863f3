package brand

import (
	"path/filepath"
	"testing"
)

func TestGet(t *testing.T) {
	b := Get()
	if b.Name == "" {
		t.Error("Brand name should not be empty")
	}
	if Version == "" {
		t.Error("Global Version should be initialized (to dev default)")
	}
	if BinaryName != "dvr" {
		t.Errorf("Expected binary name dvr, got %s", BinaryName)
	}
}

func TestUserAgent(t *testing.T) {
	if ua := UserAgent("1.0.0"); ua != Name+"/1.0.0" {
		t.Errorf("unexpected user agent %q", ua)
	}
	if ua := UserAgent(""); ua != Name+"/dev" {
		t.Errorf("unexpected default user agent %q", ua)
	}
}

func TestGetDirectories(t *testing.T) {
	t.Setenv(EnvKey("CONFIG_DIR"), "")
	t.Setenv(EnvKey("STATE_DIR"), "")

	if GetConfigDir() != DefaultConfigDir {
		t.Errorf("Expected default config dir %s, got %s", DefaultConfigDir, GetConfigDir())
	}
	if GetStateDir() != DefaultStateDir {
		t.Errorf("Expected default state dir %s, got %s", DefaultStateDir, GetStateDir())
	}

	t.Setenv(EnvKey("CONFIG_DIR"), "/tmp/dvr-conf")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/dvr-conf", ConfigFileName) {
		t.Errorf("unexpected config path %s", got)
	}
}
