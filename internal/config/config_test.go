package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// No config file - use defaults
	dir := t.TempDir()
	if err := os.Setenv("XDG_CONFIG_HOME", dir); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Unsetenv("XDG_CONFIG_HOME"); err != nil {
			t.Logf("Warning: failed to unsetenv: %v", err)
		}
	}()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CodecBin != "rosbag-codec" {
		t.Errorf("CodecBin = %q, want rosbag-codec", c.CodecBin)
	}
	if c.DbPath == "" {
		t.Error("DbPath should not be empty")
	}
	if c.Workers != 4 {
		t.Errorf("Workers = %d, want 4", c.Workers)
	}
	if c.Remote.Type != "" {
		t.Errorf("Remote.Type = %q, want empty (disabled)", c.Remote.Type)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "rose")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	content := `codec_bin: /opt/ros/codec
db_path: /custom/rose.db
remote:
  type: s3
  bucket: rose-bags
  region: us-east-1
  prefix: filtered
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Setenv("XDG_CONFIG_HOME", dir); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Unsetenv("XDG_CONFIG_HOME"); err != nil {
			t.Logf("Warning: failed to unsetenv: %v", err)
		}
	}()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CodecBin != "/opt/ros/codec" {
		t.Errorf("CodecBin = %q, want /opt/ros/codec", c.CodecBin)
	}
	if c.DbPath != "/custom/rose.db" {
		t.Errorf("DbPath = %q, want /custom/rose.db", c.DbPath)
	}
	if c.Remote.Type != "s3" || c.Remote.Bucket != "rose-bags" {
		t.Errorf("Remote = %+v, want s3/rose-bags", c.Remote)
	}
}

func TestLoadPathExpansion(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "rose")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	content := `archive_dir: $XDG_DATA_HOME/rose/archive
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Setenv("XDG_CONFIG_HOME", dir); err != nil {
		t.Fatal(err)
	}
	dataHome := filepath.Join(dir, "data")
	if err := os.Setenv("XDG_DATA_HOME", dataHome); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Unsetenv("XDG_CONFIG_HOME"); err != nil {
			t.Logf("Warning: failed to unsetenv: %v", err)
		}
		if err := os.Unsetenv("XDG_DATA_HOME"); err != nil {
			t.Logf("Warning: failed to unsetenv: %v", err)
		}
	}()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(dataHome, "rose", "archive")
	if c.ArchiveDir != want {
		t.Errorf("ArchiveDir = %q, want %q", c.ArchiveDir, want)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configDir := filepath.Join(dir, "rose")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("codec_bin: /from/file\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Setenv("XDG_CONFIG_HOME", dir); err != nil {
		t.Fatal(err)
	}
	if err := os.Setenv("ROSE_CODEC_BIN", "/env/override"); err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := os.Unsetenv("XDG_CONFIG_HOME"); err != nil {
			t.Logf("Warning: failed to unsetenv: %v", err)
		}
		if err := os.Unsetenv("ROSE_CODEC_BIN"); err != nil {
			t.Logf("Warning: failed to unsetenv: %v", err)
		}
	}()

	c, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CodecBin != "/env/override" {
		t.Errorf("CodecBin = %q, want /env/override (env takes precedence)", c.CodecBin)
	}
}

func TestMasterKey(t *testing.T) {
	r := RemoteConfig{}
	key, err := r.MasterKey()
	if err != nil || key != nil {
		t.Errorf("MasterKey with encryption off = %v, %v; want nil, nil", key, err)
	}

	r = RemoteConfig{Encrypt: true, KeyHex: hex.EncodeToString(make([]byte, 32))}
	key, err = r.MasterKey()
	if err != nil {
		t.Fatalf("MasterKey: %v", err)
	}
	if len(key) != 32 {
		t.Errorf("key length = %d, want 32", len(key))
	}

	r = RemoteConfig{Encrypt: true, KeyHex: "abcd"}
	if _, err := r.MasterKey(); err == nil {
		t.Error("short key should fail")
	}

	r = RemoteConfig{Encrypt: true, KeyHex: "not-hex"}
	if _, err := r.MasterKey(); err == nil {
		t.Error("non-hex key should fail")
	}
}
