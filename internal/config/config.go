// Package config loads rose config from YAML. Env overrides take precedence.
package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RemoteConfig configures the optional remote object store for filtered bags.
type RemoteConfig struct {
	Type       string `yaml:"type"` // "s3", "folder", or "" (disabled)
	Bucket     string `yaml:"bucket"`
	Region     string `yaml:"region"`
	Endpoint   string `yaml:"endpoint"`
	PathStyle  bool   `yaml:"path_style"`
	Prefix     string `yaml:"prefix"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	FolderPath string `yaml:"folder_path"`
	Encrypt    bool   `yaml:"encrypt"`
	KeyHex     string `yaml:"key_hex"` // 64 hex chars when encrypt is true
}

// Config holds resolved paths and settings. Paths use XDG defaults when not in file.
type Config struct {
	CodecBin     string       `yaml:"codec_bin"`
	WhitelistDir string       `yaml:"whitelist_dir"`
	DbPath       string       `yaml:"db_path"`
	ArchiveDir   string       `yaml:"archive_dir"`
	Workers      int          `yaml:"workers"`
	Remote       RemoteConfig `yaml:"remote"`
}

type rawConfig struct {
	CodecBin     string       `yaml:"codec_bin"`
	WhitelistDir string       `yaml:"whitelist_dir"`
	DbPath       string       `yaml:"db_path"`
	ArchiveDir   string       `yaml:"archive_dir"`
	Workers      int          `yaml:"workers"`
	Remote       RemoteConfig `yaml:"remote"`
}

// Load reads config from XDG_CONFIG_HOME/rose/config.yaml. Missing file uses defaults.
// Env overrides: ROSE_CODEC_BIN, ROSE_WHITELIST_DIR, ROSE_DB_PATH, ROSE_ARCHIVE_DIR.
func Load() (*Config, error) {
	dataHome := xdgDataHome()
	configHome := xdgConfigHome()
	path := filepath.Join(configHome, "rose", "config.yaml")

	c := &Config{
		CodecBin:     "rosbag-codec",
		WhitelistDir: filepath.Join(configHome, "rose", "whitelists"),
		DbPath:       filepath.Join(dataHome, "rose", "rose.db"),
		ArchiveDir:   filepath.Join(dataHome, "rose", "archive"),
		Workers:      4,
	}

	b, err := os.ReadFile(path)
	if err == nil {
		var raw rawConfig
		if err := yaml.Unmarshal(b, &raw); err != nil {
			return nil, err
		}
		if raw.CodecBin != "" {
			c.CodecBin = raw.CodecBin
		}
		if raw.WhitelistDir != "" {
			c.WhitelistDir = resolvePath(raw.WhitelistDir, dataHome)
		}
		if raw.DbPath != "" {
			c.DbPath = resolvePath(raw.DbPath, dataHome)
		}
		if raw.ArchiveDir != "" {
			c.ArchiveDir = resolvePath(raw.ArchiveDir, dataHome)
		}
		if raw.Workers > 0 {
			c.Workers = raw.Workers
		}
		c.Remote = raw.Remote
		if c.Remote.FolderPath != "" {
			c.Remote.FolderPath = resolvePath(c.Remote.FolderPath, dataHome)
		}
	}

	// Env overrides
	if v := os.Getenv("ROSE_CODEC_BIN"); v != "" {
		c.CodecBin = v
	}
	if v := os.Getenv("ROSE_WHITELIST_DIR"); v != "" {
		c.WhitelistDir = v
	}
	if v := os.Getenv("ROSE_DB_PATH"); v != "" {
		c.DbPath = v
	}
	if v := os.Getenv("ROSE_ARCHIVE_DIR"); v != "" {
		c.ArchiveDir = v
	}

	return c, nil
}

// MasterKey decodes the configured encryption key. Returns nil when
// encryption is disabled.
func (r RemoteConfig) MasterKey() ([]byte, error) {
	if !r.Encrypt {
		return nil, nil
	}
	key, err := hex.DecodeString(r.KeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode key_hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("key_hex must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

func xdgDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share")
}

func xdgConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config")
}

// resolvePath expands $XDG_DATA_HOME, $HOME in paths from config file.
func resolvePath(p, dataHome string) string {
	return filepath.Clean(os.Expand(p, func(key string) string {
		if key == "XDG_DATA_HOME" {
			return dataHome
		}
		if key == "XDG_CONFIG_HOME" {
			return xdgConfigHome()
		}
		if key == "HOME" {
			home, _ := os.UserHomeDir()
			return home
		}
		return ""
	}))
}
