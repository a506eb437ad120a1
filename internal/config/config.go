package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const (
	ConfigPathEnv = "KAKADU_CONFIG"
	HomeEnv       = "KAKADU_HOME"
)

// Config represents the kakadu configuration file.
type Config struct {
	DefaultVault  string `toml:"default_vault"`
	StatePath     string `toml:"state_path"`
	LogDir        string `toml:"log_dir"`
	LogLevel      string `toml:"log_level"` // debug, info, warn or error
	UseKeyring    bool   `toml:"use_keyring"`
	KeyringName   string `toml:"keyring_service"`
	RootGroupName string `toml:"root_group_name"`
}

// Default returns the configuration used when no file exists.
func Default(homeDir string) *Config {
	return &Config{
		DefaultVault:  filepath.Join(homeDir, "vault.db"),
		StatePath:     filepath.Join(homeDir, "state.db"),
		LogDir:        filepath.Join(homeDir, "log"),
		LogLevel:      "info",
		UseKeyring:    true,
		KeyringName:   "kakadu",
		RootGroupName: "NewDatabase",
	}
}

// Read decodes a Config from r on top of defaults for homeDir.
func Read(r io.Reader, homeDir string) (*Config, error) {
	cfg := Default(homeDir)
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Write encodes a Config to w.
func Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// Validate checks field values
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: want debug, info, warn or error", c.LogLevel)
	}
	return nil
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path, homeDir string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(homeDir), nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	cfg, err := Read(f, homeDir)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to path, refusing to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Paths returns the config file path and the kakadu home directory,
// checking KAKADU_CONFIG and KAKADU_HOME first.
func Paths() (configPath, homeDir string, err error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", "", fmt.Errorf("cannot determine home directory: %w", err)
	}

	configPath = os.Getenv(ConfigPathEnv)
	if configPath == "" {
		configPath = filepath.Join(userHome, ".config", "kakadu.toml")
	}
	homeDir = os.Getenv(HomeEnv)
	if homeDir == "" {
		homeDir = filepath.Join(userHome, ".local", "share", "kakadu")
	}
	return configPath, homeDir, nil
}
