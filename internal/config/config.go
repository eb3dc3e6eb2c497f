package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fukusenta/esp32-via-wifi/internal/wifiinfo"

	"github.com/spf13/viper"
)

// Config represents the device configuration
type Config struct {
	// AP identity advertised while provisioning. Supplied fresh on every
	// boot, never persisted to the credential region.
	APSSID     string `mapstructure:"ap_ssid"`
	APPassword string `mapstructure:"ap_password"`

	// Storage backend for the credential region
	StorageBackend string `mapstructure:"storage_backend"` // file, sqlite, memory
	StoragePath    string `mapstructure:"storage_path"`

	// Provisioning portal configuration
	PortalAddr    string `mapstructure:"portal_addr"`
	PortalTimeout int    `mapstructure:"portal_timeout"` // seconds, 0 waits forever

	// Logging configuration
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		APSSID:         "esp32-setup",
		APPassword:     "viawifi-setup",
		StorageBackend: "file",
		StoragePath:    "./nvs.bin",
		PortalAddr:     "0.0.0.0:8080",
		PortalTimeout:  300,
		LogLevel:       "info",
		LogFile:        "",
	}
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	setDefaults(v, cfg)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/viawifi")

		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".viawifi"))
		}
	}

	v.SetEnvPrefix("VIAWIFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("ap_ssid", cfg.APSSID)
	v.SetDefault("ap_password", cfg.APPassword)
	v.SetDefault("storage_backend", cfg.StorageBackend)
	v.SetDefault("storage_path", cfg.StoragePath)
	v.SetDefault("portal_addr", cfg.PortalAddr)
	v.SetDefault("portal_timeout", cfg.PortalTimeout)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("log_file", cfg.LogFile)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.APSSID) < 2 || len(c.APSSID) > wifiinfo.MaxSSIDLen {
		return fmt.Errorf("ap_ssid must be 2 to %d characters", wifiinfo.MaxSSIDLen)
	}

	if len(c.APPassword) < 8 || len(c.APPassword) > wifiinfo.MaxPasswordLen {
		return fmt.Errorf("ap_password must be 8 to %d characters", wifiinfo.MaxPasswordLen)
	}

	if c.StorageBackend != "file" && c.StorageBackend != "sqlite" && c.StorageBackend != "memory" {
		return fmt.Errorf("storage_backend must be one of: file, sqlite, memory")
	}

	if c.StorageBackend != "memory" && c.StoragePath == "" {
		return fmt.Errorf("storage_path is required for the %s backend", c.StorageBackend)
	}

	if c.PortalAddr == "" {
		return fmt.Errorf("portal_addr is required")
	}

	if c.PortalTimeout < 0 {
		return fmt.Errorf("portal_timeout must not be negative")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("log_level must be one of: debug, info, warn, error")
	}

	return nil
}
