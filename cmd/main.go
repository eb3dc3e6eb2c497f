package main

import (
	"fmt"
	"os"

	"github.com/fukusenta/esp32-via-wifi/internal/config"
	"github.com/fukusenta/esp32-via-wifi/internal/logging"
	"github.com/fukusenta/esp32-via-wifi/internal/nvs"
	"github.com/fukusenta/esp32-via-wifi/internal/wifiinfo"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	configFile string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "viawifi",
	Short: "Wi-Fi credential manager with power-loss safe storage",
	Long: `Manages the Wi-Fi credentials a device needs to join a network,
persisted in a fixed-size non-volatile byte region. On boot it restores the
stored client credentials; when none are usable it advertises the device's
own access point and serves a local setup portal until an operator provides
new ones, then asks for a restart so the fresh credentials are picked up.`,
	RunE: runBoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the logger, store and manager shared
// by every command.
func setup() (*config.Config, *logrus.Logger, *wifiinfo.Manager, error) {
	logger := logging.Initialize(logLevel)

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if cfg.LogFile != "" {
		if err := logging.SetupFileLogging(logger, cfg.LogFile); err != nil {
			logger.WithError(err).Warn("Falling back to stdout logging")
		}
	}

	store, err := newStore(cfg)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, wifiinfo.NewManager(store, nil, logger), nil
}

// regionExists reports whether the backend already has a region behind it,
// so inspection commands can avoid creating one as a side effect.
func regionExists(cfg *config.Config) (bool, error) {
	if cfg.StorageBackend == "memory" {
		return true, nil
	}

	if _, err := os.Stat(cfg.StoragePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check storage region: %w", err)
	}
	return true, nil
}

// newStore picks the non-volatile backend for the credential region.
func newStore(cfg *config.Config) (nvs.Store, error) {
	switch cfg.StorageBackend {
	case "file":
		return nvs.NewFileStore(cfg.StoragePath), nil
	case "sqlite":
		return nvs.NewSQLiteStore(cfg.StoragePath), nil
	case "memory":
		return nvs.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
