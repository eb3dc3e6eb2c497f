package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fukusenta/esp32-via-wifi/internal/config"
	"github.com/fukusenta/esp32-via-wifi/internal/portal"
	"github.com/fukusenta/esp32-via-wifi/internal/wifiinfo"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var forceReconfigure bool

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Force a provisioning cycle even if credentials are stored",
	Long: `Runs the setup portal regardless of whether usable client
credentials are already stored. Use this to move the device to a different
network.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigure(true)
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	rootCmd.Flags().BoolVar(&forceReconfigure, "reconfigure", false, "force the setup portal even if credentials are stored")
}

// runBoot is the device boot sequence: one configure pass, then either
// proceed or exit asking for a restart.
func runBoot(cmd *cobra.Command, args []string) error {
	return runConfigure(forceReconfigure)
}

func runConfigure(force bool) error {
	cfg, logger, manager, err := setup()
	if err != nil {
		return err
	}

	manager.SetProvisioner(newPortal(cfg, manager, logger))

	ctx := context.Background()
	if cfg.PortalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.PortalTimeout)*time.Second)
		defer cancel()
	}

	ready, err := manager.Configure(ctx, cfg.APSSID, cfg.APPassword, force)
	if err != nil {
		return fmt.Errorf("configure failed: %w", err)
	}

	if !ready {
		// Either storage is unavailable or a provisioning cycle just ran.
		// On the device this is where the firmware reboots; here the exit
		// code tells the supervisor to start us again.
		return fmt.Errorf("credentials not ready, restart the boot sequence")
	}

	logger.WithField("ssid", manager.SSID()).Info("Client credentials ready, proceeding")
	fmt.Printf("Ready to join %q\n", manager.SSID())
	return nil
}

func newPortal(cfg *config.Config, manager *wifiinfo.Manager, logger *logrus.Logger) *portal.Server {
	return portal.NewServer(manager, portal.DefaultServerConfig(cfg.PortalAddr), logger)
}
