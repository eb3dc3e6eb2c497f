package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var showPassword bool

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the stored client credentials",
	RunE:  runShowCommand,
}

func init() {
	showCmd.Flags().BoolVar(&showPassword, "show-password", false, "print the stored password in clear text")
	rootCmd.AddCommand(showCmd)
}

func runShowCommand(cmd *cobra.Command, args []string) error {
	cfg, _, manager, err := setup()
	if err != nil {
		return err
	}

	// Restoring would create an empty region; an inspection command must
	// not write anything.
	exists, err := regionExists(cfg)
	if err != nil {
		return err
	}
	if !exists {
		fmt.Println("No credential region found.")
		return nil
	}

	if err := manager.Restore(); err != nil {
		return fmt.Errorf("failed to read stored credentials: %w", err)
	}

	if !manager.IsClientReady() {
		fmt.Println("No client credentials stored.")
		return nil
	}

	password := strings.Repeat("*", len(manager.Password()))
	if showPassword {
		password = manager.Password()
	}

	fmt.Printf("SSID:     %s\n", manager.SSID())
	fmt.Printf("Password: %s\n", password)
	return nil
}
