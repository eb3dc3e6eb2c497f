package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase stored client credentials",
	Long: `Wipes the persisted client credentials back to the erased state.
The next boot will run the setup portal.`,
	RunE: runEraseCommand,
}

func init() {
	rootCmd.AddCommand(eraseCmd)
}

func runEraseCommand(cmd *cobra.Command, args []string) error {
	_, logger, manager, err := setup()
	if err != nil {
		return err
	}

	if err := manager.EraseClient(); err != nil {
		return fmt.Errorf("erase failed: %w", err)
	}

	logger.Info("Stored client credentials erased")
	fmt.Println("Stored client credentials erased.")
	return nil
}
