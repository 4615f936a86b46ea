package main

import (
	"github.com/DonovanMods/twlm/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive interface",
	Long: `Start the full-screen interface for picking a game, ordering mods,
managing profiles and launching.`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	svc, err := initService()
	if err != nil {
		return err
	}
	defer svc.Close()

	return tui.Run(svc)
}
