/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/allbin/go-k720"
	"github.com/allbin/go-k720/internal/tui/components"
	"github.com/allbin/go-k720/internal/tui/models"
	"github.com/allbin/go-k720/serial"
)

const defaultWatchInterval = time.Second

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the dispenser sensors in a terminal UI",
	Long: `Poll the AP sensor state and show every flag live, with a log of the
exchanges. Reset, dispense and recycle can be triggered from the keyboard;
press ? for the key list.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval, _ := cmd.Flags().GetDuration("interval")

		// the TUI owns the terminal; driver logs would corrupt it
		dev, path, err := openDevice(cfg, logger, k720.WithVerbosity(k720.LogNone))
		if err != nil {
			return err
		}
		defer dev.Close()

		defaults := serial.DefaultConfig()
		info := &components.ConnectionInfo{
			BaudRate: cfg.Serial.BaudRate,
			DataBits: defaults.DataBits,
			StopBits: defaults.StopBits,
			Parity:   defaults.Parity,
			Address:  dev.Address(),
		}

		model := models.NewWatchModel(dev, path, info, interval)
		if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run(); err != nil {
			return fmt.Errorf("watch: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().Duration("interval", defaultWatchInterval, "Sensor poll interval")
}
